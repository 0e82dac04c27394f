package chat

import (
	"strings"
	"time"
)

// Messager is the counterpart of a private room as seen by the caller.
type Messager struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar"`
	Online    bool   `json:"online"`
}

func (m Messager) DisplayName() string {
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if name == "" {
		return m.Username
	}
	return name
}

type Room struct {
	ID         string   `json:"id"`
	CreatorID  string   `json:"creatorId"`
	ReceiverID string   `json:"receiverId"`
	Type       string   `json:"type"`
	Status     string   `json:"status"`
	Messager   Messager `json:"messager"`
	// LastMessage is the preview shown in the room list.
	LastMessage *Message `json:"messages,omitempty"`
}

// Counterpart returns the other participant of a private room.
func (r Room) Counterpart() Messager {
	return r.Messager
}

// Message is a persisted chat message as returned by the history endpoint.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Payload is the real-time chat schema, used for both privateMessage
// (outbound) and message (inbound) events.
type Payload struct {
	ID           string     `json:"id,omitempty"`
	ClientID     string     `json:"clientId,omitempty"`
	RoomID       string     `json:"roomId"`
	SenderID     string     `json:"senderId"`
	SenderName   string     `json:"senderName"`
	SenderAvatar string     `json:"senderAvatar"`
	ReceiverID   string     `json:"receiverId"`
	Content      string     `json:"content"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// Membership is the joinRoom / leaveRoom body.
type Membership struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

