package websocket

import (
	"encoding/json"
	"time"
)

type EventName string

const (
	EventRegister       EventName = "register"
	EventMessage        EventName = "message"
	EventPrivateMessage EventName = "privateMessage"
	EventJoinRoom       EventName = "joinRoom"
	EventLeaveRoom      EventName = "leaveRoom"
)

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type      EventName       `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Registration announces which user owns the connection.
type Registration struct {
	UserID string `json:"userId"`
}

// NewWSMessage encodes payload into an envelope ready to write.
func NewWSMessage(event EventName, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{
		Type:      event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}
