package notification

import (
	"time"

	"spark-client/pkg/models/user"
)

type Notification struct {
	ID         string     `json:"id"`
	ReceiverID string     `json:"receiverId"`
	ActorID    string     `json:"actorId"`
	Content    string     `json:"content"`
	Action     string     `json:"action"`
	IsRead     bool       `json:"isRead"`
	CreatedAt  time.Time  `json:"createdAt"`
	Sender     *user.User `json:"sender,omitempty"`
}

// UnreadCount counts notifications not yet read.
func UnreadCount(items []Notification) int {
	n := 0
	for _, it := range items {
		if !it.IsRead {
			n++
		}
	}
	return n
}
