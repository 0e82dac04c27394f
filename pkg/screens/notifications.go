package screens

import (
	"context"

	"spark-client/pkg/models/notification"
	"spark-client/pkg/paging"

	"go.uber.org/zap"
)

const notificationLimit = 50

// Notifications shows the first page of the user's notifications.
type Notifications struct {
	holder[[]notification.Notification]
	api paging.NotificationsAPI
}

func NewNotifications(parent context.Context, c paging.NotificationsAPI, log *zap.Logger) *Notifications {
	n := &Notifications{api: c}
	n.init(parent, log, "notifications")
	return n
}

func (n *Notifications) Load() error {
	n.loading()
	res, err := n.api.Notifications(n.ctx, paging.StartingPage, notificationLimit)
	if err != nil {
		return n.fail(err)
	}
	n.succeed(res.Data)
	return nil
}

func (n *Notifications) Unread() int {
	return notification.UnreadCount(n.State().Data)
}
