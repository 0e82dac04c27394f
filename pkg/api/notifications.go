package api

import (
	"context"

	"spark-client/pkg/models/notification"
)

func (c *Client) Notifications(ctx context.Context, page, limit int) (Paginated[notification.Notification], error) {
	return getPage[notification.Notification](ctx, c, "notifications", pageQuery(page, limit))
}
