package api

import (
	"context"
	"net/http"
	"net/url"

	"spark-client/pkg/models/chat"
)

func (c *Client) ChatRooms(ctx context.Context) ([]chat.Room, error) {
	return getData[[]chat.Room](ctx, c, http.MethodGet, "chat-rooms", nil, nil)
}

func (c *Client) ChatRoom(ctx context.Context, roomID string) (chat.Room, error) {
	return getData[chat.Room](ctx, c, http.MethodGet, "rpc/chat-rooms/"+url.PathEscape(roomID), nil, nil)
}

// ChatMessages returns the room history. Unlike the other endpoints the
// response is a bare JSON array.
func (c *Client) ChatMessages(ctx context.Context, roomID string) ([]chat.Message, error) {
	var msgs []chat.Message
	if err := c.do(ctx, http.MethodGet, "chat-messages/"+url.PathEscape(roomID), nil, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
