package api

import (
	"context"
	"net/http"
	"net/url"

	"spark-client/pkg/models/follow"
	"spark-client/pkg/models/user"
)

func (c *Client) MyProfile(ctx context.Context) (user.User, error) {
	return getData[user.User](ctx, c, http.MethodGet, "profile", nil, nil)
}

func (c *Client) Profile(ctx context.Context, userID string) (user.User, error) {
	return getData[user.User](ctx, c, http.MethodGet, "rpc/users/"+url.PathEscape(userID), nil, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, req user.UpdateRequest) (user.User, error) {
	return getData[user.User](ctx, c, http.MethodPatch, "profile", nil, req)
}

func (c *Client) HasFollowed(ctx context.Context, userID string) (bool, error) {
	return getData[bool](ctx, c, http.MethodGet, "users/"+url.PathEscape(userID)+"/has-followed", nil, nil)
}

func (c *Client) Follow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "users/"+url.PathEscape(userID)+"/follow", nil, nil, nil)
}

func (c *Client) Unfollow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "users/"+url.PathEscape(userID)+"/unfollow", nil, nil, nil)
}

// UpdatePushToken registers this device's push token for the signed-in user.
func (c *Client) UpdatePushToken(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "fcm-token", nil, pushTokenRequest{FCMToken: token}, nil)
}

// FollowList lists followers or followings of userID.
func (c *Client) FollowList(ctx context.Context, dir follow.Direction, userID string, page, limit int) (Paginated[follow.FollowerInfo], error) {
	return getPage[follow.FollowerInfo](ctx, c, "users/"+url.PathEscape(userID)+"/"+string(dir), pageQuery(page, limit))
}
