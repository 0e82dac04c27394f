package api

import (
	"context"
	"net/http"

	"spark-client/pkg/models/user"
)

func (c *Client) Login(ctx context.Context, req user.LoginRequest) (user.AuthResponse, error) {
	return getData[user.AuthResponse](ctx, c, http.MethodPost, "authenticate", nil, req)
}

func (c *Client) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	return getData[user.User](ctx, c, http.MethodPost, "register", nil, req)
}
