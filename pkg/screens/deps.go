package screens

import (
	"context"

	"spark-client/pkg/models/user"
	"spark-client/pkg/session"
)

// Session is the shared signed-in state. Holders never cancel or replace it.
type Session interface {
	LoggedIn() bool
	Token() (string, bool)
	SetToken(ctx context.Context, token string) error
	User() *user.User
	UserID() string
	SetUser(ctx context.Context, u user.User) error
	Subscribe(fn func(*user.User)) (cancel func())
	Clear(ctx context.Context) error
	Theme() session.Theme
	SetTheme(ctx context.Context, theme session.Theme) error
	SubscribeTheme(fn func(session.Theme)) (cancel func())
}

// Connector is the process-wide real-time channel.
type Connector interface {
	Connect(ctx context.Context)
	Disconnect()
}

// PushSyncer forwards a push token cached before login.
type PushSyncer interface {
	SyncPending(ctx context.Context) error
}
