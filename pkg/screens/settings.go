package screens

import (
	"context"

	"spark-client/pkg/session"
)

type Settings struct {
	session Session
	app     *App
}

func NewSettings(sess Session, app *App) *Settings {
	return &Settings{session: sess, app: app}
}

func (s *Settings) Theme() session.Theme { return s.session.Theme() }

func (s *Settings) SetTheme(ctx context.Context, theme session.Theme) error {
	return s.session.SetTheme(ctx, theme)
}

func (s *Settings) SubscribeTheme(fn func(session.Theme)) (cancel func()) {
	return s.session.SubscribeTheme(fn)
}

func (s *Settings) Logout(ctx context.Context) error {
	return s.app.Logout(ctx)
}
