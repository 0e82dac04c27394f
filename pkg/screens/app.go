package screens

import (
	"context"

	"spark-client/pkg/models/user"
	"spark-client/pkg/observe"
	"spark-client/pkg/session"

	"go.uber.org/zap"
)

type Route int

const (
	RouteLogin Route = iota
	RouteMain
)

func (r Route) String() string {
	if r == RouteMain {
		return "main"
	}
	return "login"
}

// App owns start-up routing and logout.
type App struct {
	session Session
	channel Connector
	log     *zap.Logger

	route      *observe.Value[Route]
	cancelUser func()
}

func NewApp(sess Session, channel Connector, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		session: sess,
		channel: channel,
		log:     log.Named("app"),
		route:   observe.NewValue(RouteLogin),
	}
	// a cleared session sends the user back to login from any screen
	a.cancelUser = sess.Subscribe(func(u *user.User) {
		if u == nil && !sess.LoggedIn() {
			a.route.Set(RouteLogin)
		}
	})
	return a
}

// Start picks the first screen. With a stored token the channel is connected
// and the main screen is shown.
func (a *App) Start(ctx context.Context) Route {
	if !a.session.LoggedIn() {
		a.route.Set(RouteLogin)
		return RouteLogin
	}
	a.channel.Connect(ctx)
	a.route.Set(RouteMain)
	return RouteMain
}

// LoggedIn moves to the main screen after a successful login.
func (a *App) LoggedIn() {
	a.route.Set(RouteMain)
}

// Logout tears down the channel and forgets the session.
func (a *App) Logout(ctx context.Context) error {
	a.channel.Disconnect()
	err := a.session.Clear(ctx)
	a.route.Set(RouteLogin)
	if err != nil {
		a.log.Warn("failed to clear session", zap.Error(err))
		return err
	}
	a.log.Info("logged out")
	return nil
}

func (a *App) Route() Route { return a.route.Get() }

func (a *App) SubscribeRoute(fn func(Route)) (cancel func()) {
	return a.route.Subscribe(fn)
}

func (a *App) Theme() session.Theme { return a.session.Theme() }

func (a *App) Close() {
	a.cancelUser()
}
