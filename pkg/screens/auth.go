package screens

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"spark-client/pkg/api"
	"spark-client/pkg/models/user"

	"go.uber.org/zap"
)

var ErrInvalidLogin = errors.New("invalid username or password")

type LoginAPI interface {
	Login(ctx context.Context, req user.LoginRequest) (user.AuthResponse, error)
	MyProfile(ctx context.Context) (user.User, error)
}

// Login signs the user in: token, profile, pending push token, channel.
type Login struct {
	holder[string]
	api     LoginAPI
	session Session
	push    PushSyncer
	channel Connector
}

func NewLogin(parent context.Context, c LoginAPI, sess Session, push PushSyncer, channel Connector, log *zap.Logger) *Login {
	l := &Login{api: c, session: sess, push: push, channel: channel}
	l.init(parent, log, "login")
	return l
}

func (l *Login) Login(username, password string) error {
	req := user.LoginRequest{Username: username, Password: password}
	if err := user.ValidateLogin(req); err != nil {
		return l.fail(err)
	}
	l.loading()

	res, err := l.api.Login(l.ctx, req)
	if err != nil {
		if status := api.StatusCode(err); status == http.StatusUnauthorized || status == http.StatusBadRequest {
			err = fmt.Errorf("%w: %w", ErrInvalidLogin, err)
		}
		return l.fail(err)
	}
	if err := l.session.SetToken(l.ctx, res.Token); err != nil {
		l.log.Warn("token not persisted", zap.Error(err))
	}

	// a missing profile does not undo the login
	if me, err := l.api.MyProfile(l.ctx); err != nil {
		l.log.Warn("failed to fetch profile after login", zap.Error(err))
	} else if err := l.session.SetUser(l.ctx, me); err != nil {
		l.log.Warn("profile not persisted", zap.Error(err))
	}

	if l.push != nil {
		if err := l.push.SyncPending(l.ctx); err != nil {
			l.log.Warn("pending push token not sent", zap.Error(err))
		}
	}
	l.channel.Connect(l.ctx)

	l.succeed(res.Token)
	return nil
}

type RegisterAPI interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, error)
}

type Register struct {
	holder[user.User]
	api RegisterAPI
}

func NewRegister(parent context.Context, c RegisterAPI, log *zap.Logger) *Register {
	r := &Register{api: c}
	r.init(parent, log, "register")
	return r
}

// Register creates the account. The user still has to log in afterwards.
func (r *Register) Register(req user.RegisterRequest) error {
	if err := user.ValidateRegister(req); err != nil {
		return r.fail(err)
	}
	r.loading()

	u, err := r.api.Register(r.ctx, req)
	if err != nil {
		return r.fail(err)
	}
	r.succeed(u)
	return nil
}
