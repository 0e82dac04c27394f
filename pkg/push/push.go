package push

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const DefaultTitle = "New notification from Spark"

// Message is one inbound push delivery.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// TokenStore is the part of the session that caches the delivery token.
type TokenStore interface {
	LoggedIn() bool
	PushToken() string
	SetPushToken(ctx context.Context, token string) error
}

type API interface {
	UpdatePushToken(ctx context.Context, token string) error
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, msg Message) error { return f(ctx, msg) }

type Service struct {
	store    TokenStore
	api      API
	notifier Notifier
	log      *zap.Logger
}

func NewService(store TokenStore, api API, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = LogNotifier{Log: log}
	}
	return &Service{store: store, api: api, notifier: notifier, log: log.Named("push")}
}

// OnNewToken caches token and forwards it to the server when a user is
// signed in. Otherwise the token waits for SyncPending after the next login.
func (s *Service) OnNewToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.store.SetPushToken(ctx, token); err != nil {
		s.log.Warn("failed to cache push token", zap.Error(err))
	}
	if !s.store.LoggedIn() {
		s.log.Debug("not logged in, deferring push token")
		return nil
	}
	return s.forward(ctx, token)
}

// SyncPending forwards the cached token, if any.
func (s *Service) SyncPending(ctx context.Context) error {
	token := s.store.PushToken()
	if token == "" || !s.store.LoggedIn() {
		return nil
	}
	return s.forward(ctx, token)
}

func (s *Service) forward(ctx context.Context, token string) error {
	if err := s.api.UpdatePushToken(ctx, token); err != nil {
		s.log.Warn("failed to send push token", zap.Error(err))
		return fmt.Errorf("update push token: %w", err)
	}
	s.log.Info("push token sent")
	return nil
}

// OnMessage renders msg, filling in the default title.
func (s *Service) OnMessage(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Title) == "" {
		msg.Title = DefaultTitle
	}
	return s.notifier.Notify(ctx, msg)
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, msg Message) error {
	n.Log.Info("notification", zap.String("title", msg.Title), zap.String("body", msg.Body))
	return nil
}
