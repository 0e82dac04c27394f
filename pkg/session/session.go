package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"spark-client/pkg/auth"
	"spark-client/pkg/db/kv"
	"spark-client/pkg/models/user"
	"spark-client/pkg/observe"

	"go.uber.org/zap"
)

const (
	keyAuthToken   = "auth_token"
	keyUserDetails = "user_details"
	keyPushToken   = "fcm_token"
	keyTheme       = "theme_mode"
)

// Backend is the persistent key-value storage behind a Store.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type Theme string

const (
	ThemeSystem Theme = "SYSTEM"
	ThemeLight  Theme = "LIGHT"
	ThemeDark   Theme = "DARK"
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToUpper(strings.TrimSpace(s))); t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q (want system, light or dark)", s)
}

// Store holds the signed-in session: the bearer token and the current user,
// plus the cached push token and the theme preference. Reads never fail;
// anything unreadable is treated as absent.
type Store struct {
	backend Backend
	log     *zap.Logger

	mu        sync.RWMutex
	token     string
	pushToken string

	user  *observe.Value[*user.User]
	theme *observe.Value[Theme]
}

// Open restores the persisted session. A JWT whose expiry has passed is
// discarded together with the cached user.
func Open(ctx context.Context, backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		backend: backend,
		log:     log.Named("session"),
		user:    observe.NewValue[*user.User](nil),
		theme:   observe.NewValue(ThemeSystem),
	}
	s.restore(ctx, time.Now())
	return s
}

func (s *Store) restore(ctx context.Context, now time.Time) {
	token := s.read(ctx, keyAuthToken)
	if err := auth.ValidateToken(token, now); errors.Is(err, auth.ErrTokenExpired) {
		s.log.Info("stored session expired, signing out")
		if err := s.backend.Delete(ctx, keyAuthToken, keyUserDetails); err != nil {
			s.log.Warn("failed to drop expired session", zap.Error(err))
		}
		token = ""
	}
	s.token = token

	if token != "" {
		if raw := s.read(ctx, keyUserDetails); raw != "" {
			var u user.User
			if err := json.Unmarshal([]byte(raw), &u); err != nil {
				s.log.Warn("stored user is unreadable", zap.Error(err))
			} else {
				s.user.Set(&u)
			}
		}
	}

	s.pushToken = s.read(ctx, keyPushToken)

	if raw := s.read(ctx, keyTheme); raw != "" {
		if theme, err := ParseTheme(raw); err == nil {
			s.theme.Set(theme)
		}
	}
}

func (s *Store) read(ctx context.Context, key string) string {
	v, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn("failed to read session value", zap.String("key", key), zap.Error(err))
		}
		return ""
	}
	return v
}

// Token returns the bearer token and whether one is set.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Store) LoggedIn() bool {
	_, ok := s.Token()
	return ok
}

// SetToken takes effect immediately; the returned error only reports that
// it could not be persisted.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.backend.Set(ctx, keyAuthToken, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	return nil
}

// User returns a copy of the current user, or nil.
func (s *Store) User() *user.User {
	u := s.user.Get()
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// UserID returns the current user's id or "".
func (s *Store) UserID() string {
	if u := s.user.Get(); u != nil {
		return u.ID
	}
	return ""
}

// SetUser replaces the current user and notifies observers.
func (s *Store) SetUser(ctx context.Context, u user.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	s.user.Set(&u)

	if err := s.backend.Set(ctx, keyUserDetails, string(data)); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// Subscribe calls fn with every change of the current user (nil after Clear).
func (s *Store) Subscribe(fn func(*user.User)) (cancel func()) {
	return s.user.Subscribe(fn)
}

// Clear signs out: token and user go away in memory and in storage. The push
// token and theme are device settings and survive.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	err := s.backend.Delete(ctx, keyAuthToken, keyUserDetails)
	s.user.Set(nil)

	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) PushToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pushToken
}

func (s *Store) SetPushToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.pushToken = token
	s.mu.Unlock()

	if err := s.backend.Set(ctx, keyPushToken, token); err != nil {
		return fmt.Errorf("failed to persist push token: %w", err)
	}
	return nil
}

func (s *Store) Theme() Theme {
	return s.theme.Get()
}

func (s *Store) SetTheme(ctx context.Context, theme Theme) error {
	s.theme.Set(theme)
	if err := s.backend.Set(ctx, keyTheme, string(theme)); err != nil {
		return fmt.Errorf("failed to persist theme: %w", err)
	}
	return nil
}

func (s *Store) SubscribeTheme(fn func(Theme)) (cancel func()) {
	return s.theme.Subscribe(fn)
}
