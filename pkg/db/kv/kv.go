package kv

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrNotFound = errors.New("key not found")
	// ErrSealed is returned for a sealed value that cannot be opened with the
	// configured key, or when no key is configured.
	ErrSealed = errors.New("value cannot be unsealed")
)

type row struct {
	Key       string    `db:"key"`
	Value     []byte    `db:"value"`
	Sealed    bool      `db:"sealed"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Store is a string key-value table in the local sqlite database. With a key
// configured, values are sealed with XChaCha20-Poly1305 before they are
// written.
type Store struct {
	db   *sqlx.DB
	aead cipher.AEAD
}

type Option func(*Store) error

// WithKey enables sealing with a 32-byte key. A nil key leaves sealing off.
func WithKey(key []byte) Option {
	return func(s *Store) error {
		if key == nil {
			return nil
		}
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return fmt.Errorf("invalid store key: %w", err)
		}
		s.aead = aead
		return nil
	}
}

func New(db *sqlx.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Get returns the value stored under key, ErrNotFound, or ErrSealed.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var r row
	err := s.db.GetContext(ctx, &r, "SELECT key, value, sealed, updated_at FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", key, err)
	}

	if !r.Sealed {
		return string(r.Value), nil
	}
	plain, err := s.open(key, r.Value)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	data := []byte(value)
	sealed := false
	if s.aead != nil {
		var err error
		if data, err = s.seal(key, data); err != nil {
			return err
		}
		sealed = true
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, sealed, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, sealed = excluded.sealed, updated_at = excluded.updated_at`,
		key, data, sealed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM kv WHERE key IN (?)", keys)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, "SELECT key FROM kv ORDER BY key"); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// the key name is bound as additional data so values cannot be swapped
func (s *Store) seal(key string, plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plain, []byte(key)), nil
}

func (s *Store) open(key string, data []byte) ([]byte, error) {
	if s.aead == nil || len(data) < s.aead.NonceSize() {
		return nil, ErrSealed
	}
	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, ErrSealed
	}
	return plain, nil
}
