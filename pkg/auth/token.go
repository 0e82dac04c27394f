package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptyToken   = errors.New("no session token")
	ErrTokenExpired = errors.New("session has expired")
)

// Claims is the subset of the server's token payload the client reads.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes a JWT without verifying its signature; the signing key
// lives on the server.
func Inspect(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

// ValidateToken reports whether a stored token is still usable at now.
// Tokens that are not JWTs carry no expiry and are accepted as is.
func ValidateToken(tokenString string, now time.Time) error {
	if tokenString == "" {
		return ErrEmptyToken
	}

	claims, err := Inspect(tokenString)
	if err != nil {
		return nil
	}

	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}

// Subject returns the user id carried by a JWT, or "" for opaque tokens.
func Subject(tokenString string) string {
	claims, err := Inspect(tokenString)
	if err != nil {
		return ""
	}
	if claims.UserID != "" {
		return claims.UserID
	}
	return claims.Subject
}
