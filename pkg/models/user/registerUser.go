package user

import "errors"

var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmailTooShort    = errors.New("email must be at least 5 characters")
	ErrEmailTooLong     = errors.New("email must be at most 254 characters")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 60 characters")
	ErrUsernameTooShort = errors.New("username must be at least 3 characters")
	ErrUsernameTooLong  = errors.New("username must be at most 30 characters")
	ErrUsernameFormat   = errors.New("username can only contain letters, digits, dots and underscores")
	ErrNameRequired     = errors.New("first and last name are required")
	ErrCredentials      = errors.New("username and password are required")
)

// LoginRequest is the body of POST v1/authenticate.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries the bearer token issued at login.
type AuthResponse struct {
	Token string `json:"token"`
	F2A   bool   `json:"f2a"`
}

// RegisterRequest is the body of POST v1/register.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}
