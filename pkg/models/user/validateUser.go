package user

import (
	"net/mail"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._]+$`)

// ValidateLogin only checks that both fields are present; the server decides
// whether they match.
func ValidateLogin(req LoginRequest) error {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return ErrCredentials
	}
	return nil
}

func ValidateRegister(req RegisterRequest) error {
	if err := ValidateUsername(req.Username); err != nil {
		return err
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return ErrNameRequired
	}
	return ValidatePassword(req.Password)
}

func ValidateEmail(email string) error {
	if len(email) < 5 {
		return ErrEmailTooShort
	}
	if len(email) > 254 {
		return ErrEmailTooLong
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	if len(password) > 60 {
		return ErrPasswordTooLong
	}
	return nil
}

func ValidateUsername(username string) error {
	if len(username) < 3 {
		return ErrUsernameTooShort
	}
	if len(username) > 30 {
		return ErrUsernameTooLong
	}
	if !usernameRegex.MatchString(username) {
		return ErrUsernameFormat
	}
	return nil
}
