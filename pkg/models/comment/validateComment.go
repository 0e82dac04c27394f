package comment

import (
	"errors"
	"strings"
)

const maxContentLength = 300

var (
	ErrEmptyComment   = errors.New("comment cannot be empty")
	ErrCommentTooLong = errors.New("comment content must not exceed 300 characters")
)

// ValidateComment trims the content and checks its length.
func ValidateComment(req *CreateCommentRequest) error {
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return ErrEmptyComment
	}
	if len([]rune(req.Content)) > maxContentLength {
		return ErrCommentTooLong
	}
	return nil
}
