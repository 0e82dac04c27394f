package post

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrTopicRequired    = errors.New("a topic is required")
	ErrInvalidMediaType = errors.New("invalid media type, only JPEG, PNG, GIF and WEBP are allowed")
)

var validMediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func ValidateCreatePostRequest(req CreatePostRequest) error {
	if strings.TrimSpace(req.Content) == "" {
		return ErrEmptyContent
	}
	if strings.TrimSpace(req.TopicID) == "" {
		return ErrTopicRequired
	}
	return nil
}

// MediaType returns the content type for an upload by file extension.
func MediaType(filename string) (string, error) {
	ct, ok := validMediaTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return "", ErrInvalidMediaType
	}
	return ct, nil
}
