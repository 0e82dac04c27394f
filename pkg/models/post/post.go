package post

import (
	"time"

	"spark-client/pkg/models/user"
)

type Topic struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Post struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Image        *string   `json:"image,omitempty"`
	Author       user.User `json:"author"`
	Topic        Topic     `json:"topic"`
	IsFeatured   bool      `json:"isFeatured"`
	CommentCount int       `json:"commentCount"`
	LikedCount   int       `json:"likedCount"`
	// HasLiked and HasSaved are tri-state: nil means the server did not say.
	HasLiked  *bool     `json:"hasLiked,omitempty"`
	HasSaved  *bool     `json:"hasSaved,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Liked treats an unknown flag as not liked.
func (p Post) Liked() bool {
	return p.HasLiked != nil && *p.HasLiked
}

// Saved treats an unknown flag as not saved.
func (p Post) Saved() bool {
	return p.HasSaved != nil && *p.HasSaved
}
