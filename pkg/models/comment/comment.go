package comment

import (
	"time"

	"spark-client/pkg/models/user"
)

type Comment struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	User       user.User `json:"user"`
	LikedCount int       `json:"likedCount"`
	CreatedAt  time.Time `json:"createdAt"`
	Children   []Comment `json:"children"`
}

// CreateCommentRequest is the body of POST v1/posts/{postId}/comments.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// Count returns the comment plus all nested replies.
func (c Comment) Count() int {
	n := 1
	for _, child := range c.Children {
		n += child.Count()
	}
	return n
}
