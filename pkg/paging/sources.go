package paging

import (
	"context"
	"strings"

	"spark-client/pkg/api"
	"spark-client/pkg/models/comment"
	"spark-client/pkg/models/follow"
	"spark-client/pkg/models/notification"
	"spark-client/pkg/models/post"
)

type PostsAPI interface {
	Posts(ctx context.Context, page, limit int, q post.Query) (api.Paginated[post.Post], error)
}

type SavedPostsAPI interface {
	SavedPosts(ctx context.Context, userID string, page, limit int) (api.Paginated[post.Post], error)
}

type FollowAPI interface {
	FollowList(ctx context.Context, dir follow.Direction, userID string, page, limit int) (api.Paginated[follow.FollowerInfo], error)
}

type NotificationsAPI interface {
	Notifications(ctx context.Context, page, limit int) (api.Paginated[notification.Notification], error)
}

type CommentsAPI interface {
	Comments(ctx context.Context, postID string, page, limit int) (api.Paginated[comment.Comment], error)
}

// Posts lists posts, optionally narrowed by search text, topic or author.
// Blank search text is not sent.
func Posts(c PostsAPI, q post.Query) *Source[post.Post] {
	if strings.TrimSpace(q.Search) == "" {
		q.Search = ""
	}
	return NewSource(func(ctx context.Context, page, limit int) ([]post.Post, error) {
		res, err := c.Posts(ctx, page, limit, q)
		return res.Data, err
	})
}

func SavedPosts(c SavedPostsAPI, userID string) *Source[post.Post] {
	return NewSource(func(ctx context.Context, page, limit int) ([]post.Post, error) {
		res, err := c.SavedPosts(ctx, userID, page, limit)
		return res.Data, err
	})
}

func Follows(c FollowAPI, dir follow.Direction, userID string) *Source[follow.FollowerInfo] {
	return NewSource(func(ctx context.Context, page, limit int) ([]follow.FollowerInfo, error) {
		res, err := c.FollowList(ctx, dir, userID, page, limit)
		return res.Data, err
	})
}

func Notifications(c NotificationsAPI) *Source[notification.Notification] {
	return NewSource(func(ctx context.Context, page, limit int) ([]notification.Notification, error) {
		res, err := c.Notifications(ctx, page, limit)
		return res.Data, err
	})
}

func Comments(c CommentsAPI, postID string) *Source[comment.Comment] {
	return NewSource(func(ctx context.Context, page, limit int) ([]comment.Comment, error) {
		res, err := c.Comments(ctx, postID, page, limit)
		return res.Data, err
	})
}
