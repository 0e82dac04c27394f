package api

import (
	"context"
	"net/http"
	"net/url"

	"spark-client/pkg/models/post"
)

func (c *Client) Topics(ctx context.Context) ([]post.Topic, error) {
	page, err := getPage[post.Topic](ctx, c, "topics", nil)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Posts lists posts, optionally narrowed to an author, a search string or a topic.
func (c *Client) Posts(ctx context.Context, page, limit int, q post.Query) (Paginated[post.Post], error) {
	query := pageQuery(page, limit)
	if q.UserID != "" {
		query.Set("userId", q.UserID)
	}
	if q.Search != "" {
		query.Set("str", q.Search)
	}
	if q.TopicID != "" {
		query.Set("topicId", q.TopicID)
	}
	return getPage[post.Post](ctx, c, "posts", query)
}

// CreatePost returns the id of the new post.
func (c *Client) CreatePost(ctx context.Context, req post.CreatePostRequest) (string, error) {
	return getData[string](ctx, c, http.MethodPost, "posts", nil, req)
}

func (c *Client) Post(ctx context.Context, postID string) (post.Post, error) {
	return getData[post.Post](ctx, c, http.MethodGet, "posts/"+url.PathEscape(postID), nil, nil)
}

func (c *Client) LikePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodPost, "posts/"+url.PathEscape(postID)+"/like", nil, nil, nil)
}

func (c *Client) UnlikePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "posts/"+url.PathEscape(postID)+"/unlike", nil, nil, nil)
}

func (c *Client) SavePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodPost, "posts/"+url.PathEscape(postID)+"/save", nil, nil, nil)
}

func (c *Client) UnsavePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "posts/"+url.PathEscape(postID)+"/save", nil, nil, nil)
}

func (c *Client) SavedPosts(ctx context.Context, userID string, page, limit int) (Paginated[post.Post], error) {
	return getPage[post.Post](ctx, c, "users/"+url.PathEscape(userID)+"/saved-posts", pageQuery(page, limit))
}
