package api

import (
	"context"
	"net/http"
	"net/url"

	"spark-client/pkg/models/comment"
)

func (c *Client) Comments(ctx context.Context, postID string, page, limit int) (Paginated[comment.Comment], error) {
	return getPage[comment.Comment](ctx, c, "comments/"+url.PathEscape(postID)+"/replies", pageQuery(page, limit))
}

func (c *Client) CreateComment(ctx context.Context, postID string, req comment.CreateCommentRequest) (comment.Comment, error) {
	return getData[comment.Comment](ctx, c, http.MethodPost, "posts/"+url.PathEscape(postID)+"/comments", nil, req)
}
