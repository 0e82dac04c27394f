package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"spark-client/pkg/models/post"
)

// UploadImage sends r as the multipart field "file" and returns where the
// server stored it.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (post.FileUpload, error) {
	contentType, err := post.MediaType(filename)
	if err != nil {
		return post.FileUpload{}, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return post.FileUpload{}, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return post.FileUpload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return post.FileUpload{}, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload-file", nil), &buf)
	if err != nil {
		return post.FileUpload{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var resp DataResponse[post.FileUpload]
	if err := c.send(req, &resp); err != nil {
		return post.FileUpload{}, err
	}
	return resp.Data, nil
}
