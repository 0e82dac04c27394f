package post

// CreatePostRequest is the body of POST v1/posts.
type CreatePostRequest struct {
	Content string  `json:"content"`
	Image   *string `json:"image,omitempty"`
	TopicID string  `json:"topicId"`
}

// FileUpload is returned by POST v1/upload-file.
type FileUpload struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Ext         string `json:"ext"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Query narrows the posts listing. Empty fields are not sent.
type Query struct {
	UserID  string
	Search  string
	TopicID string
}
