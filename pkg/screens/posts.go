package screens

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"spark-client/pkg/models/comment"
	"spark-client/pkg/models/post"
	"spark-client/pkg/paging"

	"go.uber.org/zap"
)

const (
	SearchDebounce = 500 * time.Millisecond
	searchLimit    = 50
	commentLimit   = 50
)

// Search runs post searches as the query is typed. A new query cancels the
// one still waiting or running.
type Search struct {
	holder[[]post.Post]
	api      paging.PostsAPI
	debounce time.Duration

	mu     sync.Mutex
	query  string
	cancel context.CancelFunc
}

func NewSearch(parent context.Context, c paging.PostsAPI, log *zap.Logger) *Search {
	s := &Search{api: c, debounce: SearchDebounce}
	s.init(parent, log, "search")
	return s
}

func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// OnQueryChanged schedules a search for query after the debounce delay.
// A blank query resets the screen to Idle.
func (s *Search) OnQueryChanged(query string) {
	s.mu.Lock()
	s.query = query
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.launch(func(context.Context) {
		select {
		case <-time.After(s.debounce):
		case <-ctx.Done():
			return
		}
		if strings.TrimSpace(query) == "" {
			s.state.Set(UIState[[]post.Post]{})
			return
		}
		s.search(ctx, query)
	})
}

func (s *Search) search(ctx context.Context, query string) {
	s.loading()
	res, err := s.api.Posts(ctx, paging.StartingPage, searchLimit, post.Query{Search: query})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.fail(err)
		return
	}
	s.succeed(res.Data)
}

// SavedPosts pages through the signed-in user's saved posts.
type SavedPosts struct {
	holder[[]post.Post]
	pager *paging.Pager[post.Post]
}

func NewSavedPosts(parent context.Context, c paging.SavedPostsAPI, sess Session, pageSize int, log *zap.Logger) *SavedPosts {
	s := &SavedPosts{pager: paging.NewPager(paging.SavedPosts(c, sess.UserID()), pageSize)}
	s.init(parent, log, "saved")
	return s
}

func (s *SavedPosts) Refresh() error {
	s.loading()
	if err := s.pager.Refresh(s.ctx, nil); err != nil {
		return s.fail(err)
	}
	s.succeed(s.pager.Items())
	return nil
}

func (s *SavedPosts) LoadMore() (bool, error) {
	more, err := s.pager.LoadNext(s.ctx)
	if err != nil {
		return false, s.fail(err)
	}
	s.succeed(s.pager.Items())
	return more, nil
}

type PostDetailsAPI interface {
	Post(ctx context.Context, postID string) (post.Post, error)
	paging.CommentsAPI
	CreateComment(ctx context.Context, postID string, req comment.CreateCommentRequest) (comment.Comment, error)
	LikePost(ctx context.Context, postID string) error
	UnlikePost(ctx context.Context, postID string) error
	SavePost(ctx context.Context, postID string) error
	UnsavePost(ctx context.Context, postID string) error
}

type PostDetail struct {
	Post     post.Post
	Comments []comment.Comment
}

// PostDetails shows one post with its first comments. Like and save here
// wait for the server before changing what is shown.
type PostDetails struct {
	holder[PostDetail]
	api    PostDetailsAPI
	postID string
}

func NewPostDetails(parent context.Context, c PostDetailsAPI, postID string, log *zap.Logger) *PostDetails {
	d := &PostDetails{api: c, postID: postID}
	d.init(parent, log, "post")
	return d
}

// Seed shows a post already on screen while the full load runs.
func (d *PostDetails) Seed(p post.Post) {
	if d.State().Status == Idle {
		d.state.Set(UIState[PostDetail]{Status: Loading, Data: PostDetail{Post: p}})
	}
}

// Load fetches the post, then its comments. Comments failing leaves the
// list empty rather than failing the screen.
func (d *PostDetails) Load() error {
	if strings.TrimSpace(d.postID) == "" {
		return d.fail(fmt.Errorf("post id is missing"))
	}
	d.loading()

	p, err := d.api.Post(d.ctx, d.postID)
	if err != nil {
		return d.fail(err)
	}
	var comments []comment.Comment
	res, err := d.api.Comments(d.ctx, d.postID, paging.StartingPage, commentLimit)
	if err != nil {
		d.log.Warn("failed to load comments", zap.Error(err))
	} else {
		comments = res.Data
	}
	d.succeed(PostDetail{Post: p, Comments: comments})
	return nil
}

// Comment posts content and reloads the screen.
func (d *PostDetails) Comment(content string) error {
	req := comment.CreateCommentRequest{Content: content}
	if err := comment.ValidateComment(&req); err != nil {
		return err
	}
	if _, err := d.api.CreateComment(d.ctx, d.postID, req); err != nil {
		d.log.Warn("failed to post comment", zap.Error(err))
		return err
	}
	return d.Load()
}

func (d *PostDetails) ToggleLike() error {
	st := d.State()
	if st.Status != Success {
		return nil
	}
	p := st.Data.Post
	call := d.api.LikePost
	if p.Liked() {
		call = d.api.UnlikePost
	}
	if err := call(d.ctx, p.ID); err != nil {
		d.log.Warn("like failed", zap.Error(err))
		return err
	}

	liked := !p.Liked()
	p.HasLiked = &liked
	if liked {
		p.LikedCount++
	} else if p.LikedCount > 0 {
		p.LikedCount--
	}
	d.setPost(p)
	return nil
}

func (d *PostDetails) ToggleSave() error {
	st := d.State()
	if st.Status != Success {
		return nil
	}
	p := st.Data.Post
	call := d.api.SavePost
	if p.Saved() {
		call = d.api.UnsavePost
	}
	if err := call(d.ctx, p.ID); err != nil {
		d.log.Warn("save failed", zap.Error(err))
		return err
	}

	saved := !p.Saved()
	p.HasSaved = &saved
	d.setPost(p)
	return nil
}

func (d *PostDetails) setPost(p post.Post) {
	d.state.Update(func(cur UIState[PostDetail]) UIState[PostDetail] {
		cur.Data.Post = p
		return cur
	})
}

type CreatePostAPI interface {
	Topics(ctx context.Context) ([]post.Topic, error)
	UploadImage(ctx context.Context, filename string, body io.Reader) (post.FileUpload, error)
	CreatePost(ctx context.Context, req post.CreatePostRequest) (string, error)
}

type CreatePostData struct {
	Topics   []post.Topic
	Selected *post.Topic
	PostID   string
}

// CreatePost loads topics and publishes a new post, uploading its image first.
type CreatePost struct {
	holder[CreatePostData]
	api CreatePostAPI
}

func NewCreatePost(parent context.Context, c CreatePostAPI, log *zap.Logger) *CreatePost {
	cp := &CreatePost{api: c}
	cp.init(parent, log, "create_post")
	return cp
}

// LoadTopics fetches topics and selects the first one.
func (cp *CreatePost) LoadTopics() error {
	topics, err := cp.api.Topics(cp.ctx)
	if err != nil {
		return cp.fail(fmt.Errorf("failed to load topics: %w", err))
	}
	data := CreatePostData{Topics: topics}
	if len(topics) > 0 {
		first := topics[0]
		data.Selected = &first
	}
	cp.state.Set(UIState[CreatePostData]{Status: Idle, Data: data})
	return nil
}

func (cp *CreatePost) SelectTopic(topicID string) bool {
	found := false
	cp.state.Update(func(cur UIState[CreatePostData]) UIState[CreatePostData] {
		for _, t := range cur.Data.Topics {
			if t.ID == topicID {
				sel := t
				cur.Data.Selected = &sel
				found = true
			}
		}
		return cur
	})
	return found
}

// Create publishes content under topicID. When image is set it is uploaded
// first; a failed upload aborts the post.
func (cp *CreatePost) Create(content, topicID string, image *Upload) error {
	req := post.CreatePostRequest{Content: content, TopicID: topicID}
	if err := post.ValidateCreatePostRequest(req); err != nil {
		return cp.fail(err)
	}
	cp.loading()

	if image != nil {
		up, err := cp.api.UploadImage(cp.ctx, image.Filename, image.Body)
		if err != nil {
			return cp.fail(fmt.Errorf("image upload failed: %w", err))
		}
		req.Image = &up.URL
	}

	id, err := cp.api.CreatePost(cp.ctx, req)
	if err != nil {
		return cp.fail(err)
	}

	data := cp.State().Data
	data.PostID = id
	cp.succeed(data)
	cp.log.Info("post created", zap.String("post_id", id))
	return nil
}
