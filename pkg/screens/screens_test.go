package screens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"spark-client/pkg/api"
	"spark-client/pkg/db/kv"
	chatmodel "spark-client/pkg/models/chat"
	"spark-client/pkg/models/comment"
	"spark-client/pkg/models/follow"
	"spark-client/pkg/models/notification"
	"spark-client/pkg/models/post"
	"spark-client/pkg/models/user"
	"spark-client/pkg/session"
	"spark-client/pkg/sockets/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func newSession(t *testing.T, token string) *session.Store {
	t.Helper()
	s := session.Open(context.Background(), &memBackend{values: map[string]string{}}, nil)
	if token != "" {
		require.NoError(t, s.SetToken(context.Background(), token))
	}
	return s
}

type fakeChannel struct {
	connects    int
	disconnects int
}

func (f *fakeChannel) Connect(context.Context) { f.connects++ }
func (f *fakeChannel) Disconnect()             { f.disconnects++ }

type fakePush struct{ synced int }

func (f *fakePush) SyncPending(context.Context) error {
	f.synced++
	return nil
}

// fakeAPI implements every API interface the holders use.
type fakeAPI struct {
	mu sync.Mutex

	loginErr error
	me       user.User
	meErr    error
	profiles map[string]user.User
	followed bool
	updated  *user.UpdateRequest

	posts     []post.Post
	postsErr  error
	queries   []post.Query
	saved     []post.Post
	likeErr   error
	calls     []string
	comments  []comment.Comment
	commented []string

	topics  []post.Topic
	uploads []string
	created *post.CreatePostRequest

	rooms         []chatmodel.Room
	room          chatmodel.Room
	roomErr       error
	notifications []notification.Notification
}

func (f *fakeAPI) call(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeAPI) Login(_ context.Context, req user.LoginRequest) (user.AuthResponse, error) {
	if f.loginErr != nil {
		return user.AuthResponse{}, f.loginErr
	}
	return user.AuthResponse{Token: "T-" + req.Username}, nil
}

func (f *fakeAPI) Register(_ context.Context, req user.RegisterRequest) (user.User, error) {
	return user.User{ID: "NEW", Username: req.Username}, nil
}

func (f *fakeAPI) MyProfile(context.Context) (user.User, error) { return f.me, f.meErr }

func (f *fakeAPI) Profile(_ context.Context, id string) (user.User, error) {
	u, ok := f.profiles[id]
	if !ok {
		return user.User{}, &api.Error{Kind: api.KindAPI, Status: http.StatusNotFound, Message: "not found"}
	}
	return u, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, req user.UpdateRequest) (user.User, error) {
	f.updated = &req
	u := f.me
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.Avatar != nil {
		u.Avatar = req.Avatar
	}
	return u, nil
}

func (f *fakeAPI) HasFollowed(context.Context, string) (bool, error) { return f.followed, nil }
func (f *fakeAPI) Follow(context.Context, string) error               { f.call("follow"); return nil }
func (f *fakeAPI) Unfollow(context.Context, string) error             { f.call("unfollow"); return nil }

func (f *fakeAPI) FollowList(_ context.Context, dir follow.Direction, _ string, page, _ int) (api.Paginated[follow.FollowerInfo], error) {
	if page > 1 {
		return api.Paginated[follow.FollowerInfo]{}, nil
	}
	return api.Paginated[follow.FollowerInfo]{Data: []follow.FollowerInfo{{ID: string(dir)}}}, nil
}

func (f *fakeAPI) Posts(_ context.Context, page, _ int, q post.Query) (api.Paginated[post.Post], error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.postsErr != nil {
		return api.Paginated[post.Post]{}, f.postsErr
	}
	if page > 1 {
		return api.Paginated[post.Post]{}, nil
	}
	return api.Paginated[post.Post]{Data: f.posts}, nil
}

func (f *fakeAPI) SavedPosts(context.Context, string, int, int) (api.Paginated[post.Post], error) {
	return api.Paginated[post.Post]{Data: f.saved}, nil
}

func (f *fakeAPI) Post(_ context.Context, id string) (post.Post, error) {
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return post.Post{}, &api.Error{Kind: api.KindAPI, Status: http.StatusNotFound, Message: "not found"}
}

func (f *fakeAPI) LikePost(context.Context, string) error   { f.call("like"); return f.likeErr }
func (f *fakeAPI) UnlikePost(context.Context, string) error { f.call("unlike"); return f.likeErr }
func (f *fakeAPI) SavePost(context.Context, string) error   { f.call("save"); return nil }
func (f *fakeAPI) UnsavePost(context.Context, string) error { f.call("unsave"); return nil }

func (f *fakeAPI) Comments(context.Context, string, int, int) (api.Paginated[comment.Comment], error) {
	return api.Paginated[comment.Comment]{Data: f.comments}, nil
}

func (f *fakeAPI) CreateComment(_ context.Context, _ string, req comment.CreateCommentRequest) (comment.Comment, error) {
	f.commented = append(f.commented, req.Content)
	c := comment.Comment{ID: "C" + req.Content, Content: req.Content}
	f.comments = append(f.comments, c)
	return c, nil
}

func (f *fakeAPI) Topics(context.Context) ([]post.Topic, error) { return f.topics, nil }

func (f *fakeAPI) UploadImage(_ context.Context, filename string, body io.Reader) (post.FileUpload, error) {
	b, _ := io.ReadAll(body)
	f.uploads = append(f.uploads, filename+":"+string(b))
	return post.FileUpload{Filename: filename, URL: "https://cdn/" + filename}, nil
}

func (f *fakeAPI) CreatePost(_ context.Context, req post.CreatePostRequest) (string, error) {
	f.created = &req
	return "P-NEW", nil
}

func (f *fakeAPI) ChatRooms(context.Context) ([]chatmodel.Room, error) { return f.rooms, nil }

func (f *fakeAPI) ChatRoom(context.Context, string) (chatmodel.Room, error) { return f.room, f.roomErr }

func (f *fakeAPI) ChatMessages(context.Context, string) ([]chatmodel.Message, error) { return nil, nil }

// fakeSocket records emitted events for chat rooms.
type fakeSocket struct {
	mu    sync.Mutex
	sent  []chatmodel.Payload
	other []websocket.EventName
}

func (f *fakeSocket) Emit(event websocket.EventName, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := payload.(chatmodel.Payload); ok && event == websocket.EventPrivateMessage {
		f.sent = append(f.sent, p)
		return
	}
	f.other = append(f.other, event)
}

func (f *fakeSocket) Subscribe(websocket.EventName, websocket.Handler) websocket.Subscription {
	return websocket.Subscription{}
}

func (f *fakeSocket) Unsubscribe(websocket.Subscription) {}

func (f *fakeSocket) last() chatmodel.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type identity struct{ u *user.User }

func (i identity) User() *user.User { return i.u }

func (f *fakeAPI) Notifications(context.Context, int, int) (api.Paginated[notification.Notification], error) {
	return api.Paginated[notification.Notification]{Data: f.notifications}, nil
}

func boolPtr(b bool) *bool { return &b }

func TestAppStartRoutesByToken(t *testing.T) {
	ch := &fakeChannel{}
	app := NewApp(newSession(t, ""), ch, nil)
	defer app.Close()
	assert.Equal(t, RouteLogin, app.Start(context.Background()))
	assert.Equal(t, 0, ch.connects)

	ch = &fakeChannel{}
	app = NewApp(newSession(t, "T1"), ch, nil)
	defer app.Close()
	assert.Equal(t, RouteMain, app.Start(context.Background()))
	assert.Equal(t, 1, ch.connects)
}

func TestAppLogout(t *testing.T) {
	ch := &fakeChannel{}
	sess := newSession(t, "T1")
	require.NoError(t, sess.SetUser(context.Background(), user.User{ID: "U1"}))
	app := NewApp(sess, ch, nil)
	defer app.Close()
	app.Start(context.Background())

	require.NoError(t, app.Logout(context.Background()))

	assert.Equal(t, RouteLogin, app.Route())
	assert.Equal(t, 1, ch.disconnects)
	assert.False(t, sess.LoggedIn())
	assert.Nil(t, sess.User())
}

func TestLoginFlow(t *testing.T) {
	ch, push := &fakeChannel{}, &fakePush{}
	sess := newSession(t, "")
	c := &fakeAPI{me: user.User{ID: "U1", Username: "alice"}}
	l := NewLogin(context.Background(), c, sess, push, ch, nil)
	defer l.Close()

	require.NoError(t, l.Login("alice", "secret"))

	st := l.State()
	assert.Equal(t, Success, st.Status)
	assert.Equal(t, "T-alice", st.Data)
	token, ok := sess.Token()
	assert.True(t, ok)
	assert.Equal(t, "T-alice", token)
	assert.Equal(t, "U1", sess.UserID())
	assert.Equal(t, 1, push.synced)
	assert.Equal(t, 1, ch.connects)
}

func TestLoginRejected(t *testing.T) {
	c := &fakeAPI{loginErr: &api.Error{Kind: api.KindAPI, Status: http.StatusUnauthorized, Message: "bad"}}
	ch := &fakeChannel{}
	l := NewLogin(context.Background(), c, newSession(t, ""), nil, ch, nil)
	defer l.Close()

	err := l.Login("alice", "wrong")

	assert.ErrorIs(t, err, ErrInvalidLogin)
	assert.Equal(t, Error, l.State().Status)
	assert.Equal(t, "Invalid username or password", l.State().Message())
	assert.Equal(t, 0, ch.connects)
}

func TestLoginNetworkErrorIsRetryable(t *testing.T) {
	c := &fakeAPI{loginErr: &api.Error{Kind: api.KindNetwork, Err: errors.New("dial tcp")}}
	l := NewLogin(context.Background(), c, newSession(t, ""), nil, &fakeChannel{}, nil)
	defer l.Close()

	require.Error(t, l.Login("alice", "pw"))
	assert.True(t, l.State().Retryable())
	assert.Equal(t, "Network Error: Please check your connection", l.State().Message())
}

func TestLoginValidation(t *testing.T) {
	l := NewLogin(context.Background(), &fakeAPI{}, newSession(t, ""), nil, &fakeChannel{}, nil)
	defer l.Close()
	assert.ErrorIs(t, l.Login("", ""), user.ErrCredentials)
}

func TestRegister(t *testing.T) {
	r := NewRegister(context.Background(), &fakeAPI{}, nil)
	defer r.Close()

	err := r.Register(user.RegisterRequest{Username: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "B", Password: "123"})
	assert.ErrorIs(t, err, user.ErrPasswordTooShort)

	require.NoError(t, r.Register(user.RegisterRequest{Username: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "B", Password: "123456"}))
	assert.Equal(t, "bob", r.State().Data.Username)
}

func TestFeedOptimisticLike(t *testing.T) {
	c := &fakeAPI{posts: []post.Post{{ID: "P1", LikedCount: 2, HasLiked: boolPtr(false)}, {ID: "P2"}}}
	f := NewFeed(context.Background(), c, post.Query{}, 20, nil)
	defer f.Close()

	require.NoError(t, f.Refresh())
	require.Len(t, f.State().Data, 2)

	require.True(t, f.ToggleLike("P1"))
	assert.True(t, f.State().Data[0].Liked(), "visible before the server answers")
	assert.Equal(t, 3, f.State().Data[0].LikedCount)
	f.Settle()

	assert.False(t, f.ToggleLike("missing"))
	assert.Equal(t, []string{"like"}, c.calls)
}

func TestFeedLikeRevertsOnFailure(t *testing.T) {
	c := &fakeAPI{posts: []post.Post{{ID: "P1", LikedCount: 2}}, likeErr: errors.New("offline")}
	f := NewFeed(context.Background(), c, post.Query{}, 20, nil)
	defer f.Close()
	require.NoError(t, f.Refresh())

	f.ToggleLike("P1")
	f.Settle()

	assert.False(t, f.State().Data[0].Liked())
	assert.Equal(t, 2, f.State().Data[0].LikedCount)
}

func TestFeedStateMatchesPagesAfterConcurrentUpdates(t *testing.T) {
	posts := make([]post.Post, 20)
	for i := range posts {
		posts[i] = post.Post{ID: fmt.Sprintf("P%d", i), LikedCount: 1}
	}
	c := &fakeAPI{posts: posts, likeErr: errors.New("offline")}
	f := NewFeed(context.Background(), c, post.Query{}, 20, nil)
	defer f.Close()
	require.NoError(t, f.Refresh())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, p := range posts {
			f.ToggleLike(p.ID)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			assert.NoError(t, f.Refresh())
		}
	}()
	wg.Wait()
	f.Settle()

	st := f.State()
	assert.Equal(t, Success, st.Status)
	assert.Equal(t, f.rec.RenderAll(f.currentPager().Items()), st.Data)
	assert.Equal(t, posts, st.Data, "every failed like is reverted")
}

func TestFeedErrorKeepsItems(t *testing.T) {
	c := &fakeAPI{posts: []post.Post{{ID: "P1"}}}
	f := NewFeed(context.Background(), c, post.Query{}, 20, nil)
	defer f.Close()
	require.NoError(t, f.Refresh())

	c.postsErr = &api.Error{Kind: api.KindAPI, Status: 503, Message: "down"}
	require.Error(t, f.Refresh())

	st := f.State()
	assert.Equal(t, Error, st.Status)
	assert.True(t, st.Retryable())
	assert.Len(t, st.Data, 1)
}

func TestFeedSetQuery(t *testing.T) {
	c := &fakeAPI{posts: []post.Post{{ID: "P1"}}}
	f := NewFeed(context.Background(), c, post.Query{}, 20, nil)
	defer f.Close()

	require.NoError(t, f.SetQuery(post.Query{TopicID: "music"}))

	assert.Equal(t, "music", c.queries[len(c.queries)-1].TopicID)
}

func TestSearchDebouncesAndResets(t *testing.T) {
	c := &fakeAPI{posts: []post.Post{{ID: "P1"}}}
	s := NewSearch(context.Background(), c, nil)
	s.debounce = 20 * time.Millisecond
	defer s.Close()

	s.OnQueryChanged("g")
	s.OnQueryChanged("go")
	s.Wait()

	require.Len(t, c.queries, 1, "earlier keystroke was superseded")
	assert.Equal(t, "go", c.queries[0].Search)
	assert.Equal(t, Success, s.State().Status)

	s.OnQueryChanged("   ")
	s.Wait()
	assert.Equal(t, Idle, s.State().Status)
}

func TestPostDetails(t *testing.T) {
	c := &fakeAPI{
		posts:    []post.Post{{ID: "P1", LikedCount: 1, HasSaved: boolPtr(true)}},
		comments: []comment.Comment{{ID: "C1"}},
	}
	d := NewPostDetails(context.Background(), c, "P1", nil)
	defer d.Close()

	require.NoError(t, d.Load())
	assert.Len(t, d.State().Data.Comments, 1)

	require.NoError(t, d.Comment("nice"))
	assert.Len(t, d.State().Data.Comments, 2)
	assert.Error(t, d.Comment("   "))

	require.NoError(t, d.ToggleLike())
	require.NoError(t, d.ToggleSave())
	p := d.State().Data.Post
	assert.True(t, p.Liked())
	assert.Equal(t, 2, p.LikedCount)
	assert.False(t, p.Saved())
	assert.Equal(t, []string{"like", "unsave"}, c.calls)
}

func TestPostDetailsLikeFailureLeavesPost(t *testing.T) {
	c := &fakeAPI{posts: []post.Post{{ID: "P1", LikedCount: 1}}, likeErr: errors.New("offline")}
	d := NewPostDetails(context.Background(), c, "P1", nil)
	defer d.Close()
	require.NoError(t, d.Load())

	assert.Error(t, d.ToggleLike())
	assert.False(t, d.State().Data.Post.Liked())
	assert.Equal(t, 1, d.State().Data.Post.LikedCount)
}

func TestCreatePostUploadsImageFirst(t *testing.T) {
	c := &fakeAPI{topics: []post.Topic{{ID: "T1"}, {ID: "T2"}}}
	cp := NewCreatePost(context.Background(), c, nil)
	defer cp.Close()

	require.NoError(t, cp.LoadTopics())
	assert.Equal(t, "T1", cp.State().Data.Selected.ID)
	assert.True(t, cp.SelectTopic("T2"))

	err := cp.Create("hello", "T2", &Upload{Filename: "a.png", Body: strings.NewReader("img")})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.png:img"}, c.uploads)
	require.NotNil(t, c.created)
	assert.Equal(t, "https://cdn/a.png", *c.created.Image)
	assert.Equal(t, "T2", c.created.TopicID)
	assert.Equal(t, "P-NEW", cp.State().Data.PostID)
}

func TestCreatePostValidation(t *testing.T) {
	cp := NewCreatePost(context.Background(), &fakeAPI{}, nil)
	defer cp.Close()

	assert.ErrorIs(t, cp.Create("  ", "T1", nil), post.ErrEmptyContent)
	assert.ErrorIs(t, cp.Create("hi", "", nil), post.ErrTopicRequired)
}

func TestProfileFiltersByAuthor(t *testing.T) {
	me := user.User{ID: "U1"}
	c := &fakeAPI{
		me:    me,
		posts: []post.Post{{ID: "P1", Author: me}, {ID: "P2", Author: user.User{ID: "U2"}}},
		saved: []post.Post{{ID: "P3"}},
	}
	sess := newSession(t, "T1")
	p := NewProfile(context.Background(), c, sess, nil)
	defer p.Close()

	require.NoError(t, p.Load())

	st := p.State()
	require.Len(t, st.Data.Posts, 1)
	assert.Equal(t, "P1", st.Data.Posts[0].ID)
	assert.Len(t, st.Data.Saved, 1)
	assert.Equal(t, "U1", c.queries[0].UserID)
	assert.Equal(t, "U1", sess.UserID())
}

func TestEditProfileSavesChangedFields(t *testing.T) {
	c := &fakeAPI{me: user.User{ID: "U1", Username: "alice", FirstName: "Alice", LastName: "A"}}
	sess := newSession(t, "T1")
	e := NewEditProfile(context.Background(), c, sess, nil)
	defer e.Close()
	require.NoError(t, e.Load())

	form := e.Form()
	form.FirstName = "Alicia"
	form.Avatar = &Upload{Filename: "me.jpg", Body: strings.NewReader("x")}
	require.NoError(t, e.Save(form))

	require.NotNil(t, c.updated)
	assert.Equal(t, "Alicia", *c.updated.FirstName)
	assert.Nil(t, c.updated.LastName)
	assert.Equal(t, "https://cdn/me.jpg", *c.updated.Avatar)
	assert.True(t, e.State().Data.Saved)
	assert.Equal(t, "Alicia", sess.User().FirstName)
}

func TestEditProfileRejectsBadUsername(t *testing.T) {
	c := &fakeAPI{me: user.User{ID: "U1", Username: "alice", FirstName: "A", LastName: "B"}}
	e := NewEditProfile(context.Background(), c, newSession(t, "T1"), nil)
	defer e.Close()
	require.NoError(t, e.Load())

	form := e.Form()
	form.Username = "no spaces"
	assert.ErrorIs(t, e.Save(form), user.ErrUsernameFormat)
	assert.Nil(t, c.updated)
}

func TestOtherProfileToggleFollow(t *testing.T) {
	c := &fakeAPI{profiles: map[string]user.User{"U2": {ID: "U2"}}, posts: []post.Post{{ID: "P1", Author: user.User{ID: "U2"}}}}
	o := NewOtherProfile(context.Background(), c, "U2", nil)
	defer o.Close()

	require.NoError(t, o.Load())
	assert.False(t, o.State().Data.Following)
	assert.Len(t, o.State().Data.Posts, 1)

	require.NoError(t, o.ToggleFollow())
	require.NoError(t, o.ToggleFollow())
	assert.False(t, o.State().Data.Following)
	assert.Equal(t, []string{"follow", "unfollow"}, c.calls)
}

func TestOtherProfileMissingUser(t *testing.T) {
	o := NewOtherProfile(context.Background(), &fakeAPI{}, "nobody", nil)
	defer o.Close()

	require.Error(t, o.Load())
	assert.Equal(t, "API Error: 404 not found", o.State().Message())
}

func TestFollowPager(t *testing.T) {
	f := NewFollow(context.Background(), &fakeAPI{}, follow.Followers, "U1", 20, nil)
	defer f.Close()

	require.NoError(t, f.Refresh())
	more, err := f.LoadMore()
	require.NoError(t, err)
	assert.True(t, more)
	more, err = f.LoadMore()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, []follow.FollowerInfo{{ID: "followers"}}, f.State().Data)
}

func TestNotificationsAndChatList(t *testing.T) {
	c := &fakeAPI{
		notifications: []notification.Notification{{ID: "N1"}, {ID: "N2", IsRead: true}},
		rooms:         []chatmodel.Room{{ID: "R1"}},
	}
	n := NewNotifications(context.Background(), c, nil)
	defer n.Close()
	require.NoError(t, n.Load())
	assert.Equal(t, 1, n.Unread())

	l := NewChatList(context.Background(), c, nil)
	defer l.Close()
	require.NoError(t, l.Load())
	assert.Len(t, l.State().Data, 1)
}

func TestChatRoomSendPrefersCounterpart(t *testing.T) {
	sock := &fakeSocket{}
	me := identity{&user.User{ID: "U1", Username: "alice"}}

	c := &fakeAPI{room: chatmodel.Room{ID: "R1", Messager: chatmodel.Messager{ID: "U2", Username: "bob"}}}
	r := NewChatRoom(context.Background(), "R1", sock, c, me, nil)
	defer r.Close()
	require.NoError(t, r.Open())

	require.NoError(t, r.Send("fallback", "hi"))
	assert.Equal(t, "U2", sock.last().ReceiverID)
	assert.Equal(t, "R1", sock.last().RoomID)
}

func TestChatRoomSendFallsBackWithoutRoom(t *testing.T) {
	sock := &fakeSocket{}
	me := identity{&user.User{ID: "U1", Username: "alice"}}

	r := NewChatRoom(context.Background(), "R2", sock, &fakeAPI{roomErr: errors.New("404")}, me, nil)
	defer r.Close()
	require.NoError(t, r.Open())
	require.Nil(t, r.State().Room)

	require.NoError(t, r.Send("fallback", "hi"))
	assert.Equal(t, "fallback", sock.last().ReceiverID)
	require.Len(t, r.State().Messages, 1)
	assert.True(t, r.State().Messages[0].Pending)
}

func TestSettingsTheme(t *testing.T) {
	sess := newSession(t, "T1")
	app := NewApp(sess, &fakeChannel{}, nil)
	defer app.Close()
	s := NewSettings(sess, app)

	var seen []session.Theme
	cancel := s.SubscribeTheme(func(th session.Theme) { seen = append(seen, th) })
	defer cancel()

	require.NoError(t, s.SetTheme(context.Background(), session.ThemeDark))
	assert.Equal(t, session.ThemeDark, s.Theme())
	assert.Equal(t, []session.Theme{session.ThemeDark}, seen)

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, RouteLogin, app.Route())
	assert.Equal(t, session.ThemeDark, sess.Theme(), "theme survives logout")
}
