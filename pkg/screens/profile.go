package screens

import (
	"context"
	"fmt"
	"io"

	"spark-client/pkg/models/follow"
	"spark-client/pkg/models/post"
	"spark-client/pkg/models/user"
	"spark-client/pkg/paging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const profilePostLimit = 50

type ProfileAPI interface {
	MyProfile(ctx context.Context) (user.User, error)
	paging.PostsAPI
	paging.SavedPostsAPI
}

type ProfileData struct {
	User  user.User
	Posts []post.Post
	Saved []post.Post
}

// Profile is the signed-in user's own page.
type Profile struct {
	holder[ProfileData]
	api     ProfileAPI
	session Session
}

func NewProfile(parent context.Context, c ProfileAPI, sess Session, log *zap.Logger) *Profile {
	p := &Profile{api: c, session: sess}
	p.init(parent, log, "profile")
	return p
}

// Load fetches the profile, then the user's posts and saved posts. The post
// lists are optional; only the profile failing fails the screen.
func (p *Profile) Load() error {
	p.loading()
	me, err := p.api.MyProfile(p.ctx)
	if err != nil {
		return p.fail(err)
	}
	if err := p.session.SetUser(p.ctx, me); err != nil {
		p.log.Warn("profile not persisted", zap.Error(err))
	}

	data := ProfileData{User: me}
	var g errgroup.Group
	g.Go(func() error {
		res, err := p.api.Posts(p.ctx, paging.StartingPage, profilePostLimit, post.Query{UserID: me.ID})
		if err != nil {
			p.log.Warn("failed to load own posts", zap.Error(err))
			return nil
		}
		data.Posts = byAuthor(res.Data, me.ID)
		return nil
	})
	g.Go(func() error {
		res, err := p.api.SavedPosts(p.ctx, me.ID, paging.StartingPage, profilePostLimit)
		if err != nil {
			p.log.Warn("failed to load saved posts", zap.Error(err))
			return nil
		}
		data.Saved = res.Data
		return nil
	})
	g.Wait()

	p.succeed(data)
	return nil
}

// byAuthor keeps posts written by userID, for servers that ignore the filter.
func byAuthor(posts []post.Post, userID string) []post.Post {
	out := posts[:0:0]
	for _, p := range posts {
		if p.Author.ID == userID {
			out = append(out, p)
		}
	}
	return out
}

type EditProfileAPI interface {
	MyProfile(ctx context.Context) (user.User, error)
	UpdateProfile(ctx context.Context, req user.UpdateRequest) (user.User, error)
	UploadImage(ctx context.Context, filename string, body io.Reader) (post.FileUpload, error)
}

// ProfileForm is what the edit screen holds while the user types.
type ProfileForm struct {
	FirstName string
	LastName  string
	Username  string
	Bio       string
	Website   string
	Avatar    *Upload
	Cover     *Upload
}

type EditProfileData struct {
	Current user.User
	Saved   bool
}

type EditProfile struct {
	holder[EditProfileData]
	api     EditProfileAPI
	session Session
}

func NewEditProfile(parent context.Context, c EditProfileAPI, sess Session, log *zap.Logger) *EditProfile {
	e := &EditProfile{api: c, session: sess}
	e.init(parent, log, "edit_profile")
	return e
}

func (e *EditProfile) Load() error {
	e.loading()
	me, err := e.api.MyProfile(e.ctx)
	if err != nil {
		return e.fail(err)
	}
	e.succeed(EditProfileData{Current: me})
	return nil
}

// Form returns the current profile as an editable form.
func (e *EditProfile) Form() ProfileForm {
	u := e.State().Data.Current
	f := ProfileForm{FirstName: u.FirstName, LastName: u.LastName, Username: u.Username}
	if u.Bio != nil {
		f.Bio = *u.Bio
	}
	if u.WebsiteURL != nil {
		f.Website = *u.WebsiteURL
	}
	return f
}

// Save uploads any new images, sends the changed fields and stores the
// updated user in the session. Form input survives a failure.
func (e *EditProfile) Save(form ProfileForm) error {
	current := e.State().Data.Current
	req := user.Diff(current, form.FirstName, form.LastName, form.Username, form.Bio, form.Website)
	if err := req.Validate(); err != nil {
		return e.fail(err)
	}
	e.loading()

	if form.Avatar != nil {
		up, err := e.api.UploadImage(e.ctx, form.Avatar.Filename, form.Avatar.Body)
		if err != nil {
			return e.fail(fmt.Errorf("avatar upload failed: %w", err))
		}
		req.Avatar = &up.URL
	}
	if form.Cover != nil {
		up, err := e.api.UploadImage(e.ctx, form.Cover.Filename, form.Cover.Body)
		if err != nil {
			return e.fail(fmt.Errorf("cover upload failed: %w", err))
		}
		req.Cover = &up.URL
	}
	if req.IsEmpty() {
		e.succeed(EditProfileData{Current: current, Saved: true})
		return nil
	}

	updated, err := e.api.UpdateProfile(e.ctx, req)
	if err != nil {
		return e.fail(err)
	}
	if err := e.session.SetUser(e.ctx, updated); err != nil {
		e.log.Warn("profile not persisted", zap.Error(err))
	}
	e.succeed(EditProfileData{Current: updated, Saved: true})
	return nil
}

type OtherProfileAPI interface {
	Profile(ctx context.Context, userID string) (user.User, error)
	HasFollowed(ctx context.Context, userID string) (bool, error)
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	paging.PostsAPI
}

type OtherProfileData struct {
	User      user.User
	Posts     []post.Post
	Following bool
}

// OtherProfile shows someone else's page with a follow toggle.
type OtherProfile struct {
	holder[OtherProfileData]
	api    OtherProfileAPI
	userID string
}

func NewOtherProfile(parent context.Context, c OtherProfileAPI, userID string, log *zap.Logger) *OtherProfile {
	o := &OtherProfile{api: c, userID: userID}
	o.init(parent, log, "other_profile")
	return o
}

// Load fetches profile, follow status and posts together; any failure fails
// the screen.
func (o *OtherProfile) Load() error {
	o.loading()
	var data OtherProfileData
	g, ctx := errgroup.WithContext(o.ctx)
	g.Go(func() error {
		u, err := o.api.Profile(ctx, o.userID)
		data.User = u
		return err
	})
	g.Go(func() error {
		f, err := o.api.HasFollowed(ctx, o.userID)
		data.Following = f
		return err
	})
	g.Go(func() error {
		res, err := o.api.Posts(ctx, paging.StartingPage, profilePostLimit, post.Query{UserID: o.userID})
		data.Posts = byAuthor(res.Data, o.userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return o.fail(err)
	}
	o.succeed(data)
	return nil
}

// ToggleFollow follows or unfollows and flips the flag once the server agrees.
func (o *OtherProfile) ToggleFollow() error {
	st := o.State()
	if st.Status != Success {
		return nil
	}
	call := o.api.Follow
	if st.Data.Following {
		call = o.api.Unfollow
	}
	if err := call(o.ctx, o.userID); err != nil {
		o.log.Warn("follow toggle failed", zap.Error(err))
		return err
	}
	o.state.Update(func(cur UIState[OtherProfileData]) UIState[OtherProfileData] {
		cur.Data.Following = !cur.Data.Following
		return cur
	})
	return nil
}

// Follow pages through followers or followings of a user.
type Follow struct {
	holder[[]follow.FollowerInfo]
	pager *paging.Pager[follow.FollowerInfo]
}

func NewFollow(parent context.Context, c paging.FollowAPI, dir follow.Direction, userID string, pageSize int, log *zap.Logger) *Follow {
	f := &Follow{pager: paging.NewPager(paging.Follows(c, dir, userID), pageSize)}
	f.init(parent, log, "follow")
	return f
}

func (f *Follow) Refresh() error {
	f.loading()
	if err := f.pager.Refresh(f.ctx, nil); err != nil {
		return f.fail(err)
	}
	f.succeed(f.pager.Items())
	return nil
}

func (f *Follow) LoadMore() (bool, error) {
	more, err := f.pager.LoadNext(f.ctx)
	if err != nil {
		return false, f.fail(err)
	}
	f.succeed(f.pager.Items())
	return more, nil
}
