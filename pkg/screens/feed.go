package screens

import (
	"context"
	"sync"
	"time"

	"spark-client/pkg/feed"
	"spark-client/pkg/models/post"
	"spark-client/pkg/paging"

	"go.uber.org/zap"
)

type FeedAPI interface {
	paging.PostsAPI
	feed.API
}

// Feed is the paged post list with optimistic like and save.
type Feed struct {
	holder[[]post.Post]
	api      FeedAPI
	pageSize int
	rec      *feed.Reconciler
	now      func() time.Time

	mu            sync.Mutex
	pager         *paging.Pager[post.Post]
	cancelOverlay func()
}

func NewFeed(parent context.Context, c FeedAPI, q post.Query, pageSize int, log *zap.Logger) *Feed {
	f := &Feed{api: c, pageSize: pageSize, now: time.Now}
	f.init(parent, log, "feed")
	f.rec = feed.New(c, log)
	f.pager = paging.NewPager(paging.Posts(c, q), pageSize)
	f.cancelOverlay = f.rec.Subscribe(func(map[string]feed.Overlay) { f.render() })
	return f
}

// SetQuery switches the list to a new search text or topic and reloads it.
func (f *Feed) SetQuery(q post.Query) error {
	f.mu.Lock()
	f.pager = paging.NewPager(paging.Posts(f.api, q), f.pageSize)
	f.mu.Unlock()
	return f.Refresh()
}

// Refresh reloads around the last anchor. Overlay entries that the new page
// has caught up with are dropped.
func (f *Feed) Refresh() error {
	f.loading()
	pager := f.currentPager()
	started := f.now()
	if err := pager.Refresh(f.ctx, nil); err != nil {
		return f.fail(err)
	}
	f.rec.Reconcile(pager.Items(), started)
	f.show(Success)
	return nil
}

// LoadMore appends the next page. It reports false at the end of the list.
func (f *Feed) LoadMore() (bool, error) {
	pager := f.currentPager()
	started := f.now()
	more, err := pager.LoadNext(f.ctx)
	if err != nil {
		return false, f.fail(err)
	}
	f.rec.Reconcile(pager.Items(), started)
	f.show(Success)
	return more, nil
}

// SetAnchor records the position the user scrolled to.
func (f *Feed) SetAnchor(pos int) { f.currentPager().SetAnchor(pos) }

func (f *Feed) ToggleLike(postID string) bool {
	p, ok := f.find(postID)
	if ok {
		f.rec.ToggleLike(p)
	}
	return ok
}

func (f *Feed) ToggleSave(postID string) bool {
	p, ok := f.find(postID)
	if ok {
		f.rec.ToggleSave(p)
	}
	return ok
}

// Settle waits for in-flight like and save calls.
func (f *Feed) Settle() { f.rec.Wait() }

func (f *Feed) find(postID string) (post.Post, bool) {
	for _, p := range f.currentPager().Items() {
		if p.ID == postID {
			return p, true
		}
	}
	return post.Post{}, false
}

// render re-applies overlays without touching the status.
func (f *Feed) render() {
	f.state.Update(func(cur UIState[[]post.Post]) UIState[[]post.Post] {
		cur.Data = f.rec.RenderAll(f.currentPager().Items())
		return cur
	})
}

// show publishes the current pages with overlays under status. Items are read
// inside the update so a render racing a load cannot restore older pages.
func (f *Feed) show(status Status) {
	f.state.Update(func(UIState[[]post.Post]) UIState[[]post.Post] {
		return UIState[[]post.Post]{Status: status, Data: f.rec.RenderAll(f.currentPager().Items())}
	})
}

func (f *Feed) currentPager() *paging.Pager[post.Post] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pager
}

func (f *Feed) Close() {
	f.cancelOverlay()
	f.rec.Close()
	f.scope.Close()
}
