package feed

import (
	"context"
	"maps"
	"sync"
	"time"

	"spark-client/pkg/metrics"
	"spark-client/pkg/models/post"
	"spark-client/pkg/observe"

	"go.uber.org/zap"
)

type API interface {
	LikePost(ctx context.Context, postID string) error
	UnlikePost(ctx context.Context, postID string) error
	SavePost(ctx context.Context, postID string) error
	UnsavePost(ctx context.Context, postID string) error
}

// Overlay holds the locally toggled values of one post. Nil fields defer to
// the server copy.
type Overlay struct {
	HasLiked   *bool
	LikedCount *int
	HasSaved   *bool
}

type entry struct {
	overlay   Overlay
	likeGen   uint64
	saveGen   uint64
	inflight  int
	settledAt time.Time
}

// Reconciler applies like and save toggles optimistically and rolls them back
// when the server call fails. There is no retry.
type Reconciler struct {
	api API
	log *zap.Logger
	now func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	entries  map[string]*entry
	gen      uint64
	overlays *observe.Value[map[string]Overlay]
}

func New(api API, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		api:      api,
		log:      log.Named("feed"),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]*entry),
		overlays: observe.NewValue(map[string]Overlay{}),
	}
}

// ToggleLike flips the liked flag of p as currently rendered and adjusts the
// counter, then calls like or unlike in the background.
func (r *Reconciler) ToggleLike(p post.Post) {
	r.mu.Lock()
	shown := r.render(p)
	e := r.entry(p.ID)
	prevLiked, prevCount := e.overlay.HasLiked, e.overlay.LikedCount

	liked := !shown.Liked()
	count := shown.LikedCount + 1
	if !liked {
		count = max(shown.LikedCount-1, 0)
	}
	e.overlay.HasLiked = &liked
	e.overlay.LikedCount = &count
	r.gen++
	e.likeGen = r.gen
	gen := r.gen
	e.inflight++
	r.mu.Unlock()

	r.publish()

	call := r.api.LikePost
	if !liked {
		call = r.api.UnlikePost
	}
	r.run(p.ID, "like", call, func(e *entry) bool {
		if e.likeGen != gen {
			return false
		}
		e.overlay.HasLiked, e.overlay.LikedCount = prevLiked, prevCount
		return true
	})
}

// ToggleSave flips the saved flag of p as currently rendered.
func (r *Reconciler) ToggleSave(p post.Post) {
	r.mu.Lock()
	shown := r.render(p)
	e := r.entry(p.ID)
	prevSaved := e.overlay.HasSaved

	saved := !shown.Saved()
	e.overlay.HasSaved = &saved
	r.gen++
	e.saveGen = r.gen
	gen := r.gen
	e.inflight++
	r.mu.Unlock()

	r.publish()

	call := r.api.SavePost
	if !saved {
		call = r.api.UnsavePost
	}
	r.run(p.ID, "save", call, func(e *entry) bool {
		if e.saveGen != gen {
			return false
		}
		e.overlay.HasSaved = prevSaved
		return true
	})
}

// run issues call and applies revert if it fails. revert reports whether it
// changed anything; a later toggle of the same field wins over an older failure.
func (r *Reconciler) run(postID, field string, call func(context.Context, string) error, revert func(*entry) bool) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		err := call(r.ctx, postID)

		r.mu.Lock()
		e := r.entry(postID)
		e.inflight--
		e.settledAt = r.now()
		reverted := false
		if err != nil {
			reverted = revert(e)
		}
		r.mu.Unlock()

		if err == nil {
			return
		}
		r.log.Warn("optimistic update failed",
			zap.String("post_id", postID), zap.String("field", field),
			zap.Bool("reverted", reverted), zap.Error(err))
		if reverted {
			metrics.OptimisticReverts.WithLabelValues(field).Inc()
			r.publish()
		}
	}()
}

// Reconcile is called with a freshly fetched page. Entries for those posts
// that have no call in flight and settled before the fetch started are
// dropped so the server copy shows through.
func (r *Reconciler) Reconcile(posts []post.Post, fetchStartedAt time.Time) {
	r.mu.Lock()
	changed := false
	for _, p := range posts {
		e, ok := r.entries[p.ID]
		if !ok || e.inflight > 0 || !e.settledAt.Before(fetchStartedAt) {
			continue
		}
		delete(r.entries, p.ID)
		changed = true
	}
	r.mu.Unlock()

	if changed {
		r.publish()
	}
}

// Render returns p with any overlay fields substituted.
func (r *Reconciler) Render(p post.Post) post.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.render(p)
}

func (r *Reconciler) RenderAll(posts []post.Post) []post.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]post.Post, len(posts))
	for i, p := range posts {
		out[i] = r.render(p)
	}
	return out
}

func (r *Reconciler) render(p post.Post) post.Post {
	e, ok := r.entries[p.ID]
	if !ok {
		return p
	}
	return Apply(p, e.overlay)
}

// Apply substitutes the non-nil fields of o into p.
func Apply(p post.Post, o Overlay) post.Post {
	if o.HasLiked != nil {
		v := *o.HasLiked
		p.HasLiked = &v
	}
	if o.LikedCount != nil {
		p.LikedCount = *o.LikedCount
	}
	if o.HasSaved != nil {
		v := *o.HasSaved
		p.HasSaved = &v
	}
	return p
}

func (r *Reconciler) entry(postID string) *entry {
	e, ok := r.entries[postID]
	if !ok {
		e = &entry{}
		r.entries[postID] = e
	}
	return e
}

func (r *Reconciler) snapshot() map[string]Overlay {
	out := make(map[string]Overlay, len(r.entries))
	for id, e := range r.entries {
		out[id] = e.overlay
	}
	return out
}

// publish takes the snapshot inside the observable's update so concurrent
// publishers cannot leave an older map behind a newer one.
func (r *Reconciler) publish() {
	r.overlays.Update(func(map[string]Overlay) map[string]Overlay {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.snapshot()
	})
}

// Overlays returns a copy of the current overlay map.
func (r *Reconciler) Overlays() map[string]Overlay {
	return maps.Clone(r.overlays.Get())
}

// Subscribe calls fn with the overlay map after every change.
func (r *Reconciler) Subscribe(fn func(map[string]Overlay)) (cancel func()) {
	return r.overlays.Subscribe(fn)
}

// Wait blocks until every in-flight call has settled.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// Close cancels in-flight calls and waits for them. Cancelled calls revert
// like any other failure.
func (r *Reconciler) Close() {
	r.cancel()
	r.wg.Wait()
}
