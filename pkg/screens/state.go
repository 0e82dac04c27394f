package screens

import (
	"context"
	"errors"
	"io"
	"sync"

	"spark-client/pkg/api"
	"spark-client/pkg/observe"

	"go.uber.org/zap"
)

var ErrNotLoggedIn = errors.New("not logged in")

type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "idle"
}

// UIState is what a screen renders: where the last intent stands and its result.
type UIState[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Message is the user-facing text of Err.
func (s UIState[T]) Message() string {
	if errors.Is(s.Err, ErrInvalidLogin) {
		return "Invalid username or password"
	}
	return api.Message(s.Err)
}

// Retryable reports whether the error state should offer a retry.
func (s UIState[T]) Retryable() bool {
	return s.Status == Error && api.IsRetryable(s.Err)
}

// Upload is a local file picked for upload.
type Upload struct {
	Filename string
	Body     io.Reader
}

// scope bounds the work of one holder. Close cancels anything still running.
type scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *scope) init(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(parent)
}

// launch runs fn on the scope in the background.
func (s *scope) launch(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Wait blocks until background work has finished.
func (s *scope) Wait() { s.wg.Wait() }

func (s *scope) Close() {
	s.cancel()
	s.wg.Wait()
}

// holder is embedded by every screen with a single UIState.
type holder[T any] struct {
	scope
	log   *zap.Logger
	state *observe.Value[UIState[T]]
}

func (h *holder[T]) init(parent context.Context, log *zap.Logger, name string) {
	if log == nil {
		log = zap.NewNop()
	}
	h.scope.init(parent)
	h.log = log.Named(name)
	h.state = observe.NewValue(UIState[T]{})
}

func (h *holder[T]) State() UIState[T] {
	return h.state.Get()
}

func (h *holder[T]) Subscribe(fn func(UIState[T])) (cancel func()) {
	return h.state.Subscribe(fn)
}

func (h *holder[T]) loading() {
	h.state.Update(func(cur UIState[T]) UIState[T] {
		return UIState[T]{Status: Loading, Data: cur.Data}
	})
}

func (h *holder[T]) succeed(data T) {
	h.state.Set(UIState[T]{Status: Success, Data: data})
}

// fail keeps the last data so the screen can still show it behind the error.
// Cancellation from Close is not an error worth showing.
func (h *holder[T]) fail(err error) error {
	if errors.Is(err, context.Canceled) && h.ctx.Err() != nil {
		return err
	}
	h.log.Warn("request failed", zap.Error(err))
	h.state.Update(func(cur UIState[T]) UIState[T] {
		return UIState[T]{Status: Error, Data: cur.Data, Err: err}
	})
	return err
}
