package paging

import (
	"context"
	"fmt"
)

const (
	StartingPage    = 1
	DefaultPageSize = 20
)

// Page is one loaded page of a list. NextKey is nil when the page came back
// empty; PrevKey is nil on the first page.
type Page[T any] struct {
	Key     int
	Items   []T
	PrevKey *int
	NextKey *int
}

// LoadParams asks for one page. A nil Key means the first page.
type LoadParams struct {
	Key      *int
	LoadSize int
}

// FetchFunc fetches one page from the remote API.
type FetchFunc[T any] func(ctx context.Context, page, limit int) ([]T, error)

// Source turns a FetchFunc into keyed pages.
type Source[T any] struct {
	fetch FetchFunc[T]
}

func NewSource[T any](fetch FetchFunc[T]) *Source[T] {
	return &Source[T]{fetch: fetch}
}

// Load fetches the page named by params. Errors are returned as-is so the
// caller can render them as retryable.
func (s *Source[T]) Load(ctx context.Context, params LoadParams) (Page[T], error) {
	key := StartingPage
	if params.Key != nil {
		key = *params.Key
	}
	size := params.LoadSize
	if size <= 0 {
		size = DefaultPageSize
	}

	items, err := s.fetch(ctx, key, size)
	if err != nil {
		return Page[T]{}, fmt.Errorf("load page %d: %w", key, err)
	}
	return newPage(key, items), nil
}

func newPage[T any](key int, items []T) Page[T] {
	p := Page[T]{Key: key, Items: items}
	if key != StartingPage {
		p.PrevKey = intPtr(key - 1)
	}
	if len(items) > 0 {
		p.NextKey = intPtr(key + 1)
	}
	return p
}

// State is the loaded pages in key order plus the last position the user
// looked at, counted in items across all pages.
type State[T any] struct {
	Pages          []Page[T]
	AnchorPosition *int
}

// ClosestPageToPosition returns the page containing pos, or the nearest edge
// page when pos is out of range. It returns nil when nothing is loaded.
func (s State[T]) ClosestPageToPosition(pos int) *Page[T] {
	if len(s.Pages) == 0 {
		return nil
	}
	if pos < 0 {
		return &s.Pages[0]
	}
	offset := 0
	for i := range s.Pages {
		offset += len(s.Pages[i].Items)
		if pos < offset {
			return &s.Pages[i]
		}
	}
	return &s.Pages[len(s.Pages)-1]
}

// RefreshKey picks the page to reload so the user stays near the anchor.
func RefreshKey[T any](state State[T]) int {
	if state.AnchorPosition == nil {
		return StartingPage
	}
	page := state.ClosestPageToPosition(*state.AnchorPosition)
	switch {
	case page == nil:
		return StartingPage
	case page.PrevKey != nil:
		return *page.PrevKey + 1
	case page.NextKey != nil:
		return *page.NextKey - 1
	}
	return StartingPage
}

func intPtr(v int) *int { return &v }
