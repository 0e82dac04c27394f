package paging

import (
	"context"
	"slices"
	"sync"

	"spark-client/pkg/observe"
)

// Pager keeps the pages loaded so far for one list. Pages are held in key
// order whatever order their loads complete in.
type Pager[T any] struct {
	source   *Source[T]
	pageSize int

	mu      sync.Mutex
	pages   []Page[T]
	anchor  *int
	gen     uint64
	loading map[int]bool

	items *observe.Value[[]T]
}

func NewPager[T any](source *Source[T], pageSize int) *Pager[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager[T]{
		source:   source,
		pageSize: pageSize,
		loading:  make(map[int]bool),
		items:    observe.NewValue[[]T](nil),
	}
}

// Refresh drops every loaded page and reloads the page nearest anchor.
// Loads started before the refresh are discarded when they complete.
func (p *Pager[T]) Refresh(ctx context.Context, anchor *int) error {
	p.mu.Lock()
	if anchor != nil {
		p.anchor = intPtr(*anchor)
	}
	key := RefreshKey(State[T]{Pages: p.pages, AnchorPosition: p.anchor})
	p.gen++
	gen := p.gen
	p.loading = make(map[int]bool)
	p.mu.Unlock()

	page, err := p.source.Load(ctx, LoadParams{Key: &key, LoadSize: p.pageSize})
	if err != nil {
		return err
	}

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return nil
	}
	p.pages = []Page[T]{page}
	items := p.flatten()
	p.mu.Unlock()

	p.items.Set(items)
	return nil
}

// LoadNext appends the page after the last loaded one. It returns false when
// the end of the list was reached or that page is already loading.
func (p *Pager[T]) LoadNext(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if len(p.pages) == 0 {
		p.mu.Unlock()
		return true, p.Refresh(ctx, nil)
	}
	next := p.pages[len(p.pages)-1].NextKey
	p.mu.Unlock()
	if next == nil {
		return false, nil
	}
	return p.load(ctx, *next)
}

// LoadPrev prepends the page before the first loaded one.
func (p *Pager[T]) LoadPrev(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if len(p.pages) == 0 {
		p.mu.Unlock()
		return false, nil
	}
	prev := p.pages[0].PrevKey
	p.mu.Unlock()
	if prev == nil {
		return false, nil
	}
	return p.load(ctx, *prev)
}

func (p *Pager[T]) load(ctx context.Context, key int) (bool, error) {
	p.mu.Lock()
	if p.loading[key] {
		p.mu.Unlock()
		return false, nil
	}
	p.loading[key] = true
	gen := p.gen
	p.mu.Unlock()

	page, err := p.source.Load(ctx, LoadParams{Key: &key, LoadSize: p.pageSize})

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return false, err
	}
	delete(p.loading, key)
	if err != nil {
		p.mu.Unlock()
		return false, err
	}
	p.insert(page)
	items := p.flatten()
	p.mu.Unlock()

	p.items.Set(items)
	return true, nil
}

func (p *Pager[T]) insert(page Page[T]) {
	i, found := slices.BinarySearchFunc(p.pages, page.Key, func(e Page[T], key int) int {
		return e.Key - key
	})
	if found {
		p.pages[i] = page
		return
	}
	p.pages = slices.Insert(p.pages, i, page)
}

func (p *Pager[T]) flatten() []T {
	var out []T
	for _, pg := range p.pages {
		out = append(out, pg.Items...)
	}
	return out
}

// SetAnchor records the position the user is looking at.
func (p *Pager[T]) SetAnchor(pos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anchor = intPtr(pos)
}

// Items returns every loaded item in page order.
func (p *Pager[T]) Items() []T {
	return p.items.Get()
}

// HasMore reports whether another page may follow the last loaded one.
func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages) == 0 || p.pages[len(p.pages)-1].NextKey != nil
}

func (p *Pager[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := State[T]{Pages: slices.Clone(p.pages)}
	if p.anchor != nil {
		st.AnchorPosition = intPtr(*p.anchor)
	}
	return st
}

// Subscribe calls fn with the flattened item list after every load.
func (p *Pager[T]) Subscribe(fn func([]T)) (cancel func()) {
	return p.items.Subscribe(fn)
}
