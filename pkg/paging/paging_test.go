package paging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"spark-client/pkg/api"
	"spark-client/pkg/models/follow"
	"spark-client/pkg/models/post"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numbers serves total items split into pages of limit, 1-based.
func numbers(total int) FetchFunc[int] {
	return func(_ context.Context, page, limit int) ([]int, error) {
		var out []int
		for i := (page - 1) * limit; i < page*limit && i < total; i++ {
			out = append(out, i)
		}
		return out, nil
	}
}

func TestLoadFirstPage(t *testing.T) {
	src := NewSource(numbers(5))

	page, err := src.Load(context.Background(), LoadParams{LoadSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Key)
	assert.Equal(t, []int{0, 1}, page.Items)
	assert.Nil(t, page.PrevKey)
	require.NotNil(t, page.NextKey)
	assert.Equal(t, 2, *page.NextKey)
}

func TestLoadEmptyPageEndsList(t *testing.T) {
	src := NewSource(numbers(4))
	key := 3

	page, err := src.Load(context.Background(), LoadParams{Key: &key, LoadSize: 2})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextKey)
	require.NotNil(t, page.PrevKey)
	assert.Equal(t, 2, *page.PrevKey)
}

func TestLoadReturnsFetchError(t *testing.T) {
	boom := &api.Error{Kind: api.KindNetwork, Message: "Network Error: Please check your connection"}
	src := NewSource(func(context.Context, int, int) ([]int, error) { return nil, boom })

	_, err := src.Load(context.Background(), LoadParams{})

	require.Error(t, err)
	assert.True(t, api.IsRetryable(err))
}

func TestRefreshKey(t *testing.T) {
	p1 := newPage(1, []int{0, 1})
	p2 := newPage(2, []int{2, 3})
	p3 := newPage(3, []int{})

	cases := []struct {
		name  string
		state State[int]
		want  int
	}{
		{"no anchor", State[int]{Pages: []Page[int]{p1, p2}}, 1},
		{"nothing loaded", State[int]{AnchorPosition: intPtr(3)}, 1},
		{"anchor on first page", State[int]{Pages: []Page[int]{p1, p2}, AnchorPosition: intPtr(1)}, 1},
		{"anchor on second page", State[int]{Pages: []Page[int]{p1, p2}, AnchorPosition: intPtr(3)}, 2},
		{"anchor past the end", State[int]{Pages: []Page[int]{p1, p2, p3}, AnchorPosition: intPtr(10)}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RefreshKey(tc.state))
		})
	}
}

func TestRefreshKeyFallsBackToNextKey(t *testing.T) {
	only := Page[int]{Key: 1, Items: []int{0}, NextKey: intPtr(2)}
	state := State[int]{Pages: []Page[int]{only}, AnchorPosition: intPtr(0)}
	assert.Equal(t, 1, RefreshKey(state))
}

func TestPagerLoadsUntilEmptyPage(t *testing.T) {
	pager := NewPager(NewSource(numbers(5)), 2)
	ctx := context.Background()

	require.NoError(t, pager.Refresh(ctx, nil))
	for {
		more, err := pager.LoadNext(ctx)
		require.NoError(t, err)
		if !more {
			break
		}
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, pager.Items())
	assert.False(t, pager.HasMore())
	assert.Len(t, pager.State().Pages, 4, "three data pages plus the empty terminator")
}

func TestPagerKeepsKeyOrderWhateverCompletionOrder(t *testing.T) {
	release := map[int]chan struct{}{2: make(chan struct{}), 3: make(chan struct{})}
	fetch := func(ctx context.Context, page, limit int) ([]int, error) {
		if ch, ok := release[page]; ok {
			<-ch
		}
		return numbers(100)(ctx, page, limit)
	}
	pager := NewPager(NewSource(fetch), 2)
	ctx := context.Background()
	require.NoError(t, pager.Refresh(ctx, nil))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); pager.load(ctx, 2) }()
	go func() { defer wg.Done(); pager.load(ctx, 3) }()
	close(release[3])
	close(release[2])
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, pager.Items())
}

func TestPagerRefreshUsesAnchor(t *testing.T) {
	var asked []int
	fetch := func(ctx context.Context, page, limit int) ([]int, error) {
		asked = append(asked, page)
		return numbers(10)(ctx, page, limit)
	}
	pager := NewPager(NewSource(fetch), 2)
	ctx := context.Background()
	require.NoError(t, pager.Refresh(ctx, nil))
	_, err := pager.LoadNext(ctx)
	require.NoError(t, err)

	require.NoError(t, pager.Refresh(ctx, intPtr(3)))

	assert.Equal(t, []int{1, 2, 2}, asked)
	assert.Equal(t, []int{2, 3}, pager.Items())
}

func TestPagerRefreshErrorKeepsPages(t *testing.T) {
	fail := false
	fetch := func(ctx context.Context, page, limit int) ([]int, error) {
		if fail {
			return nil, errors.New("offline")
		}
		return numbers(10)(ctx, page, limit)
	}
	pager := NewPager(NewSource(fetch), 2)
	require.NoError(t, pager.Refresh(context.Background(), nil))

	fail = true
	assert.Error(t, pager.Refresh(context.Background(), nil))
	assert.Equal(t, []int{0, 1}, pager.Items())
}

func TestPagerNotifiesSubscribers(t *testing.T) {
	pager := NewPager(NewSource(numbers(3)), 2)
	var seen [][]int
	cancel := pager.Subscribe(func(items []int) { seen = append(seen, items) })
	defer cancel()

	require.NoError(t, pager.Refresh(context.Background(), nil))
	_, err := pager.LoadNext(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0, 1}, {0, 1, 2}}, seen)
}

type fakeLists struct {
	query post.Query
	dir   follow.Direction
}

func (f *fakeLists) Posts(_ context.Context, page, limit int, q post.Query) (api.Paginated[post.Post], error) {
	f.query = q
	return api.Paginated[post.Post]{Data: []post.Post{{ID: "P1"}}}, nil
}

func (f *fakeLists) FollowList(_ context.Context, dir follow.Direction, userID string, page, limit int) (api.Paginated[follow.FollowerInfo], error) {
	f.dir = dir
	return api.Paginated[follow.FollowerInfo]{}, nil
}

func TestPostsSourceDropsBlankSearch(t *testing.T) {
	f := &fakeLists{}
	page, err := Posts(f, post.Query{Search: "   ", TopicID: "T1"}).Load(context.Background(), LoadParams{})
	require.NoError(t, err)

	assert.Equal(t, "", f.query.Search)
	assert.Equal(t, "T1", f.query.TopicID)
	assert.Len(t, page.Items, 1)
}

func TestFollowsSourcePassesDirection(t *testing.T) {
	f := &fakeLists{}
	page, err := Follows(f, follow.Followings, "U1").Load(context.Background(), LoadParams{})
	require.NoError(t, err)

	assert.Equal(t, follow.Followings, f.dir)
	assert.Nil(t, page.NextKey)
}
