package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	mu   sync.Mutex
	rows []domain.FeedRow
	err  error
}

func (f *fakeFeed) set(rows []domain.FeedRow, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows, f.err = rows, err
}

func (f *fakeFeed) FetchProducts(context.Context) ([]domain.FeedRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, f.err
}

func row(category, title string, price int64) domain.FeedRow {
	return domain.FeedRow{Category: category, Product: domain.Product{Title: title, Description: "desc", Price: price}}
}

func drinks() []domain.FeedRow {
	return []domain.FeedRow{row("Drinks", "Tea", 150), row("Drinks", "Coffee", 200)}
}

func TestStore_ReloadDrinks(t *testing.T) {
	store := NewStore(&fakeFeed{rows: drinks()})
	require.NoError(t, store.Reload(context.Background()))

	assert.Equal(t, []string{"Drinks"}, store.Categories())

	p, err := store.ProductAt("Drinks", 0)
	require.NoError(t, err)
	assert.Equal(t, "Tea", p.Title)
}

func TestStore_CategoriesInFirstSeenOrder(t *testing.T) {
	store := NewStore(&fakeFeed{rows: []domain.FeedRow{
		row("Snacks", "Cookie", 50),
		row("Drinks", "Tea", 150),
		row("Snacks", "Chips", 70),
		row("drinks", "Lowercase", 1),
	}})
	require.NoError(t, store.Reload(context.Background()))

	assert.Equal(t, []string{"Snacks", "Drinks", "drinks"}, store.Categories())

	snacks, err := store.Category("Snacks")
	require.NoError(t, err)
	require.Len(t, snacks.Products, 2)
	assert.Equal(t, "Chips", snacks.Products[1].Title)
	assert.True(t, store.HasCategory("drinks"))
	assert.False(t, store.HasCategory("DRINKS"))
}

func TestStore_ProductAtNotFound(t *testing.T) {
	store := NewStore(&fakeFeed{rows: drinks()})

	_, err := store.ProductAt("Drinks", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound, "empty catalog before the first reload")

	require.NoError(t, store.Reload(context.Background()))

	for _, tc := range []struct {
		category string
		position int
	}{
		{"Drinks", 2},
		{"Drinks", 100},
		{"Drinks", -1},
		{"Food", 0},
	} {
		_, err := store.ProductAt(tc.category, tc.position)
		assert.ErrorIs(t, err, domain.ErrNotFound, "%s/%d", tc.category, tc.position)
	}
}

func TestStore_ReloadFailureKeepsCatalog(t *testing.T) {
	feed := &fakeFeed{rows: drinks()}
	store := NewStore(feed)
	require.NoError(t, store.Reload(context.Background()))

	feed.set(nil, fmt.Errorf("%w: boom", domain.ErrFeedUnavailable))
	err := store.Reload(context.Background())
	require.ErrorIs(t, err, domain.ErrFeedUnavailable)

	assert.Equal(t, []string{"Drinks"}, store.Categories())
}

func TestStore_ReloadReplacesWholeCatalog(t *testing.T) {
	feed := &fakeFeed{rows: drinks()}
	store := NewStore(feed)
	require.NoError(t, store.Reload(context.Background()))

	feed.set([]domain.FeedRow{row("Snacks", "Cookie", 50)}, nil)
	require.NoError(t, store.Reload(context.Background()))

	assert.Equal(t, []string{"Snacks"}, store.Categories())
	_, err := store.ProductAt("Drinks", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ResolveStaleReference(t *testing.T) {
	feed := &fakeFeed{rows: drinks()}
	store := NewStore(feed)
	require.NoError(t, store.Reload(context.Background()))

	category, err := store.Category("Drinks")
	require.NoError(t, err)
	assert.Equal(t, 0, category.Index)
	coffee := domain.SelectionReference{Action: domain.ActionView, Version: category.Version, Category: category.Index, Position: 1}

	p, err := store.Resolve(coffee)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", p.Title)

	t.Run("unchanged category keeps references valid", func(t *testing.T) {
		feed.set(append(drinks(), row("Snacks", "Cookie", 50)), nil)
		require.NoError(t, store.Reload(context.Background()))

		p, err := store.Resolve(coffee)
		require.NoError(t, err)
		assert.Equal(t, "Coffee", p.Title)
	})

	t.Run("reordered category invalidates references", func(t *testing.T) {
		feed.set([]domain.FeedRow{row("Drinks", "Coffee", 200), row("Drinks", "Tea", 150)}, nil)
		require.NoError(t, store.Reload(context.Background()))

		_, err := store.Resolve(coffee)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("shrunk category fails position lookup", func(t *testing.T) {
		feed.set([]domain.FeedRow{row("Drinks", "Tea", 150)}, nil)
		require.NoError(t, store.Reload(context.Background()))

		_, err := store.ProductAt("Drinks", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = store.Resolve(coffee)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("category moved to another index invalidates references", func(t *testing.T) {
		feed.set(append([]domain.FeedRow{row("Snacks", "Cookie", 50)}, drinks()...), nil)
		require.NoError(t, store.Reload(context.Background()))

		_, err := store.Resolve(coffee)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		moved, err := store.Category("Drinks")
		require.NoError(t, err)
		assert.Equal(t, 1, moved.Index)
		assert.Equal(t, category.Version, moved.Version, "content is unchanged")
	})

	t.Run("renamed category with equal products invalidates references", func(t *testing.T) {
		feed.set([]domain.FeedRow{row("Beverages", "Tea", 150), row("Beverages", "Coffee", 200)}, nil)
		require.NoError(t, store.Reload(context.Background()))

		_, err := store.Resolve(coffee)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := store.Resolve(domain.SelectionReference{Action: domain.ActionView, Version: category.Version, Category: 5})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// blockingFeed holds every fetch until release is closed.
type blockingFeed struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (f *blockingFeed) FetchProducts(context.Context) ([]domain.FeedRow, error) {
	if f.calls.Add(1) == 1 {
		close(f.entered)
	}
	<-f.release
	return drinks(), nil
}

func TestStore_ConcurrentReloadsShareOneFetch(t *testing.T) {
	feed := &blockingFeed{entered: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(feed)

	errs := make(chan error, 5)
	go func() { errs <- store.Reload(context.Background()) }()
	<-feed.entered

	for i := 0; i < 4; i++ {
		go func() { errs <- store.Reload(context.Background()) }()
	}
	time.Sleep(50 * time.Millisecond)
	close(feed.release)

	for i := 0; i < 5; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, int32(1), feed.calls.Load())
	assert.Equal(t, []string{"Drinks"}, store.Categories())

	require.NoError(t, store.Reload(context.Background()))
	assert.Equal(t, int32(2), feed.calls.Load(), "a later reload fetches again")
}

func TestStore_ReloadSurvivesCallerCancellation(t *testing.T) {
	feed := &blockingFeed{entered: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(feed)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- store.Reload(ctx) }()
	<-feed.entered
	cancel()

	second := make(chan error, 1)
	go func() { second <- store.Reload(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	close(feed.release)

	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.Equal(t, []string{"Drinks"}, store.Categories())
}

func TestStore_AllProducts(t *testing.T) {
	store := NewStore(&fakeFeed{rows: []domain.FeedRow{
		row("Drinks", "Tea", 150),
		row("Snacks", "Cookie", 50),
		row("Drinks", "Coffee", 200),
	}})
	require.NoError(t, store.Reload(context.Background()))

	collect := func() []string {
		var out []string
		for category, p := range store.AllProducts() {
			out = append(out, category+"/"+p.Title)
		}
		return out
	}

	want := []string{"Drinks/Tea", "Drinks/Coffee", "Snacks/Cookie"}
	assert.Equal(t, want, collect())
	assert.Equal(t, want, collect(), "sequence is restartable")

	var first string
	for _, p := range store.AllProducts() {
		first = p.Title
		break
	}
	assert.Equal(t, "Tea", first)
}

func TestStore_ReloadIsAtomicForReaders(t *testing.T) {
	generation := func(tag string) []domain.FeedRow {
		var rows []domain.FeedRow
		for _, c := range []string{"A", "B", "C", "D"} {
			for i := 0; i < 5; i++ {
				rows = append(rows, row(c, fmt.Sprintf("%s-%s-%d", tag, c, i), 1))
			}
		}
		return rows
	}

	feed := &fakeFeed{rows: generation("old")}
	store := NewStore(feed)
	require.NoError(t, store.Reload(context.Background()))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	mixed := make(chan string, 1)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				seen := map[string]bool{}
				for _, p := range store.AllProducts() {
					seen[strings.SplitN(p.Title, "-", 2)[0]] = true
				}
				if len(seen) > 1 {
					select {
					case mixed <- fmt.Sprint(seen):
					default:
					}
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		tag := "old"
		if i%2 == 0 {
			tag = "new"
		}
		feed.set(generation(tag), nil)
		require.NoError(t, store.Reload(context.Background()))
	}
	close(stop)
	wg.Wait()

	select {
	case m := <-mixed:
		t.Fatalf("reader observed a mixed catalog: %s", m)
	default:
	}
}

func TestStore_ReloadWrapsFeedError(t *testing.T) {
	store := NewStore(&fakeFeed{err: fmt.Errorf("%w: missing columns", domain.ErrFeedMalformed)})

	err := store.Reload(context.Background())
	assert.True(t, errors.Is(err, domain.ErrFeedMalformed))
	assert.Empty(t, store.Categories())
}
