package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"iter"
	"strconv"
	"sync/atomic"

	"storefront/bot/internal/domain"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// FeedSource yields the product rows of the remote sheet
type FeedSource interface {
	FetchProducts(ctx context.Context) ([]domain.FeedRow, error)
}

// snapshot is one immutable catalog load
type snapshot struct {
	names      []string
	categories map[string]*domain.Category
}

var emptySnapshot = &snapshot{categories: map[string]*domain.Category{}}

// Store holds the current catalog. Readers always see one complete load:
// Reload builds a new snapshot and publishes it with a single pointer swap.
type Store struct {
	feed    FeedSource
	current atomic.Pointer[snapshot]
	reloads singleflight.Group
}

func NewStore(feed FeedSource) *Store {
	s := &Store{feed: feed}
	s.current.Store(emptySnapshot)
	return s
}

// Reload replaces the catalog with a fresh load from the feed. On error the
// previous catalog stays in place. Callers arriving while a load is in
// flight share its result instead of fetching again.
func (s *Store) Reload(ctx context.Context) error {
	_, err, shared := s.reloads.Do("reload", func() (any, error) {
		// Detached so one caller giving up does not fail the others; the
		// feed client bounds the fetch with its own timeout.
		return nil, s.reload(context.WithoutCancel(ctx))
	})
	if shared {
		log.Debug("Catalog reload shared with a concurrent caller")
	}
	return err
}

func (s *Store) reload(ctx context.Context) error {
	rows, err := s.feed.FetchProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload catalog: %w", err)
	}

	next := build(rows)
	s.current.Store(next)

	log.Infof("✅ Catalog reloaded: %d categories, %d products", len(next.names), len(rows))
	return nil
}

func build(rows []domain.FeedRow) *snapshot {
	next := &snapshot{
		names:      make([]string, 0),
		categories: make(map[string]*domain.Category),
	}

	for _, row := range rows {
		category, ok := next.categories[row.Category]
		if !ok {
			category = &domain.Category{Name: row.Category, Index: len(next.names)}
			next.categories[row.Category] = category
			next.names = append(next.names, row.Category)
		}
		category.Products = append(category.Products, row.Product)
	}

	for _, category := range next.categories {
		category.Version = version(category.Name, category.Products)
	}

	return next
}

// version fingerprints the category name and its ordered product list so a
// reference can tell whether the index and positions it was built against
// still hold.
func version(name string, products []domain.Product) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte{2})
	for _, p := range products {
		h.Write([]byte(p.Title))
		h.Write([]byte{0})
		h.Write([]byte(p.Description))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(p.Price, 10)))
		h.Write([]byte{0})
		h.Write([]byte(p.Photo))
		h.Write([]byte{1})
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

// Categories returns category names in feed order
func (s *Store) Categories() []string {
	names := s.current.Load().names
	out := make([]string, len(names))
	copy(out, names)
	return out
}

func (s *Store) HasCategory(name string) bool {
	_, ok := s.current.Load().categories[name]
	return ok
}

// Category returns a copy of the named category
func (s *Store) Category(name string) (domain.Category, error) {
	category, ok := s.current.Load().categories[name]
	if !ok {
		return domain.Category{}, fmt.Errorf("%w: category %q", domain.ErrNotFound, name)
	}

	out := *category
	out.Products = make([]domain.Product, len(category.Products))
	copy(out.Products, category.Products)
	return out, nil
}

func (s *Store) ProductAt(category string, position int) (domain.Product, error) {
	return s.current.Load().productAt(category, position)
}

// Resolve looks up a selection, rejecting it when the category at that index
// is not the one the reference was issued for.
func (s *Store) Resolve(ref domain.SelectionReference) (domain.Product, error) {
	snap := s.current.Load()

	if ref.Category < 0 || ref.Category >= len(snap.names) {
		return domain.Product{}, fmt.Errorf("%w: category index %d", domain.ErrNotFound, ref.Category)
	}

	category := snap.categories[snap.names[ref.Category]]
	if category.Version != ref.Version {
		return domain.Product{}, fmt.Errorf("%w: category %q changed (version %s, reference %s)",
			domain.ErrNotFound, category.Name, category.Version, ref.Version)
	}

	return snap.productAt(category.Name, ref.Position)
}

func (snap *snapshot) productAt(category string, position int) (domain.Product, error) {
	c, ok := snap.categories[category]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: category %q", domain.ErrNotFound, category)
	}
	if position < 0 || position >= len(c.Products) {
		return domain.Product{}, fmt.Errorf("%w: position %d in %q", domain.ErrNotFound, position, category)
	}
	return c.Products[position], nil
}

// AllProducts iterates (category, product) pairs of the catalog as it was
// when the iteration started.
func (s *Store) AllProducts() iter.Seq2[string, domain.Product] {
	return func(yield func(string, domain.Product) bool) {
		snap := s.current.Load()
		for _, name := range snap.names {
			for _, p := range snap.categories[name].Products {
				if !yield(name, p) {
					return
				}
			}
		}
	}
}
