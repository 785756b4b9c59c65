package cart

import (
	"sync"

	"storefront/bot/internal/domain"
)

// userCart is one user's lines in insertion order. quantities indexes lines
// by title.
type userCart struct {
	mu         sync.Mutex
	lines      []domain.CartLine
	quantities map[string]int
}

func (c *userCart) snapshot(userID int64) domain.Cart {
	lines := make([]domain.CartLine, len(c.lines))
	copy(lines, c.lines)
	return domain.Cart{UserID: userID, Lines: lines}
}

func (c *userCart) reset() {
	c.lines = nil
	c.quantities = nil
}

// Store keeps carts in memory, keyed by title within each user. Operations on
// the same user are serialized by that user's mutex; different users never
// contend.
type Store struct {
	carts sync.Map // map[int64]*userCart
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) cart(userID int64) *userCart {
	if c, ok := s.carts.Load(userID); ok {
		return c.(*userCart)
	}
	c, _ := s.carts.LoadOrStore(userID, &userCart{})
	return c.(*userCart)
}

// Add increments the quantity of product.Title by one.
func (s *Store) Add(userID int64, product domain.Product) domain.Cart {
	c := s.cart(userID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quantities == nil {
		c.quantities = make(map[string]int)
	}
	if i, ok := c.quantities[product.Title]; ok {
		c.lines[i].Quantity++
	} else {
		c.quantities[product.Title] = len(c.lines)
		c.lines = append(c.lines, domain.CartLine{Title: product.Title, Quantity: 1})
	}

	return c.snapshot(userID)
}

func (s *Store) Snapshot(userID int64) domain.Cart {
	c, ok := s.carts.Load(userID)
	if !ok {
		return domain.Cart{UserID: userID, Lines: []domain.CartLine{}}
	}

	uc := c.(*userCart)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.snapshot(userID)
}

func (s *Store) Clear(userID int64) {
	c, ok := s.carts.Load(userID)
	if !ok {
		return
	}

	uc := c.(*userCart)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.reset()
}

// Checkout hands the user's cart to place and empties the cart only when
// place succeeds. The user's lock is held throughout, so a second checkout
// racing this one sees an empty cart. An empty cart returns ErrEmptyCart
// without calling place.
func (s *Store) Checkout(userID int64, place func(domain.Cart) error) error {
	c, ok := s.carts.Load(userID)
	if !ok {
		return domain.ErrEmptyCart
	}

	uc := c.(*userCart)
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if len(uc.lines) == 0 {
		return domain.ErrEmptyCart
	}

	if err := place(uc.snapshot(userID)); err != nil {
		return err
	}

	uc.reset()
	return nil
}
