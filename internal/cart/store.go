// Package cart holds a session's line items and prices them.
package cart

import (
	"slices"
	"sync"

	"github.com/fjod/furstore/internal/domain"
)

// Snapshot is an immutable view of the cart handed to subscribers.
type Snapshot struct {
	Items []domain.CartLineItem
}

func (s Snapshot) Len() int { return len(s.Items) }

// Store is the authoritative list of line items for one session.
// It is safe for concurrent use; subscribers run outside the lock.
type Store struct {
	mu        sync.RWMutex
	items     []domain.CartLineItem
	listeners map[int]func(Snapshot)
	nextID    int
}

// NewStore seeds a store with previously persisted lines. Lines with a
// non-positive quantity are dropped.
func NewStore(items ...domain.CartLineItem) *Store {
	s := &Store{
		items:     make([]domain.CartLineItem, 0, len(items)),
		listeners: make(map[int]func(Snapshot)),
	}
	for _, it := range items {
		if it.Quantity > 0 {
			s.items = append(s.items, it)
		}
	}
	return s
}

// Subscribe registers fn to run after every mutation that changed the cart.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// AddItem increments the line for p.ID by quantity or appends a new line.
// It does not clamp against stock; callers that need the clamp apply it first.
func (s *Store) AddItem(p domain.ProductSnapshot, quantity int) {
	if quantity <= 0 {
		return
	}
	s.mutate(func() bool {
		if i := s.indexOf(p.ID); i >= 0 {
			s.items[i].Quantity += quantity
			return true
		}
		s.items = append(s.items, domain.CartLineItem{Product: p, Quantity: quantity})
		return true
	})
}

// AddWithinStock adds at most the stock still free for p and reports how many
// units were actually added.
func (s *Store) AddWithinStock(p domain.ProductSnapshot, quantity int) int {
	added := 0
	s.mutate(func() bool {
		have := 0
		i := s.indexOf(p.ID)
		if i >= 0 {
			have = s.items[i].Quantity
		}
		added = min(quantity, p.Stock-have)
		if added <= 0 {
			added = 0
			return false
		}
		if i >= 0 {
			s.items[i].Quantity += added
			return true
		}
		s.items = append(s.items, domain.CartLineItem{Product: p, Quantity: added})
		return true
	})
	return added
}

// SetQuantity sets the exact quantity of a line, clamped to the product's stock.
// A result of zero or less removes the line. Unknown ids are ignored.
func (s *Store) SetQuantity(productID int64, quantity int) {
	s.mutate(func() bool {
		i := s.indexOf(productID)
		if i < 0 {
			return false
		}
		if quantity > s.items[i].Product.Stock {
			quantity = s.items[i].Product.Stock
		}
		if quantity <= 0 {
			s.items = slices.Delete(s.items, i, i+1)
			return true
		}
		if s.items[i].Quantity == quantity {
			return false
		}
		s.items[i].Quantity = quantity
		return true
	})
}

func (s *Store) RemoveItem(productID int64) {
	s.RemoveItems(productID)
}

// RemoveItems drops every line whose product id is listed.
func (s *Store) RemoveItems(productIDs ...int64) {
	if len(productIDs) == 0 {
		return
	}
	s.mutate(func() bool {
		n := len(s.items)
		s.items = slices.DeleteFunc(s.items, func(it domain.CartLineItem) bool {
			return slices.Contains(productIDs, it.Product.ID)
		})
		return len(s.items) != n
	})
}

func (s *Store) Clear() {
	s.mutate(func() bool {
		if len(s.items) == 0 {
			return false
		}
		s.items = s.items[:0]
		return true
	})
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []domain.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Item returns the line for productID, if any.
func (s *Store) Item(productID int64) (domain.CartLineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(productID); i >= 0 {
		return s.items[i], true
	}
	return domain.CartLineItem{}, false
}

// OverStock lists lines whose quantity exceeds the snapshot's stock.
// Only AddItem can produce them.
func (s *Store) OverStock() []domain.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CartLineItem
	for _, it := range s.items {
		if it.Quantity > it.Product.Stock {
			out = append(out, it)
		}
	}
	return out
}

// ComputeTotals prices the current lines for the given delivery method.
func (s *Store) ComputeTotals(method domain.DeliveryMethod) domain.CartTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeTotals(s.items, method)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Items: slices.Clone(s.items)}
}

func (s *Store) indexOf(productID int64) int {
	return slices.IndexFunc(s.items, func(it domain.CartLineItem) bool {
		return it.Product.ID == productID
	})
}

func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	if !changed || len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	snap := Snapshot{Items: slices.Clone(s.items)}
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}
