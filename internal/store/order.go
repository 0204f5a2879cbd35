package store

import (
	"sync"

	"github.com/efreitasn/notary/internal/domain"
)

// OrderStore is a thread-safe in-memory table of active sell orders with
// exactly one slot per seller address.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[domain.Address]domain.Order // seller → active order
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[domain.Address]domain.Order),
	}
}

// Create stores o in its seller's slot. It returns
// domain.ErrOrderAlreadyActive if the slot is occupied.
func (s *OrderStore) Create(o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.Seller]; exists {
		return domain.ErrOrderAlreadyActive
	}
	s.orders[o.Seller] = o
	return nil
}

// Get returns a copy of the seller's active order and whether one exists.
func (s *OrderStore) Get(seller domain.Address) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[seller]
	return o, ok
}

// Exists returns true if the seller has an active order.
func (s *OrderStore) Exists(seller domain.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.orders[seller]
	return ok
}

// Delete clears the seller's slot. It returns domain.ErrNoActiveOrder if
// the slot is already empty.
func (s *OrderStore) Delete(seller domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[seller]; !ok {
		return domain.ErrNoActiveOrder
	}
	delete(s.orders, seller)
	return nil
}

// Count returns the number of active orders.
func (s *OrderStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
