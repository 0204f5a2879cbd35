package engine

import (
	"sync"

	"github.com/efreitasn/notary/internal/domain"
)

// SellerLocks is a thread-safe map of seller → mutex serializing every
// order-slot operation for that seller.
type SellerLocks struct {
	mu    sync.RWMutex
	locks map[domain.Address]*sync.Mutex
}

// NewSellerLocks creates an empty SellerLocks.
func NewSellerLocks() *SellerLocks {
	return &SellerLocks{
		locks: make(map[domain.Address]*sync.Mutex),
	}
}

// Lock acquires the seller's mutex and returns the matching unlock func.
func (sl *SellerLocks) Lock(seller domain.Address) func() {
	m := sl.getOrCreate(seller)
	m.Lock()
	return m.Unlock
}

func (sl *SellerLocks) getOrCreate(seller domain.Address) *sync.Mutex {
	sl.mu.RLock()
	m, ok := sl.locks[seller]
	sl.mu.RUnlock()
	if ok {
		return m
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	// Double-check after acquiring write lock.
	if m, ok = sl.locks[seller]; ok {
		return m
	}
	m = &sync.Mutex{}
	sl.locks[seller] = m
	return m
}
