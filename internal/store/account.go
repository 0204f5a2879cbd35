package store

import (
	"sort"
	"sync"

	"github.com/efreitasn/notary/internal/domain"
)

// AccountStore is a thread-safe in-memory store for ledger accounts,
// keyed by address. Accounts are created lazily on first credit.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[domain.Address]*domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[domain.Address]*domain.Account),
	}
}

// Get retrieves an account by address. The second return value is false
// if the account has never held a balance.
func (s *AccountStore) Get(addr domain.Address) (*domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[addr]
	return a, ok
}

// GetOrCreate returns the account for addr, creating an empty one if it
// doesn't already exist.
func (s *AccountStore) GetOrCreate(addr domain.Address) *domain.Account {
	s.mu.RLock()
	a, ok := s.accounts[addr]
	s.mu.RUnlock()
	if ok {
		return a
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock.
	if a, ok = s.accounts[addr]; ok {
		return a
	}
	a = &domain.Account{Address: addr}
	s.accounts[addr] = a
	return a
}

// Addresses returns every known account address in ascending order.
func (s *AccountStore) Addresses() []domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		result = append(result, addr)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
