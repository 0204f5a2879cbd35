package store

import (
	"sync"

	"github.com/efreitasn/notary/internal/domain"
)

// SettlementStore is a thread-safe, append-only history of executed
// orders, indexed by every account that took part in them.
type SettlementStore struct {
	mu        sync.RWMutex
	byAccount map[domain.Address][]*domain.Settlement // chronological
}

// NewSettlementStore creates an empty SettlementStore.
func NewSettlementStore() *SettlementStore {
	return &SettlementStore{
		byAccount: make(map[domain.Address][]*domain.Settlement),
	}
}

// Append records a settlement under both its seller and its buyer.
func (s *SettlementStore) Append(st *domain.Settlement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byAccount[st.Seller] = append(s.byAccount[st.Seller], st)
	if st.Buyer != st.Seller {
		s.byAccount[st.Buyer] = append(s.byAccount[st.Buyer], st)
	}
}

// ListByAccount returns the account's settlements newest first.
// Returns an empty slice if the account never settled an order.
func (s *SettlementStore) ListByAccount(addr domain.Address) []*domain.Settlement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byAccount[addr]
	result := make([]*domain.Settlement, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
	}
	return result
}
