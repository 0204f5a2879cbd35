package store

import (
	"sort"
	"sync"

	"github.com/efreitasn/notary/internal/domain"
)

// WebhookStore keeps webhook subscriptions in memory. Subscriptions are
// unique per (account, event); callers always receive copies.
type WebhookStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Webhook
	routes map[domain.Address]map[string]string // account → event → webhook_id
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		byID:   make(map[string]*domain.Webhook),
		routes: make(map[domain.Address]map[string]string),
	}
}

// Upsert stores w unless the account already subscribes to w.Event. In that
// case the existing subscription keeps its id and takes w's URL; UpdatedAt
// only moves when the URL actually changed. The stored subscription is
// returned together with whether it was newly created.
func (s *WebhookStore) Upsert(w domain.Webhook) (domain.Webhook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.routes[w.Account][w.Event]; ok {
		existing := s.byID[id]
		if existing.URL != w.URL {
			existing.URL = w.URL
			existing.UpdatedAt = w.UpdatedAt
		}
		return *existing, false
	}

	stored := w
	s.byID[w.WebhookID] = &stored
	events, ok := s.routes[w.Account]
	if !ok {
		events = make(map[string]string)
		s.routes[w.Account] = events
	}
	events[w.Event] = w.WebhookID
	return stored, true
}

// Get returns the subscription with the given id or
// domain.ErrWebhookNotFound.
func (s *WebhookStore) Get(id string) (domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.byID[id]
	if !ok {
		return domain.Webhook{}, domain.ErrWebhookNotFound
	}
	return *w, nil
}

// ListByAccount returns the account's subscriptions ordered by event name.
// The result is never nil.
func (s *WebhookStore) ListByAccount(addr domain.Address) []domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.routes[addr]
	result := make([]domain.Webhook, 0, len(events))
	for _, id := range events {
		result = append(result, *s.byID[id])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Event < result[j].Event })
	return result
}

// Delete removes the subscription id owned by owner. Subscriptions that do
// not exist or belong to another account yield domain.ErrWebhookNotFound.
func (s *WebhookStore) Delete(owner domain.Address, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.byID[id]
	if !ok || w.Account != owner {
		return domain.ErrWebhookNotFound
	}

	delete(s.byID, id)
	events := s.routes[w.Account]
	delete(events, w.Event)
	if len(events) == 0 {
		delete(s.routes, w.Account)
	}
	return nil
}

// Subscribers returns the subscriptions to event held by any of accounts.
// Each account appears at most once even if repeated in the arguments.
func (s *WebhookStore) Subscribers(event string, accounts ...domain.Address) []domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Webhook
	seen := make(map[domain.Address]bool, len(accounts))
	for _, addr := range accounts {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		if id, ok := s.routes[addr][event]; ok {
			result = append(result, *s.byID[id])
		}
	}
	return result
}
