package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/store"
)

// Webhook event types.
const (
	EventOrderListed    = "order.listed"
	EventOrderSettled   = "order.settled"
	EventOrderCancelled = "order.cancelled"
)

var validWebhookEvents = map[string]bool{
	EventOrderListed:    true,
	EventOrderSettled:   true,
	EventOrderCancelled: true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	Account domain.Address
	URL     string
	Events  []string
}

// WebhookService handles webhook CRUD and event dispatch.
type WebhookService struct {
	store    *store.WebhookStore
	client   *http.Client
	decimals int32
}

// NewWebhookService creates a new WebhookService. decimals is used to
// render prices in payloads.
func NewWebhookService(webhookStore *store.WebhookStore, webhookTimeout time.Duration, decimals int32) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
		decimals: decimals,
	}
}

// Upsert validates the request and creates or updates webhook subscriptions.
// The second result reports whether any subscription was newly created.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]domain.Webhook, bool, error) {
	if req.Account.IsZero() {
		return nil, false, domain.ErrInvalidAccount
	}

	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate while preserving order.
	seen := make(map[string]bool, len(req.Events))
	events := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: " +
					strings.Join([]string{EventOrderListed, EventOrderSettled, EventOrderCancelled}, ", "),
			}
		}
		if !seen[event] {
			seen[event] = true
			events = append(events, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]domain.Webhook, 0, len(events))

	for _, event := range events {
		stored, created := s.store.Upsert(domain.Webhook{
			WebhookID: uuid.New().String(),
			Account:   req.Account,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		})
		anyCreated = anyCreated || created
		webhooks = append(webhooks, stored)
	}

	return webhooks, anyCreated, nil
}

// List returns all webhook subscriptions of account.
func (s *WebhookService) List(account domain.Address) ([]domain.Webhook, error) {
	if account.IsZero() {
		return nil, domain.ErrInvalidAccount
	}
	return s.store.ListByAccount(account), nil
}

// Delete removes caller's webhook subscription by ID. Subscriptions of
// other accounts are reported as not found.
func (s *WebhookService) Delete(caller domain.Address, webhookID string) error {
	return s.store.Delete(caller, webhookID)
}

// orderEventPayload is the JSON payload for every order webhook.
type orderEventPayload struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      orderEventData `json:"data"`
}

type orderEventData struct {
	Seller        string `json:"seller"`
	Buyer         string `json:"buyer"`
	AssetRegistry string `json:"asset_registry"`
	AssetID       uint64 `json:"asset_id"`
	Price         string `json:"price"`
	SettlementID  string `json:"settlement_id,omitempty"`
}

// DispatchOrderListed notifies the seller and the named buyer that an
// order was opened. Fire-and-forget.
func (s *WebhookService) DispatchOrderListed(order domain.Order) {
	s.dispatch(EventOrderListed, order.ListedAt, s.orderData(order), order.Seller, order.Buyer)
}

// DispatchOrderSettled notifies both parties of a settlement.
func (s *WebhookService) DispatchOrderSettled(st *domain.Settlement) {
	data := orderEventData{
		Seller:        st.Seller.String(),
		Buyer:         st.Buyer.String(),
		AssetRegistry: st.AssetRegistry.String(),
		AssetID:       st.AssetID,
		Price:         domain.FromBaseUnits(st.Price, s.decimals),
		SettlementID:  st.SettlementID,
	}
	s.dispatch(EventOrderSettled, st.SettledAt, data, st.Seller, st.Buyer)
}

// DispatchOrderCancelled notifies both parties that an order was withdrawn.
func (s *WebhookService) DispatchOrderCancelled(order domain.Order) {
	s.dispatch(EventOrderCancelled, time.Now(), s.orderData(order), order.Seller, order.Buyer)
}

func (s *WebhookService) orderData(order domain.Order) orderEventData {
	return orderEventData{
		Seller:        order.Seller.String(),
		Buyer:         order.Buyer.String(),
		AssetRegistry: order.AssetRegistry.String(),
		AssetID:       order.AssetID,
		Price:         domain.FromBaseUnits(order.Price, s.decimals),
	}
}

// dispatch sends event to each distinct recipient that subscribed to it.
func (s *WebhookService) dispatch(event string, at time.Time, data orderEventData, recipients ...domain.Address) {
	payload := orderEventPayload{
		Event:     event,
		Timestamp: at.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data:      data,
	}

	for _, wh := range s.store.Subscribers(event, recipients...) {
		go s.deliver(wh, event, payload)
	}
}

// deliver sends the webhook payload via HTTP POST with the required headers.
// Errors are silently ignored (fire-and-forget).
func (s *WebhookService) deliver(wh domain.Webhook, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
