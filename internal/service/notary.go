package service

import (
	"log/slog"
	"time"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/engine"
	"github.com/efreitasn/notary/internal/metrics"
)

// ListOrderRequest represents the input for opening a sell order.
type ListOrderRequest struct {
	Caller        domain.Address
	AssetRegistry string
	AssetID       uint64
	Buyer         string
	Price         string // display units
}

// NotaryService validates order requests, runs them through the notary,
// and reports the outcome to metrics, logs and webhooks.
type NotaryService struct {
	notary     *engine.Notary
	webhookSvc *WebhookService
	metrics    *metrics.Metrics
	logger     *slog.Logger
	decimals   int32
}

// NewNotaryService creates a new NotaryService with the given dependencies.
func NewNotaryService(
	notary *engine.Notary,
	webhookSvc *WebhookService,
	m *metrics.Metrics,
	logger *slog.Logger,
	decimals int32,
) *NotaryService {
	return &NotaryService{
		notary:     notary,
		webhookSvc: webhookSvc,
		metrics:    m,
		logger:     logger,
		decimals:   decimals,
	}
}

// List opens the caller's order slot.
func (s *NotaryService) List(req ListOrderRequest) (domain.Order, error) {
	if req.Caller.IsZero() {
		return domain.Order{}, domain.ErrUnauthorized
	}
	registryAddr := domain.ParseAddress(req.AssetRegistry)
	if registryAddr.IsZero() {
		return domain.Order{}, &domain.ValidationError{Message: "asset_registry is required"}
	}
	buyer := domain.ParseAddress(req.Buyer)
	if buyer.IsZero() {
		return domain.Order{}, &domain.ValidationError{Message: "buyer is required"}
	}
	price, err := s.parseAmount("price", req.Price)
	if err != nil {
		return domain.Order{}, err
	}
	if price < 0 {
		return domain.Order{}, &domain.ValidationError{Message: "price must be >= 0"}
	}

	order, err := s.notary.List(req.Caller, registryAddr, req.AssetID, buyer, price)
	s.record(metrics.OpList, err)
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("order listed",
		slog.String("seller", order.Seller.String()),
		slog.String("buyer", order.Buyer.String()),
		slog.String("asset_registry", order.AssetRegistry.String()),
		slog.Uint64("asset_id", order.AssetID),
		slog.Int64("price", order.Price),
	)
	s.webhookSvc.DispatchOrderListed(order)
	return order, nil
}

// Settle executes seller's order on behalf of caller.
func (s *NotaryService) Settle(caller domain.Address, seller string) (*domain.Settlement, error) {
	if caller.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	sellerAddr := domain.ParseAddress(seller)
	if sellerAddr.IsZero() {
		return nil, &domain.ValidationError{Message: "seller is required"}
	}

	start := time.Now()
	st, err := s.notary.Settle(caller, sellerAddr)
	s.record(metrics.OpSettle, err)
	if err != nil {
		s.logger.Warn("settlement rejected",
			slog.String("seller", sellerAddr.String()),
			slog.String("caller", caller.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	s.metrics.ObserveSettlement(time.Since(start), st.Price)

	s.logger.Info("order settled",
		slog.String("settlement_id", st.SettlementID),
		slog.String("seller", st.Seller.String()),
		slog.String("buyer", st.Buyer.String()),
		slog.String("asset_registry", st.AssetRegistry.String()),
		slog.Uint64("asset_id", st.AssetID),
		slog.Int64("price", st.Price),
	)
	s.webhookSvc.DispatchOrderSettled(st)
	return st, nil
}

// Cancel withdraws the caller's order.
func (s *NotaryService) Cancel(caller domain.Address) (domain.Order, error) {
	if caller.IsZero() {
		return domain.Order{}, domain.ErrUnauthorized
	}

	order, err := s.notary.Cancel(caller)
	s.record(metrics.OpCancel, err)
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("order cancelled",
		slog.String("seller", order.Seller.String()),
		slog.Uint64("asset_id", order.AssetID),
	)
	s.webhookSvc.DispatchOrderCancelled(order)
	return order, nil
}

// GetOrderFor returns seller's active order or domain.ErrNoActiveOrder.
func (s *NotaryService) GetOrderFor(seller string) (domain.Order, error) {
	addr := domain.ParseAddress(seller)
	if addr.IsZero() {
		return domain.Order{}, &domain.ValidationError{Message: "seller is required"}
	}
	order, ok := s.notary.GetOrderFor(addr)
	if !ok {
		return domain.Order{}, domain.ErrNoActiveOrder
	}
	return order, nil
}

// Settlements returns account's settlement history, newest first.
func (s *NotaryService) Settlements(account string) ([]*domain.Settlement, error) {
	addr := domain.ParseAddress(account)
	if addr.IsZero() {
		return nil, &domain.ValidationError{Message: "account is required"}
	}
	return s.notary.Settlements(addr), nil
}

// NotaryAddress returns the identity sellers must authorize.
func (s *NotaryService) NotaryAddress() domain.Address {
	return s.notary.Address()
}

// Decimals returns the number of fractional digits of display amounts.
func (s *NotaryService) Decimals() int32 {
	return s.decimals
}

func (s *NotaryService) parseAmount(field, amount string) (int64, error) {
	if amount == "" {
		return 0, &domain.ValidationError{Message: field + " is required"}
	}
	units, err := domain.ToBaseUnits(amount, s.decimals)
	if err != nil {
		return 0, &domain.ValidationError{Message: field + ": " + err.Error()}
	}
	return units, nil
}

func (s *NotaryService) record(op string, err error) {
	// The op names are package constants; the error cannot happen.
	_ = s.metrics.IncOrderOperation(op, err)
}
