package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/service"
)

// OrderHandler handles HTTP requests for order and settlement endpoints.
type OrderHandler struct {
	notarySvc *service.NotaryService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(notarySvc *service.NotaryService) *OrderHandler {
	return &OrderHandler{notarySvc: notarySvc}
}

// listOrderRequest is the JSON request body for POST /orders.
type listOrderRequest struct {
	AssetRegistry string `json:"asset_registry"`
	AssetID       uint64 `json:"asset_id"`
	Buyer         string `json:"buyer"`
	Price         string `json:"price"`
}

// orderResponse is the JSON representation of an order slot.
type orderResponse struct {
	Seller        string `json:"seller"`
	AssetRegistry string `json:"asset_registry"`
	AssetID       uint64 `json:"asset_id"`
	Buyer         string `json:"buyer"`
	Price         string `json:"price"`
	PriceUnits    int64  `json:"price_units"`
	Fulfilled     bool   `json:"fulfilled"`
	ListedAt      string `json:"listed_at"`
}

// settlementResponse is the JSON representation of a completed settlement.
type settlementResponse struct {
	SettlementID  string `json:"settlement_id"`
	Seller        string `json:"seller"`
	Buyer         string `json:"buyer"`
	AssetRegistry string `json:"asset_registry"`
	AssetID       uint64 `json:"asset_id"`
	Price         string `json:"price"`
	PriceUnits    int64  `json:"price_units"`
	SettledAt     string `json:"settled_at"`
}

type settlementListResponse struct {
	Settlements []settlementResponse `json:"settlements"`
}

// List handles POST /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req listOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.notarySvc.List(service.ListOrderRequest{
		Caller:        caller,
		AssetRegistry: req.AssetRegistry,
		AssetID:       req.AssetID,
		Buyer:         req.Buyer,
		Price:         req.Price,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, h.buildOrderResponse(order))
}

// GetOrder handles GET /orders/{seller}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.notarySvc.GetOrderFor(chi.URLParam(r, "seller"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.buildOrderResponse(order))
}

// Settle handles POST /orders/{seller}/settle. The caller pays.
func (h *OrderHandler) Settle(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	st, err := h.notarySvc.Settle(caller, chi.URLParam(r, "seller"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.buildSettlementResponse(st))
}

// Cancel handles DELETE /orders, withdrawing the caller's own order.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	order, err := h.notarySvc.Cancel(caller)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.buildOrderResponse(order))
}

// ListSettlements handles GET /accounts/{address}/settlements.
func (h *OrderHandler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	history, err := h.notarySvc.Settlements(chi.URLParam(r, "address"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := settlementListResponse{Settlements: make([]settlementResponse, len(history))}
	for i, st := range history {
		resp.Settlements[i] = h.buildSettlementResponse(st)
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) buildOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		Seller:        o.Seller.String(),
		AssetRegistry: o.AssetRegistry.String(),
		AssetID:       o.AssetID,
		Buyer:         o.Buyer.String(),
		Price:         domain.FromBaseUnits(o.Price, h.notarySvc.Decimals()),
		PriceUnits:    o.Price,
		Fulfilled:     o.Fulfilled,
		ListedAt:      formatTime(o.ListedAt),
	}
}

func (h *OrderHandler) buildSettlementResponse(st *domain.Settlement) settlementResponse {
	return settlementResponse{
		SettlementID:  st.SettlementID,
		Seller:        st.Seller.String(),
		Buyer:         st.Buyer.String(),
		AssetRegistry: st.AssetRegistry.String(),
		AssetID:       st.AssetID,
		Price:         domain.FromBaseUnits(st.Price, h.notarySvc.Decimals()),
		PriceUnits:    st.Price,
		SettledAt:     formatTime(st.SettledAt),
	}
}
