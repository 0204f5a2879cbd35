package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/notary/internal/service"
)

// AccountHandler handles HTTP requests for the settlement ledger.
type AccountHandler struct {
	accountSvc  *service.AccountService
	notarySvc   *service.NotaryService
	registrySvc *service.RegistryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	accountSvc *service.AccountService,
	notarySvc *service.NotaryService,
	registrySvc *service.RegistryService,
) *AccountHandler {
	return &AccountHandler{
		accountSvc:  accountSvc,
		notarySvc:   notarySvc,
		registrySvc: registrySvc,
	}
}

// transferRequest is the JSON request body for POST /transfers.
type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// balanceResponse is the JSON response for balance queries and transfers.
type balanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
	Units   int64  `json:"units"`
}

// ledgerResponse is the JSON response for GET /ledger.
type ledgerResponse struct {
	Notary      string   `json:"notary"`
	Owner       string   `json:"owner"`
	TotalSupply string   `json:"total_supply"`
	Circulating string   `json:"circulating"`
	Decimals    int32    `json:"decimals"`
	Registries  []string `json:"registries"`
}

// GetBalance handles GET /accounts/{address}/balance.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.accountSvc.BalanceOf(chi.URLParam(r, "address"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBalanceResponse(bal))
}

// Transfer handles POST /transfers. It returns the caller's new balance.
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	bal, err := h.accountSvc.Transfer(service.TransferRequest{
		Caller: caller,
		To:     req.To,
		Amount: req.Amount,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBalanceResponse(bal))
}

// Ledger handles GET /ledger.
func (h *AccountHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	info := h.accountSvc.Info()

	registries := h.registrySvc.Registries()
	names := make([]string, len(registries))
	for i, addr := range registries {
		names[i] = addr.String()
	}

	WriteJSON(w, http.StatusOK, ledgerResponse{
		Notary:      h.notarySvc.NotaryAddress().String(),
		Owner:       info.Owner.String(),
		TotalSupply: info.TotalSupply,
		Circulating: info.Circulating,
		Decimals:    info.Decimals,
		Registries:  names,
	})
}

func buildBalanceResponse(b service.Balance) balanceResponse {
	return balanceResponse{
		Account: b.Account.String(),
		Balance: b.Amount,
		Units:   b.Units,
	}
}
