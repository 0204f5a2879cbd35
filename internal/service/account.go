package service

import (
	"log/slog"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/engine"
	"github.com/efreitasn/notary/internal/metrics"
)

// TransferRequest represents the input for a direct ledger transfer.
type TransferRequest struct {
	Caller domain.Address
	To     string
	Amount string // display units
}

// Balance represents an account's ledger balance.
type Balance struct {
	Account domain.Address
	Units   int64
	Amount  string
}

// LedgerInfo describes the settlement currency.
type LedgerInfo struct {
	Owner       domain.Address
	TotalSupply string
	Decimals    int32
	Circulating string
}

// AccountService handles balance queries and direct transfers on the
// settlement ledger.
type AccountService struct {
	ledger   *engine.Ledger
	metrics  *metrics.Metrics
	logger   *slog.Logger
	decimals int32
}

// NewAccountService creates a new AccountService.
func NewAccountService(ledger *engine.Ledger, m *metrics.Metrics, logger *slog.Logger, decimals int32) *AccountService {
	return &AccountService{
		ledger:   ledger,
		metrics:  m,
		logger:   logger,
		decimals: decimals,
	}
}

// BalanceOf returns the balance of account. Unknown accounts hold 0.
func (s *AccountService) BalanceOf(account string) (Balance, error) {
	addr := domain.ParseAddress(account)
	if addr.IsZero() {
		return Balance{}, domain.ErrInvalidAccount
	}
	units := s.ledger.BalanceOf(addr)
	return Balance{
		Account: addr,
		Units:   units,
		Amount:  domain.FromBaseUnits(units, s.decimals),
	}, nil
}

// Transfer moves funds from the caller to req.To.
func (s *AccountService) Transfer(req TransferRequest) (Balance, error) {
	if req.Caller.IsZero() {
		return Balance{}, domain.ErrUnauthorized
	}
	to := domain.ParseAddress(req.To)
	if to.IsZero() {
		return Balance{}, domain.ErrInvalidAccount
	}
	if req.Amount == "" {
		return Balance{}, &domain.ValidationError{Message: "amount is required"}
	}
	units, err := domain.ToBaseUnits(req.Amount, s.decimals)
	if err != nil {
		return Balance{}, &domain.ValidationError{Message: "amount: " + err.Error()}
	}
	if units <= 0 {
		return Balance{}, &domain.ValidationError{Message: "amount must be greater than 0"}
	}

	err = s.ledger.Transfer(req.Caller, to, units)
	s.metrics.IncLedgerTransfer(err)
	if err != nil {
		return Balance{}, err
	}

	s.logger.Debug("ledger transfer",
		slog.String("from", req.Caller.String()),
		slog.String("to", to.String()),
		slog.Int64("amount", units),
	)
	return s.BalanceOf(req.Caller.String())
}

// Info returns the ledger's owner, supply and unit precision.
func (s *AccountService) Info() LedgerInfo {
	return LedgerInfo{
		Owner:       s.ledger.Owner(),
		TotalSupply: domain.FromBaseUnits(s.ledger.TotalSupply(), s.decimals),
		Decimals:    s.decimals,
		Circulating: domain.FromBaseUnits(s.ledger.SumBalances(), s.decimals),
	}
}
