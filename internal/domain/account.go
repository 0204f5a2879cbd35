package domain

import "sync"

// Account is a single balance entry in the settlement ledger.
type Account struct {
	Address Address
	Balance int64      // smallest ledger unit
	Mu      sync.Mutex // per-account lock for balance mutations
}

// CanCover reports whether the account holds at least amount units.
func (a *Account) CanCover(amount int64) bool {
	return a.Balance >= amount
}
