package engine

import (
	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/store"
)

// Ledger is a fungible balance store with a fixed supply. The full supply
// is credited to the owner at construction; afterwards balances only move
// between accounts.
type Ledger struct {
	accounts    *store.AccountStore
	owner       domain.Address
	totalSupply int64
}

// NewLedger mints totalSupply to owner. It is the only balance-creating
// event in the ledger's lifetime.
func NewLedger(accounts *store.AccountStore, owner domain.Address, totalSupply int64) (*Ledger, error) {
	if owner.IsZero() {
		return nil, domain.ErrInvalidAccount
	}
	if totalSupply < 0 {
		return nil, domain.ErrInvalidAmount
	}

	acct := accounts.GetOrCreate(owner)
	acct.Mu.Lock()
	acct.Balance += totalSupply
	acct.Mu.Unlock()

	return &Ledger{
		accounts:    accounts,
		owner:       owner,
		totalSupply: totalSupply,
	}, nil
}

// Owner returns the account that received the initial mint.
func (l *Ledger) Owner() domain.Address {
	return l.owner
}

// TotalSupply returns the amount minted at construction.
func (l *Ledger) TotalSupply() int64 {
	return l.totalSupply
}

// BalanceOf returns addr's balance, or 0 for an unknown account.
func (l *Ledger) BalanceOf(addr domain.Address) int64 {
	acct, ok := l.accounts.Get(addr)
	if !ok {
		return 0
	}
	acct.Mu.Lock()
	defer acct.Mu.Unlock()
	return acct.Balance
}

// Transfer debits from and credits to by amount.
func (l *Ledger) Transfer(from, to domain.Address, amount int64) error {
	if from.IsZero() || to.IsZero() {
		return domain.ErrInvalidAccount
	}
	if amount < 0 {
		return domain.ErrInvalidAmount
	}

	return l.withAccounts(from, to, func(src, dst *domain.Account) error {
		if !src.CanCover(amount) {
			return domain.ErrInsufficientBalance
		}
		src.Balance -= amount
		dst.Balance += amount
		return nil
	})
}

// SumBalances adds up every account balance. The result equals
// TotalSupply whenever no transfer is in flight.
func (l *Ledger) SumBalances() int64 {
	var sum int64
	for _, addr := range l.accounts.Addresses() {
		sum += l.BalanceOf(addr)
	}
	return sum
}

// withAccounts runs fn while holding the locks of both accounts. Locks are
// taken in address order so that concurrent transfers in opposite
// directions cannot deadlock. When a == b fn receives the same account twice.
func (l *Ledger) withAccounts(a, b domain.Address, fn func(first, second *domain.Account) error) error {
	first := l.accounts.GetOrCreate(a)
	if a == b {
		first.Mu.Lock()
		defer first.Mu.Unlock()
		return fn(first, first)
	}

	second := l.accounts.GetOrCreate(b)
	lo, hi := first, second
	if b < a {
		lo, hi = second, first
	}
	lo.Mu.Lock()
	defer lo.Mu.Unlock()
	hi.Mu.Lock()
	defer hi.Mu.Unlock()

	return fn(first, second)
}
