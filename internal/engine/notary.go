package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/registry"
	"github.com/efreitasn/notary/internal/store"
)

// RegistryResolver finds the asset registry an order refers to.
type RegistryResolver interface {
	Lookup(addr domain.Address) (registry.AssetRegistry, error)
}

// Notary is the escrow coordinator. It is itself the settlement ledger and
// additionally holds one order slot per seller. Sellers list assets they
// have authorized to the notary; the named buyer settles by paying the
// price, which moves the asset and the funds in a single step.
type Notary struct {
	*Ledger

	address     domain.Address
	registries  RegistryResolver
	orders      *store.OrderStore
	settlements *store.SettlementStore
	sellers     *SellerLocks
}

// NewNotary creates a Notary acting under address on top of ledger.
func NewNotary(
	address domain.Address,
	ledger *Ledger,
	registries RegistryResolver,
	orders *store.OrderStore,
	settlements *store.SettlementStore,
) *Notary {
	return &Notary{
		Ledger:      ledger,
		address:     address,
		registries:  registries,
		orders:      orders,
		settlements: settlements,
		sellers:     NewSellerLocks(),
	}
}

// Address returns the identity assets must be authorized to.
func (n *Notary) Address() domain.Address {
	return n.address
}

// List opens caller's order slot for assetID of registryAddr, to be
// settled by buyer for price. The caller must not already have an active
// order, and the registry must report the notary as authorized to move
// the asset on the caller's behalf. Nothing but the order table changes.
func (n *Notary) List(caller, registryAddr domain.Address, assetID uint64, buyer domain.Address, price int64) (domain.Order, error) {
	if caller.IsZero() || buyer.IsZero() {
		return domain.Order{}, domain.ErrInvalidAccount
	}
	if price < 0 {
		return domain.Order{}, domain.ErrInvalidAmount
	}

	unlock := n.sellers.Lock(caller)
	defer unlock()

	if n.orders.Exists(caller) {
		return domain.Order{}, domain.ErrOrderAlreadyActive
	}

	reg, err := n.registries.Lookup(registryAddr)
	if err != nil {
		return domain.Order{}, err
	}
	if !reg.IsAuthorized(assetID, caller, n.address) {
		return domain.Order{}, domain.ErrAssetNotAuthorized
	}

	order := domain.Order{
		Seller:        caller,
		AssetRegistry: registryAddr,
		Buyer:         buyer,
		AssetID:       assetID,
		Price:         price,
		Fulfilled:     false,
		ListedAt:      time.Now(),
	}
	if err := n.orders.Create(order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// Settle executes seller's order on behalf of caller, who must be the
// order's buyer. Payment and delivery happen together or not at all: both
// ledger accounts stay locked for the whole settlement and a failed asset
// transfer reverses the payment before the locks are released.
func (n *Notary) Settle(caller, seller domain.Address) (*domain.Settlement, error) {
	unlock := n.sellers.Lock(seller)
	defer unlock()

	order, ok := n.orders.Get(seller)
	if !ok {
		return nil, domain.ErrNoActiveOrder
	}
	if caller != order.Buyer {
		return nil, domain.ErrUnauthorized
	}

	reg, err := n.registries.Lookup(order.AssetRegistry)
	if err != nil {
		return nil, err
	}

	err = n.withAccounts(order.Buyer, seller, func(buyerAcct, sellerAcct *domain.Account) error {
		return runSteps([]step{
			{
				name: "payment",
				execute: func() error {
					if !buyerAcct.CanCover(order.Price) {
						return domain.ErrInsufficientBalance
					}
					buyerAcct.Balance -= order.Price
					sellerAcct.Balance += order.Price
					return nil
				},
				compensate: func() {
					sellerAcct.Balance -= order.Price
					buyerAcct.Balance += order.Price
				},
			},
			{
				name: "delivery",
				execute: func() error {
					return reg.Transfer(n.address, order.AssetID, seller, order.Buyer)
				},
			},
			{
				name: "close",
				execute: func() error {
					return n.orders.Delete(seller)
				},
			},
		})
	})
	if err != nil {
		return nil, err
	}

	st := &domain.Settlement{
		SettlementID:  uuid.New().String(),
		Seller:        seller,
		Buyer:         order.Buyer,
		AssetRegistry: order.AssetRegistry,
		AssetID:       order.AssetID,
		Price:         order.Price,
		SettledAt:     time.Now(),
	}
	n.settlements.Append(st)
	return st, nil
}

// Cancel removes caller's order. The seller must have revoked the
// notary's authorization first, so that no stale approval can be used
// against a cancelled order.
func (n *Notary) Cancel(caller domain.Address) (domain.Order, error) {
	unlock := n.sellers.Lock(caller)
	defer unlock()

	order, ok := n.orders.Get(caller)
	if !ok {
		return domain.Order{}, domain.ErrNoActiveOrder
	}

	reg, err := n.registries.Lookup(order.AssetRegistry)
	if err != nil {
		return domain.Order{}, err
	}
	if reg.IsAuthorized(order.AssetID, caller, n.address) {
		return domain.Order{}, domain.ErrAuthorizationStillActive
	}

	if err := n.orders.Delete(caller); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// GetOrderFor returns seller's active order. The boolean is false when the
// seller has none.
func (n *Notary) GetOrderFor(seller domain.Address) (domain.Order, bool) {
	return n.orders.Get(seller)
}

// Settlements returns the settlements account took part in, newest first.
func (n *Notary) Settlements(account domain.Address) []*domain.Settlement {
	return n.settlements.ListByAccount(account)
}
