package domain

import "time"

// Order is a seller's single active listing. At most one exists per seller;
// settlement and cancellation remove it rather than flipping Fulfilled.
type Order struct {
	Seller        Address
	AssetRegistry Address
	Buyer         Address
	AssetID       uint64
	Price         int64 // smallest ledger unit
	Fulfilled     bool
	ListedAt      time.Time
}
