package domain

import "time"

// Settlement records an executed order: the asset moved to Buyer and Price
// units moved to Seller in one step.
type Settlement struct {
	SettlementID  string
	Seller        Address
	Buyer         Address
	AssetRegistry Address
	AssetID       uint64
	Price         int64
	SettledAt     time.Time
}
