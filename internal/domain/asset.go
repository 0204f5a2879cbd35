package domain

import "time"

// Asset is a unique, ownable token tracked by an asset registry.
type Asset struct {
	ID       uint64
	Owner    Address
	Approved Address // single spender allowed to transfer on the owner's behalf
	URI      string  // per-token suffix appended to the registry base URI
	MintedAt time.Time
}
