package registry

import (
	"strconv"
	"sync"
	"time"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/google/btree"
)

// AssetRegistry is the capability the notary consumes.
type AssetRegistry interface {
	IsAuthorized(assetID uint64, owner, spender domain.Address) bool
	Transfer(spender domain.Address, assetID uint64, from, to domain.Address) error
	CurrentOwner(assetID uint64) (domain.Address, error)
}

// ownerEntry indexes an asset under its current owner.
type ownerEntry struct {
	Owner   domain.Address
	AssetID uint64
}

// ownerLess orders entries by owner, then asset ID, so that all assets of
// one owner form a contiguous ascending range.
func ownerLess(a, b ownerEntry) bool {
	if a.Owner != b.Owner {
		return a.Owner < b.Owner
	}
	return a.AssetID < b.AssetID
}

// Registry tracks ownership and single-spender authorization for one
// class of unique assets (e.g. cars or houses).
type Registry struct {
	address domain.Address
	minter  domain.Address
	baseURI string

	mu      sync.RWMutex
	assets  map[uint64]*domain.Asset
	byOwner *btree.BTreeG[ownerEntry]
}

// New creates an empty registry identified by address. Only minter may
// mint new assets; baseURI prefixes every token URI.
func New(address, minter domain.Address, baseURI string) *Registry {
	const degree = 16
	return &Registry{
		address: address,
		minter:  minter,
		baseURI: baseURI,
		assets:  make(map[uint64]*domain.Asset),
		byOwner: btree.NewG[ownerEntry](degree, ownerLess),
	}
}

// Address returns the registry's identity.
func (r *Registry) Address() domain.Address {
	return r.address
}

// BaseURI returns the metadata prefix shared by all tokens.
func (r *Registry) BaseURI() string {
	return r.baseURI
}

// Mint creates asset id owned by to with the given per-token URI.
func (r *Registry) Mint(caller, to domain.Address, id uint64, uri string) (domain.Asset, error) {
	if caller != r.minter {
		return domain.Asset{}, domain.ErrUnauthorized
	}
	if to.IsZero() {
		return domain.Asset{}, domain.ErrInvalidAccount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[id]; exists {
		return domain.Asset{}, domain.ErrAssetAlreadyExists
	}
	a := &domain.Asset{
		ID:       id,
		Owner:    to,
		URI:      uri,
		MintedAt: time.Now(),
	}
	r.assets[id] = a
	r.byOwner.ReplaceOrInsert(ownerEntry{Owner: to, AssetID: id})
	return *a, nil
}

// Approve designates spender as the single party allowed to transfer id
// on the owner's behalf. Approving the zero address revokes.
func (r *Registry) Approve(caller, spender domain.Address, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return domain.ErrAssetNotFound
	}
	if a.Owner != caller {
		return domain.ErrNotAssetOwner
	}
	if spender == a.Owner {
		return domain.ErrInvalidAccount
	}
	a.Approved = spender
	return nil
}

// IsAuthorized reports whether spender may currently move id out of
// owner's hands. It is false when owner no longer holds the asset.
func (r *Registry) IsAuthorized(id uint64, owner, spender domain.Address) bool {
	if spender.IsZero() {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[id]
	if !ok || a.Owner != owner {
		return false
	}
	return a.Approved == spender
}

// Transfer moves id from from to to on behalf of spender, who must be the
// owner or the approved address. Any approval is cleared by the move.
func (r *Registry) Transfer(spender domain.Address, id uint64, from, to domain.Address) error {
	if to.IsZero() {
		return domain.ErrInvalidAccount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return domain.ErrAssetNotFound
	}
	if a.Owner != from {
		return domain.ErrTransferUnauthorized
	}
	if spender != a.Owner && (spender.IsZero() || spender != a.Approved) {
		return domain.ErrTransferUnauthorized
	}

	r.byOwner.Delete(ownerEntry{Owner: from, AssetID: id})
	a.Owner = to
	a.Approved = domain.ZeroAddress
	r.byOwner.ReplaceOrInsert(ownerEntry{Owner: to, AssetID: id})
	return nil
}

// CurrentOwner returns the address holding id.
func (r *Registry) CurrentOwner(id uint64) (domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[id]
	if !ok {
		return domain.ZeroAddress, domain.ErrAssetNotFound
	}
	return a.Owner, nil
}

// Get returns a copy of asset id.
func (r *Registry) Get(id uint64) (domain.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[id]
	if !ok {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return *a, nil
}

// TokenURI resolves the metadata location of id. A per-token URI is
// appended to the base URI; without one the decimal id is used.
func (r *Registry) TokenURI(id uint64) (string, error) {
	a, err := r.Get(id)
	if err != nil {
		return "", err
	}
	if r.baseURI == "" {
		return a.URI, nil
	}
	if a.URI != "" {
		return r.baseURI + a.URI, nil
	}
	return r.baseURI + strconv.FormatUint(id, 10), nil
}

// ListByOwner returns copies of every asset held by owner, ordered by ID.
func (r *Registry) ListByOwner(owner domain.Address) []domain.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Asset, 0)
	r.byOwner.AscendGreaterOrEqual(ownerEntry{Owner: owner}, func(e ownerEntry) bool {
		if e.Owner != owner {
			return false
		}
		result = append(result, *r.assets[e.AssetID])
		return true
	})
	return result
}

// Count returns the number of minted assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}
