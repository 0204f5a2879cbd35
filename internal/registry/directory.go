package registry

import (
	"sort"
	"sync"

	"github.com/efreitasn/notary/internal/domain"
)

// Directory is a thread-safe map of registry address → Registry.
type Directory struct {
	mu         sync.RWMutex
	registries map[domain.Address]*Registry
}

// NewDirectory creates a directory holding the given registries.
func NewDirectory(registries ...*Registry) *Directory {
	d := &Directory{
		registries: make(map[domain.Address]*Registry, len(registries)),
	}
	for _, r := range registries {
		d.registries[r.Address()] = r
	}
	return d
}

// Add registers r under its address, replacing any previous entry.
func (d *Directory) Add(r *Registry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registries[r.Address()] = r
}

// Get returns the registry at addr or domain.ErrRegistryNotFound.
func (d *Directory) Get(addr domain.Address) (*Registry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.registries[addr]
	if !ok {
		return nil, domain.ErrRegistryNotFound
	}
	return r, nil
}

// Lookup resolves addr to the capability the notary needs.
func (d *Directory) Lookup(addr domain.Address) (AssetRegistry, error) {
	r, err := d.Get(addr)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Addresses lists registered registry addresses in ascending order.
func (d *Directory) Addresses() []domain.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Address, 0, len(d.registries))
	for addr := range d.registries {
		result = append(result, addr)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
