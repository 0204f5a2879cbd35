package service

import (
	"log/slog"

	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/metrics"
	"github.com/efreitasn/notary/internal/registry"
)

// MintRequest represents the input for minting an asset.
type MintRequest struct {
	Caller   domain.Address
	Registry string
	To       string
	AssetID  uint64
	URI      string
}

// ApproveRequest represents the input for setting or clearing an asset's
// authorized spender. An empty Spender revokes.
type ApproveRequest struct {
	Caller   domain.Address
	Registry string
	AssetID  uint64
	Spender  string
}

// TransferAssetRequest represents a direct registry transfer by the owner
// or the approved spender.
type TransferAssetRequest struct {
	Caller   domain.Address
	Registry string
	AssetID  uint64
	From     string
	To       string
}

// AssetView is an asset together with its resolved metadata URI.
type AssetView struct {
	domain.Asset
	Registry domain.Address
	TokenURI string
}

// RegistryService exposes minting, authorization and lookups over the
// configured asset registries.
type RegistryService struct {
	registries *registry.Directory
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewRegistryService creates a new RegistryService.
func NewRegistryService(registries *registry.Directory, m *metrics.Metrics, logger *slog.Logger) *RegistryService {
	return &RegistryService{
		registries: registries,
		metrics:    m,
		logger:     logger,
	}
}

// Mint creates a new asset owned by req.To. Only the registry's minter may
// call it.
func (s *RegistryService) Mint(req MintRequest) (AssetView, error) {
	if req.Caller.IsZero() {
		return AssetView{}, domain.ErrUnauthorized
	}
	reg, err := s.registries.Get(domain.ParseAddress(req.Registry))
	if err != nil {
		return AssetView{}, err
	}
	if len(req.URI) > 2048 {
		return AssetView{}, &domain.ValidationError{Message: "uri must be at most 2048 characters"}
	}

	asset, err := reg.Mint(req.Caller, domain.ParseAddress(req.To), req.AssetID, req.URI)
	if err != nil {
		return AssetView{}, err
	}
	s.metrics.IncAssetsMinted(reg.Address().String())
	s.logger.Info("asset minted",
		slog.String("registry", reg.Address().String()),
		slog.Uint64("asset_id", asset.ID),
		slog.String("owner", asset.Owner.String()),
	)
	return s.view(reg, asset)
}

// Approve authorizes req.Spender to move the asset, or revokes the current
// authorization when Spender is empty.
func (s *RegistryService) Approve(req ApproveRequest) (AssetView, error) {
	if req.Caller.IsZero() {
		return AssetView{}, domain.ErrUnauthorized
	}
	reg, err := s.registries.Get(domain.ParseAddress(req.Registry))
	if err != nil {
		return AssetView{}, err
	}
	if err := reg.Approve(req.Caller, domain.ParseAddress(req.Spender), req.AssetID); err != nil {
		return AssetView{}, err
	}
	return s.Asset(req.Registry, req.AssetID)
}

// Transfer moves an asset outside of the notary's escrow.
func (s *RegistryService) Transfer(req TransferAssetRequest) (AssetView, error) {
	if req.Caller.IsZero() {
		return AssetView{}, domain.ErrUnauthorized
	}
	reg, err := s.registries.Get(domain.ParseAddress(req.Registry))
	if err != nil {
		return AssetView{}, err
	}
	from := domain.ParseAddress(req.From)
	if from.IsZero() {
		from = req.Caller
	}
	if err := reg.Transfer(req.Caller, req.AssetID, from, domain.ParseAddress(req.To)); err != nil {
		return AssetView{}, err
	}
	s.logger.Info("asset transferred",
		slog.String("registry", reg.Address().String()),
		slog.Uint64("asset_id", req.AssetID),
		slog.String("from", from.String()),
		slog.String("to", req.To),
	)
	return s.Asset(req.Registry, req.AssetID)
}

// Asset returns one asset of a registry.
func (s *RegistryService) Asset(registryAddr string, id uint64) (AssetView, error) {
	reg, err := s.registries.Get(domain.ParseAddress(registryAddr))
	if err != nil {
		return AssetView{}, err
	}
	asset, err := reg.Get(id)
	if err != nil {
		return AssetView{}, err
	}
	return s.view(reg, asset)
}

// AssetsOf lists the assets owner holds in a registry, by ascending id.
func (s *RegistryService) AssetsOf(registryAddr, owner string) ([]AssetView, error) {
	reg, err := s.registries.Get(domain.ParseAddress(registryAddr))
	if err != nil {
		return nil, err
	}
	addr := domain.ParseAddress(owner)
	if addr.IsZero() {
		return nil, domain.ErrInvalidAccount
	}

	assets := reg.ListByOwner(addr)
	views := make([]AssetView, 0, len(assets))
	for _, a := range assets {
		v, err := s.view(reg, a)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Registries returns the addresses of the configured registries.
func (s *RegistryService) Registries() []domain.Address {
	return s.registries.Addresses()
}

func (s *RegistryService) view(reg *registry.Registry, asset domain.Asset) (AssetView, error) {
	uri, err := reg.TokenURI(asset.ID)
	if err != nil {
		return AssetView{}, err
	}
	return AssetView{Asset: asset, Registry: reg.Address(), TokenURI: uri}, nil
}
