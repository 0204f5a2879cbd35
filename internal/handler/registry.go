package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/notary/internal/service"
)

// RegistryHandler handles HTTP requests for asset registry endpoints.
type RegistryHandler struct {
	registrySvc *service.RegistryService
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(registrySvc *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{registrySvc: registrySvc}
}

// mintRequest is the JSON request body for POST /registries/{registry}/assets.
type mintRequest struct {
	To      string `json:"to"`
	AssetID uint64 `json:"asset_id"`
	URI     string `json:"uri"`
}

// approveRequest is the JSON request body for the approve endpoint. An
// empty spender revokes the current authorization.
type approveRequest struct {
	Spender string `json:"spender"`
}

type assetTransferRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// assetResponse is the JSON representation of an asset.
type assetResponse struct {
	Registry string  `json:"registry"`
	AssetID  uint64  `json:"asset_id"`
	Owner    string  `json:"owner"`
	Approved *string `json:"approved"`
	TokenURI string  `json:"token_uri"`
	MintedAt string  `json:"minted_at"`
}

type assetListResponse struct {
	Assets []assetResponse `json:"assets"`
}

// ListRegistries handles GET /registries.
func (h *RegistryHandler) ListRegistries(w http.ResponseWriter, r *http.Request) {
	addrs := h.registrySvc.Registries()
	names := make([]string, len(addrs))
	for i, a := range addrs {
		names[i] = a.String()
	}
	WriteJSON(w, http.StatusOK, map[string][]string{"registries": names})
}

// Mint handles POST /registries/{registry}/assets.
func (h *RegistryHandler) Mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req mintRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	view, err := h.registrySvc.Mint(service.MintRequest{
		Caller:   caller,
		Registry: chi.URLParam(r, "registry"),
		To:       req.To,
		AssetID:  req.AssetID,
		URI:      req.URI,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildAssetResponse(view))
}

// GetAsset handles GET /registries/{registry}/assets/{asset_id}.
func (h *RegistryHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssetID(chi.URLParam(r, "asset_id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	view, err := h.registrySvc.Asset(chi.URLParam(r, "registry"), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildAssetResponse(view))
}

// Approve handles POST /registries/{registry}/assets/{asset_id}/approve.
func (h *RegistryHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := parseAssetID(chi.URLParam(r, "asset_id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req approveRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	view, err := h.registrySvc.Approve(service.ApproveRequest{
		Caller:   caller,
		Registry: chi.URLParam(r, "registry"),
		AssetID:  id,
		Spender:  req.Spender,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildAssetResponse(view))
}

// Transfer handles POST /registries/{registry}/assets/{asset_id}/transfer.
func (h *RegistryHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := parseAssetID(chi.URLParam(r, "asset_id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req assetTransferRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	view, err := h.registrySvc.Transfer(service.TransferAssetRequest{
		Caller:   caller,
		Registry: chi.URLParam(r, "registry"),
		AssetID:  id,
		From:     req.From,
		To:       req.To,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildAssetResponse(view))
}

// ListOwnerAssets handles GET /registries/{registry}/owners/{address}/assets.
func (h *RegistryHandler) ListOwnerAssets(w http.ResponseWriter, r *http.Request) {
	views, err := h.registrySvc.AssetsOf(chi.URLParam(r, "registry"), chi.URLParam(r, "address"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := assetListResponse{Assets: make([]assetResponse, len(views))}
	for i, v := range views {
		resp.Assets[i] = buildAssetResponse(v)
	}
	WriteJSON(w, http.StatusOK, resp)
}

func buildAssetResponse(v service.AssetView) assetResponse {
	resp := assetResponse{
		Registry: v.Registry.String(),
		AssetID:  v.ID,
		Owner:    v.Owner.String(),
		TokenURI: v.TokenURI,
		MintedAt: formatTime(v.MintedAt),
	}
	if !v.Approved.IsZero() {
		approved := v.Approved.String()
		resp.Approved = &approved
	}
	return resp
}
