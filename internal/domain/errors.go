package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrOrderAlreadyActive       = errors.New("order_already_active")
	ErrAssetNotAuthorized       = errors.New("asset_not_authorized")
	ErrNoActiveOrder            = errors.New("no_active_order")
	ErrAuthorizationStillActive = errors.New("authorization_still_active")
	ErrInsufficientBalance      = errors.New("insufficient_balance")
	ErrTransferUnauthorized     = errors.New("transfer_unauthorized")
	ErrInvalidAccount           = errors.New("invalid_account")
	ErrInvalidAmount            = errors.New("invalid_amount")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrRegistryNotFound         = errors.New("registry_not_found")
	ErrAssetNotFound            = errors.New("asset_not_found")
	ErrAssetAlreadyExists       = errors.New("asset_already_exists")
	ErrNotAssetOwner            = errors.New("not_asset_owner")
	ErrWebhookNotFound          = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
