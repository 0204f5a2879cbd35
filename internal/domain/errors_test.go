package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "price must be > 0"}
	if err.Error() != "price must be > 0" {
		t.Errorf("Error() = %q, want %q", err.Error(), "price must be > 0")
	}
}

func TestValidationError_As(t *testing.T) {
	wrapped := fmt.Errorf("list: %w", &ValidationError{Message: "test"})
	var ve *ValidationError
	if !errors.As(wrapped, &ve) {
		t.Fatal("errors.As should unwrap ValidationError")
	}
	if ve.Message != "test" {
		t.Errorf("Message = %q, want %q", ve.Message, "test")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	errs := []error{
		ErrOrderAlreadyActive,
		ErrAssetNotAuthorized,
		ErrNoActiveOrder,
		ErrAuthorizationStillActive,
		ErrInsufficientBalance,
		ErrTransferUnauthorized,
		ErrInvalidAccount,
		ErrInvalidAmount,
		ErrUnauthorized,
		ErrRegistryNotFound,
		ErrAssetNotFound,
		ErrAssetAlreadyExists,
		ErrNotAssetOwner,
		ErrWebhookNotFound,
	}
	for i := 0; i < len(errs); i++ {
		for j := i + 1; j < len(errs); j++ {
			if errors.Is(errs[i], errs[j]) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}
