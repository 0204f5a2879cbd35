package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/efreitasn/notary/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status code,
// error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v.
// It validates that the Content-Type header is application/json and
// returns an error for missing/incorrect content type or malformed JSON.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	return nil
}

// errorStatus maps a domain sentinel to its HTTP status and message. The
// error code is always the sentinel's own text.
var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{domain.ErrOrderAlreadyActive, http.StatusConflict, "Only one active sell order can be handled at a time."},
	{domain.ErrAssetNotAuthorized, http.StatusForbidden, "NFT must be approved for the notary contract."},
	{domain.ErrNoActiveOrder, http.StatusNotFound, "The seller has no active sell order."},
	{domain.ErrAuthorizationStillActive, http.StatusConflict, "NFT approvement must be removed before cancel."},
	{domain.ErrInsufficientBalance, http.StatusConflict, "The account balance does not cover the amount."},
	{domain.ErrTransferUnauthorized, http.StatusConflict, "The asset can no longer be transferred on the seller's behalf."},
	{domain.ErrInvalidAccount, http.StatusBadRequest, "A non-empty account address is required."},
	{domain.ErrInvalidAmount, http.StatusBadRequest, "Amounts must not be negative."},
	{domain.ErrUnauthorized, http.StatusForbidden, "The caller is not allowed to perform this operation."},
	{domain.ErrNotAssetOwner, http.StatusForbidden, "Only the asset owner can change its authorization."},
	{domain.ErrRegistryNotFound, http.StatusNotFound, "Asset registry not found."},
	{domain.ErrAssetNotFound, http.StatusNotFound, "Asset not found."},
	{domain.ErrAssetAlreadyExists, http.StatusConflict, "An asset with this id already exists."},
	{domain.ErrWebhookNotFound, http.StatusNotFound, "Webhook not found."},
}

// WriteDomainError maps service errors to HTTP responses. Unknown errors
// become 500 without leaking their text.
func WriteDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			WriteError(w, e.status, e.err.Error(), e.message)
			return
		}
	}
	WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}

// parseAssetID reads the asset_id URL parameter.
func parseAssetID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Message: "asset_id must be a non-negative integer"}
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
