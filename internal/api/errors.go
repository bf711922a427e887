package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/cart-tracker/internal/api/shared"
	"github.com/phrazzld/cart-tracker/internal/service"
)

// Reason phrases returned in the error field. Clients match on these
// strings, so they must not change.
const (
	ReasonNoContent         = "no content found"
	ReasonInvalidJSON       = "invalid JSON"
	ReasonInvalidCartID     = "invalid cart_id"
	ReasonExternalIDMissing = "external_id is required"
	ReasonGetNotAllowed     = "GET not allowed"
	ReasonQueueUnavailable  = "item queue unavailable"
	ReasonPayloadTooLarge   = "payload too large"
	ReasonUnexpected        = "An unexpected error occurred"
)

// MapIntakeError maps an error from IntakeService.Track (or from reading the
// request body) to a status code and a stable reason phrase. Unknown errors
// map to 500 with a generic message so internal detail never reaches clients.
func MapIntakeError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyBody):
		return http.StatusBadRequest, ReasonNoContent
	case errors.Is(err, service.ErrMalformedPayload):
		return http.StatusBadRequest, ReasonInvalidJSON
	case errors.Is(err, service.ErrInvalidCartID):
		return http.StatusBadRequest, ReasonInvalidCartID
	case errors.Is(err, service.ErrMissingExternalID):
		return http.StatusBadRequest, ReasonExternalIDMissing
	case errors.Is(err, shared.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, ReasonPayloadTooLarge
	case errors.Is(err, service.ErrDispatchFailed):
		return http.StatusServiceUnavailable, ReasonQueueUnavailable
	default:
		return http.StatusInternalServerError, ReasonUnexpected
	}
}

// rejectionLabel is the metric label for a rejected request.
func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyBody):
		return "empty_body"
	case errors.Is(err, service.ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, service.ErrInvalidCartID):
		return "invalid_cart_id"
	case errors.Is(err, service.ErrMissingExternalID):
		return "missing_external_id"
	case errors.Is(err, shared.ErrBodyTooLarge):
		return "too_large"
	case errors.Is(err, service.ErrDispatchFailed):
		return "queue_unavailable"
	default:
		return "internal"
	}
}
