package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ideahub/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeForbidden       = "forbidden"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeCodeExpired     = "code_expired"
	ErrCodeWrongCode       = "wrong_code"
	ErrCodeTooManyAttempts = "too_many_attempts"
	ErrCodeInternalError   = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Data:  nil,
		Error: &APIError{Code: code, Message: message},
	})
}

// WriteDomainError maps a service-layer error to its HTTP representation.
// Anything unmapped is a 500 with a generic message, never the raw error text.
func WriteDomainError(w http.ResponseWriter, err error) {
	var ce *domain.ConflictError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidToken):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials or token")
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "insufficient role")
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrCodeExpired):
		WriteJSONError(w, http.StatusGone, ErrCodeCodeExpired, "verification code expired")
	case errors.Is(err, domain.ErrTooManyAttempts):
		WriteJSONError(w, http.StatusTooManyRequests, ErrCodeTooManyAttempts, "too many wrong attempts")
	case errors.Is(err, domain.ErrWrongCode):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeWrongCode, "wrong verification code")
	case errors.Is(err, domain.ErrDuplicateEmail):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, "email already in use")
	case errors.As(err, &ce):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, ce.Message)
	default:
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}

// IsInternal reports whether WriteDomainError would answer err with a 500.
// Controllers use it to decide what deserves an error log.
func IsInternal(err error) bool {
	var ce *domain.ConflictError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrTooManyAttempts),
		errors.Is(err, domain.ErrWrongCode),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.As(err, &ce):
		return false
	}
	return true
}
