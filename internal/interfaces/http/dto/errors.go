package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeExportFailed is returned when a certificate document could not be produced
	ErrCodeExportFailed = "ERR_EXPORT_FAILED"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidColor is used when a brand color is not #RRGGBB
	ErrCodeInvalidColor = "ERR_INVALID_COLOR"
	// ErrCodeInvalidURL is used for malformed verification base URLs
	ErrCodeInvalidURL = "ERR_INVALID_URL"
	// ErrCodeInvalidContent is used when template markup is empty or too large
	ErrCodeInvalidContent = "ERR_INVALID_CONTENT"
	ErrCodeInvalidName    = "ERR_INVALID_NAME"
	ErrCodeInvalidScope   = "ERR_INVALID_SCOPE"
	ErrCodeInvalidSigner  = "ERR_INVALID_SIGNER"
	// ErrCodeInvalidFilename is used for signature image names with path segments
	ErrCodeInvalidFilename = "ERR_INVALID_FILENAME"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeAlreadyActive is used when activating a template that is already live
	ErrCodeAlreadyActive   = "ERR_ALREADY_ACTIVE"
	ErrCodeAlreadyInactive = "ERR_ALREADY_INACTIVE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// ErrCodeRateLimited is used when a client exceeds its request budget
const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:      http.StatusInternalServerError,
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeExportFailed: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidColor:    http.StatusBadRequest,
	ErrCodeInvalidURL:      http.StatusBadRequest,
	ErrCodeInvalidContent:  http.StatusBadRequest,
	ErrCodeInvalidName:     http.StatusBadRequest,
	ErrCodeInvalidScope:    http.StatusBadRequest,
	ErrCodeInvalidSigner:   http.StatusBadRequest,
	ErrCodeInvalidFilename: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeAlreadyActive:   http.StatusUnprocessableEntity,
	ErrCodeAlreadyInactive: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":               ErrCodeNotFound,
	"ALREADY_EXISTS":          ErrCodeAlreadyExists,
	"ALREADY_ACTIVE":          ErrCodeAlreadyActive,
	"ALREADY_INACTIVE":        ErrCodeAlreadyInactive,
	"CONCURRENT_MODIFICATION": ErrCodeConcurrencyConflict,
	"EXPORT_FAILED":           ErrCodeExportFailed,
	"FORBIDDEN":               ErrCodeForbidden,
	"UNAUTHORIZED":            ErrCodeUnauthorized,
	"INVALID_COLOR":           ErrCodeInvalidColor,
	"INVALID_CONTENT":         ErrCodeInvalidContent,
	"INVALID_FILENAME":        ErrCodeInvalidFilename,
	"INVALID_INPUT":           ErrCodeInvalidInput,
	"INVALID_NAME":            ErrCodeInvalidName,
	"INVALID_SCOPE":           ErrCodeInvalidScope,
	"INVALID_SIGNER":          ErrCodeInvalidSigner,
	"INVALID_STATE":           ErrCodeInvalidState,
	"INVALID_URL":             ErrCodeInvalidURL,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown pass through unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
