package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeMalformedURL = "MALFORMED_URL"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Fetch failures. Any of these moves a URL to its next retrieval method.
	ErrCodeConnection   = "CONNECTION_FAILED"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeTLS          = "TLS_HANDSHAKE_FAILED"
	ErrCodeHTTPStatus   = "HTTP_ERROR"
	ErrCodeContentType  = "UNSUPPORTED_CONTENT_TYPE"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeNoBackend    = "NO_BROWSER_BACKEND"
	ErrCodeUnknown      = "UNKNOWN"

	// Content-quality failures are handled exactly like fetch failures.
	ErrCodeContentTooShort = "CONTENT_TOO_SHORT"
	ErrCodeExtraction      = "CONTENT_EXTRACTION_FAILED"
	ErrCodeDuplicate       = "DUPLICATE_CONTENT"
	ErrCodeCancelled       = "CANCELLED"

	// Profile generation.
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILED"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// HTTPStatus maps the error code to the status the API answers with.
func (e *ScrapeError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidInput, ErrCodeMalformedURL:
		return http.StatusBadRequest
	case ErrCodeUnauthorized, ErrCodeLLMAuthFailure:
		return http.StatusUnauthorized
	case ErrCodeRateLimited, ErrCodeLLMRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeCancelled:
		return http.StatusServiceUnavailable
	case ErrCodeContentTooShort, ErrCodeExtraction:
		return http.StatusUnprocessableEntity
	case ErrCodeInternal, ErrCodeBrowserCrash:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// CodeOf returns the code of the first ScrapeError in err's chain,
// ErrCodeUnknown if there is none, or "" for a nil error.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeUnknown
}
