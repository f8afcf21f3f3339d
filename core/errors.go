package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error returned by the PromptQL API with full context.
type APIError struct {
	Status    int
	RequestID string
	Code      string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("promptql: %s (status=%d, code=%s, request_id=%s)",
			e.Message, e.Status, e.Code, e.RequestID)
	}
	return fmt.Sprintf("promptql: %s (status=%d, code=%s)",
		e.Message, e.Status, e.Code)
}

// Unwrap returns the underlying error for error chaining.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Sentinel errors for classification.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
	ErrDecode       = errors.New("decode error")
)

// Configuration errors, returned by New.
var (
	ErrAPIKeyRequired      = errors.New("api key required: pass the PromptQL API key to core.New")
	ErrConflictingVersions = errors.New("conflicting configuration: v1 options (ddn url, llm provider) cannot be combined with v2 build selectors")
	ErrConflictingBuild    = errors.New("conflicting configuration: set at most one of build id and build version")
	ErrIncompleteV1Config  = errors.New("incomplete v1 configuration: both the ddn url and an llm provider are required")
)

// Validation errors with actionable guidance.
var (
	ErrEmptyMessage = errors.New("empty message: pass a non-empty message to Client.Query or Conversation.SendMessage")
)

// apiErrorResponse is the vendor error envelope. Errors are usually a plain
// string under "error", but some gateway responses use "message".
type apiErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// normalizeError converts an HTTP error response to an APIError with the
// appropriate sentinel.
func normalizeError(status int, body []byte, requestID string) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	message := errResp.Error
	if message == "" {
		message = errResp.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	code := errResp.Code
	if code == "" {
		code = "api_error"
	}

	return &APIError{
		Status:    status,
		RequestID: requestID,
		Code:      code,
		Message:   message,
		Err:       sentinelForStatus(status),
	}
}

// sentinelForStatus maps an HTTP status code to a sentinel error.
func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrServer
	}
}

// newNetworkError creates an APIError for transport failures.
func newNetworkError(err error) error {
	return &APIError{
		Code:    "network_error",
		Message: err.Error(),
		Err:     ErrNetwork,
	}
}

// newDecodeError creates an APIError for JSON decode failures.
func newDecodeError(err error) error {
	return &APIError{
		Code:    "decode_error",
		Message: err.Error(),
		Err:     ErrDecode,
	}
}
