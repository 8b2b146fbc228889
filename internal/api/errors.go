package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request. Screens branch on the kind, never on
// transport-specific shapes.
type Kind int

const (
	// KindNetwork: no response received.
	KindNetwork Kind = iota
	// KindValidation: 422 with field-scoped messages.
	KindValidation
	// KindAuth: 401, triggers local session clearing.
	KindAuth
	// KindServer: any other non-2xx.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Error is the single normalized error shape crossing the API boundary.
type Error struct {
	Kind    Kind
	Status  int // 0 for network errors
	Message string
	Fields  map[string][]string // populated for validation errors
	Code    string
	cause   error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// FieldMessage returns the first validation message for a form field.
func (e *Error) FieldMessage(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Retryable reports whether the failure is safe to retry automatically.
// Only connectivity failures and 5xx qualify, and callers additionally
// restrict retries to reads.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Status >= 500
}

// AsError extracts a normalized *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// IsAuthError reports whether err is a 401 rejection.
func IsAuthError(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindAuth
}

// IsValidationError reports whether err carries field-scoped messages.
func IsValidationError(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindValidation
}

// errorBody is the wire shape of non-2xx responses.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Code    string              `json:"code,omitempty"`
}

// normalizeTransport wraps a failure to obtain any response at all.
func normalizeTransport(err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: "could not reach the server",
		cause:   err,
	}
}

// normalizeStatus maps a non-2xx response to the taxonomy.
func normalizeStatus(status int, body []byte) *Error {
	var wire errorBody
	_ = json.Unmarshal(body, &wire)
	if wire.Message == "" {
		wire.Message = http.StatusText(status)
	}

	e := &Error{
		Status:  status,
		Message: wire.Message,
		Code:    wire.Code,
	}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
	case status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		e.Fields = wire.Errors
	default:
		e.Kind = KindServer
	}
	return e
}
