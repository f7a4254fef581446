package client

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized marks a 401 response. The session has already been ended by the
// time a caller sees it.
var ErrUnauthorized = errors.New("unauthorized")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes ErrUnauthorized for 401 responses.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return code == http.StatusUnprocessableEntity
	}
	return false
}

// ValidationError is a 422 response. Fields is passed through exactly as the API sent it.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("HTTP 422: %s", e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return fmt.Sprintf("HTTP 422: %s", strings.Join(parts, "; "))
}

// First returns the first message for field, or "".
func (e *ValidationError) First(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Outcome is the class of a gateway call result.
type Outcome int

// Outcomes, one per failure class plus success.
const (
	OutcomeOK Outcome = iota
	OutcomeValidation
	OutcomeAuth
	OutcomeTransport
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeValidation:
		return "validation"
	case OutcomeAuth:
		return "auth"
	default:
		return "transport"
	}
}

// Classify maps any error returned by Client to an Outcome. Errors that are neither
// validation nor authorization failures count as transport failures, so a non-nil
// error never classifies as OutcomeOK.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return OutcomeValidation
	}
	if errors.Is(err, ErrUnauthorized) {
		return OutcomeAuth
	}
	return OutcomeTransport
}

// AsValidation returns the ValidationError inside err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr, true
	}
	return nil, false
}
