package domain

import (
	"errors"
	"fmt"
	"strings"
)

// UnboundedQueryMessage is the upstream rejection text that triggers query relaxation.
const UnboundedQueryMessage = "Unbounded JQL queries are not allowed"

// ValidationError reports a request rejected before any network call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError returns a ValidationError with msg.
func NewValidationError(msg string) error { return &ValidationError{Msg: msg} }

// PermissionError reports a non-admin attempting an admin-only mutation.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

// UpstreamError is a non-success response from the search endpoint.
// Body is already compacted for display.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("search failed (%d): %s", e.Status, e.Body)
}

// UnboundedQueryError is the upstream rejection of a query lacking a restriction.
// It is consumed by the fetcher's relaxation policy.
type UnboundedQueryError struct {
	*UpstreamError
}

func (e *UnboundedQueryError) Unwrap() error { return e.UpstreamError }

// ClassifyUpstream builds the error for a failed search response, distinguishing the
// unbounded-query rejection by message.
func ClassifyUpstream(status int, body string) error {
	base := &UpstreamError{Status: status, Body: body}
	if strings.Contains(strings.ToLower(body), strings.ToLower(UnboundedQueryMessage)) {
		return &UnboundedQueryError{UpstreamError: base}
	}
	return base
}

// IsUnbounded reports whether err is, or wraps, an unbounded-query rejection.
func IsUnbounded(err error) bool {
	var ue *UnboundedQueryError
	return errors.As(err, &ue)
}
