// File: internal/portal/errors.go
package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a query key that fails its format check. It is
	// reported before any browser session is created.
	ErrInvalidInput = errors.New("invalid input format")

	// ErrNoData marks the portal's explicit no-data banner. It is a negative
	// outcome, not a failure.
	ErrNoData = errors.New("portal reported no data")

	// ErrSessionExpired marks a navigation that unexpectedly landed on the
	// portal's access-control page mid-flow.
	ErrSessionExpired = errors.New("portal session expired")
)

// NavigationError is returned when an expected UI element never appears
// within its timeout. It is fatal for the current query.
type NavigationError struct {
	Step     string
	Selector string
	Err      error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed at step %q (selector %q): %v", e.Step, e.Selector, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ExtractionError is returned when a result page is present but does not
// match the expected shape. It is never silently degraded to empty success.
type ExtractionError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("extraction failed on field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// malformedComposite reports a field expected to be composite that lacks its
// separator. The shape assumption comes from the remote source, so it is
// surfaced, not guessed at.
func malformedComposite(field string) *ExtractionError {
	return &ExtractionError{Field: field, Reason: "composite field is missing its '/' separator"}
}
