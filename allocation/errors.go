/*
errors.go - Centralized error types for the allocation engine

PURPOSE:
  All engine error types in one place. Input-integrity errors are fatal to
  the current pass and are surfaced to the invoking caller unretried; the
  engine stays safely re-runnable, so the trigger layer decides whether to
  re-invoke.

USAGE:
    if errors.Is(err, allocation.ErrNoConfiguration) {
        // capacity configuration missing: operator problem, do not retry
    }
*/
package allocation

import (
	"errors"
	"fmt"

	"github.com/paulbulman/Parking-sub001/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoConfiguration is returned when no active capacity configuration
	// exists. Allocation cannot proceed without one.
	ErrNoConfiguration = errors.New("no active configuration")

	// ErrUnknownUser is returned when a request references a user the
	// engine was not given.
	ErrUnknownUser = errors.New("request references unknown user")

	// ErrInvalidStatus is returned when a stored request carries a status
	// outside the closed enum.
	ErrInvalidStatus = errors.New("invalid request status")

	// ErrEmptyHorizon is returned when the date calculator produced no
	// dates to decide, which indicates a miswired clock or calendar.
	ErrEmptyHorizon = errors.New("allocation horizon is empty")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownUserError identifies the offending request.
type UnknownUserError struct {
	UserID UserID
	Date   calendar.Date
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("request %s on %s references unknown user", e.UserID, e.Date)
}

func (e *UnknownUserError) Unwrap() error { return ErrUnknownUser }

// InvalidStatusError identifies a record with a status outside the enum.
type InvalidStatusError struct {
	UserID UserID
	Date   calendar.Date
	Status RequestStatus
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("request %s on %s has invalid status %q", e.UserID, e.Date, e.Status)
}

func (e *InvalidStatusError) Unwrap() error { return ErrInvalidStatus }
