/*
Package allocation is the parking allocation engine core.

PURPOSE:
  Allocates a fixed pool of parking spaces to competing daily requests
  across a rolling horizon. The engine is three collaborating pieces:

  - Ranker:       fairness ordering over competing requests (ranker.go)
  - Decider:      the per-date, per-tier capacity decision (decider.go)
  - Orchestrator: the full-horizon cumulative pass (orchestrator.go)

KEY CONCEPTS IN THIS FILE (types.go):
  - Request:       one user's claim on one date, with a closed status enum
  - Reservation:   a guaranteed, non-displaceable claim (configured spaces
                   are withheld from long-lead allocation for these)
  - User:          a requester; commute distance is a ranking signal
  - Configuration: capacity numbers, immutable per allocation pass
  - LeadTimeTier:  short (next 1-2 working days, no carve-out) vs long

DESIGN PRINCIPLES:
  1. Identity: at most one Request per (user, date); promotion replaces
     the whole record, it never mutates in place.
  2. Closed enum: RequestStatus transitions are exhaustively matched so an
     illegal transition is a compile- or test-time concern.
  3. Precision: distances use decimal.Decimal, never float comparisons.

SEE ALSO:
  - store.go: persistence ports consumed by the engine
  - errors.go: sentinel and structured error types
*/
package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/paulbulman/Parking-sub001/calendar"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string

// RequestKey is the identity of a request: one logical Request exists per
// (user, date) pair in any working set.
type RequestKey struct {
	UserID UserID
	Date   calendar.Date
}

// =============================================================================
// REQUEST STATUS - Closed state machine
// =============================================================================

type RequestStatus string

const (
	// StatusPending is a live request awaiting a space.
	StatusPending RequestStatus = "pending"

	// StatusAllocated is terminal for the cycle: the engine never
	// re-evaluates an allocated request downward within the same run.
	StatusAllocated RequestStatus = "allocated"

	// StatusInterrupted marks a request whose date's decision point has
	// passed without a space being found.
	StatusInterrupted RequestStatus = "interrupted"

	// StatusSoftInterrupted marks a next-day request not allocated at the
	// cutoff; a cancellation can still free a space for it.
	StatusSoftInterrupted RequestStatus = "softInterrupted"

	// StatusHardInterrupted marks a request whose date arrived without a
	// space; no further promotion is possible.
	StatusHardInterrupted RequestStatus = "hardInterrupted"

	// StatusCancelled is set only by the submission path, never by the
	// engine.
	StatusCancelled RequestStatus = "cancelled"
)

// Valid reports whether s is a member of the closed enum.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAllocated, StatusInterrupted,
		StatusSoftInterrupted, StatusHardInterrupted, StatusCancelled:
		return true
	}
	return false
}

// EligibleForAllocation reports whether a request in this status competes
// for promotion: not already allocated, not cancelled.
func (s RequestStatus) EligibleForAllocation() bool {
	switch s {
	case StatusPending, StatusInterrupted, StatusSoftInterrupted:
		return true
	case StatusAllocated, StatusHardInterrupted, StatusCancelled:
		return false
	}
	return false
}

// Interrupted reports whether s is any of the interruption statuses.
func (s RequestStatus) Interrupted() bool {
	switch s {
	case StatusInterrupted, StatusSoftInterrupted, StatusHardInterrupted:
		return true
	case StatusPending, StatusAllocated, StatusCancelled:
		return false
	}
	return false
}

// CanTransitionTo reports whether s -> next is a legal engine transition.
// Cancelled is owned by the submission path and is reachable from any
// non-terminal status there, but the engine itself never writes it.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case StatusPending:
		return next != StatusPending && next.Valid()
	case StatusInterrupted, StatusSoftInterrupted:
		return next == StatusAllocated || next == StatusHardInterrupted ||
			next == StatusCancelled
	case StatusAllocated, StatusHardInterrupted:
		return next == StatusCancelled
	case StatusCancelled:
		return false
	}
	return false
}

// =============================================================================
// DOMAIN RECORDS
// =============================================================================

// Request is one user's claim on a space for one date.
type Request struct {
	UserID UserID
	Date   calendar.Date
	Status RequestStatus
}

func (r Request) Key() RequestKey {
	return RequestKey{UserID: r.UserID, Date: r.Date}
}

// Reservation is a guaranteed claim on a space for a date. Reservations
// influence allocation indirectly: the long-lead carve-out withholds
// reservable spaces, and the ranker may use reservation presence as a
// fairness signal.
type Reservation struct {
	UserID UserID
	Date   calendar.Date
}

// User is a member of the request pool.
type User struct {
	ID           UserID
	FirstName    string
	LastName     string
	EmailAddress string

	// CommuteDistance is a ranking signal; invalid means unknown.
	CommuteDistance decimal.NullDecimal

	// IsTeamLeader marks users who enter reservations and receive the
	// reservation reminder.
	IsTeamLeader bool
}

// FullName returns "First Last" for notification rendering.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Configuration is the capacity configuration, read once per pass and
// immutable for its duration.
type Configuration struct {
	// NearbyDistance is the commute-distance threshold below which a user
	// counts as a nearby commuter.
	NearbyDistance decimal.Decimal

	// ReservableSpaces is the short-lead-time carve-out: capacity withheld
	// from long-lead allocation and released closer to the date.
	ReservableSpaces int

	// TotalSpaces is the size of the pool.
	TotalSpaces int
}

// =============================================================================
// LEAD-TIME TIERS
// =============================================================================

type LeadTimeTier int

const (
	// TierShortLeadTime covers the next 1-2 working days; every space is
	// allocatable.
	TierShortLeadTime LeadTimeTier = iota

	// TierLongLeadTime covers the further-out horizon; the reservable
	// carve-out is withheld until the date draws near.
	TierLongLeadTime
)

func (t LeadTimeTier) String() string {
	switch t {
	case TierShortLeadTime:
		return "shortLeadTime"
	case TierLongLeadTime:
		return "longLeadTime"
	}
	return "unknown"
}

// CarveOut returns the capacity withheld from this tier's decisions.
func (t LeadTimeTier) CarveOut(cfg *Configuration) int {
	switch t {
	case TierShortLeadTime:
		return 0
	case TierLongLeadTime:
		return cfg.ReservableSpaces
	}
	return 0
}
