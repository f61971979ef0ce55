/*
store.go - Persistence ports consumed by the engine

PURPOSE:
  Defines the interfaces between the engine and storage. The engine loads
  everything it needs up front, decides in memory, and writes back exactly
  the changed records in one batch; durability and partial-failure
  handling belong to the implementation.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - store/memory: in-memory for tests and dev

SEE ALSO:
  - orchestrator.go: the only writer of requests in the engine
*/
package allocation

import (
	"context"

	"github.com/paulbulman/Parking-sub001/calendar"
)

// RequestStore reads and writes request records.
type RequestStore interface {
	// RequestsInRange returns every request whose date is in [from, to].
	RequestsInRange(ctx context.Context, from, to calendar.Date) ([]Request, error)

	// SaveRequests upserts the given records in one batch, keyed by
	// (userId, date). All-or-nothing.
	SaveRequests(ctx context.Context, requests []Request) error
}

// ReservationStore reads reservation records.
type ReservationStore interface {
	ReservationsInRange(ctx context.Context, from, to calendar.Date) ([]Reservation, error)
	SaveReservation(ctx context.Context, reservation Reservation) error
}

// UserStore reads the user pool.
type UserStore interface {
	Users(ctx context.Context) ([]User, error)
}

// ConfigurationStore reads the single active configuration.
// Returns ErrNoConfiguration when none exists.
type ConfigurationStore interface {
	Configuration(ctx context.Context) (*Configuration, error)
}

// BankHolidayStore reads the bank-holiday exclusion list.
type BankHolidayStore interface {
	BankHolidays(ctx context.Context) ([]calendar.Date, error)
}

// Store is the full read/write surface the engine and its surrounding
// tasks need.
type Store interface {
	RequestStore
	ReservationStore
	UserStore
	ConfigurationStore
	BankHolidayStore
}
