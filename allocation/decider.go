/*
decider.go - Per-date, per-tier allocation decision

PURPOSE:
  Decide is a pure function over its inputs: given one date, one lead-time
  tier and the current working set, it computes the free space count and
  promotes the highest-priority eligible requests to Allocated.

CAPACITY ARITHMETIC:
  allocatable = totalSpaces - carveOut(tier)
  free        = allocatable - alreadyAllocated(date)   (floored at zero)

  The long-lead tier withholds the reservable carve-out so spaces remain
  releasable closer to the date; the short-lead tier allocates everything.
  Requests already Allocated are subtracted, never re-promoted, which is
  what makes re-running a pass idempotent.

OUTPUT:
  Brand-new Allocated records, full replacements for any prior record of
  the same (user, date). The decider never mutates its inputs.
*/
package allocation

import (
	"github.com/paulbulman/Parking-sub001/calendar"
)

// Decider makes the capacity-constrained decision for a single date.
type Decider struct {
	Ranker Ranker
}

// Decide promotes up to the free-space count of eligible requests for the
// given date to Allocated, in ranking order. The returned records are new;
// the caller owns merging them into its working set.
//
// A nil configuration is an invariant violation by the caller and is
// fatal, not retried.
func (d *Decider) Decide(
	date calendar.Date,
	requests []Request,
	reservations []Reservation,
	users []User,
	cfg *Configuration,
	tier LeadTimeTier,
) ([]Request, error) {
	if cfg == nil {
		return nil, ErrNoConfiguration
	}

	allocatable := cfg.TotalSpaces - tier.CarveOut(cfg)

	alreadyAllocated := 0
	for _, r := range requests {
		if r.Date.Equal(date) && r.Status == StatusAllocated {
			alreadyAllocated++
		}
	}

	free := allocatable - alreadyAllocated
	if free <= 0 {
		// Already at (or over) capacity: nothing new this pass.
		return nil, nil
	}

	ranked := d.Ranker.Rank(RankInput{
		Date:           date,
		Requests:       requests,
		Reservations:   reservations,
		Users:          users,
		NearbyDistance: cfg.NearbyDistance,
	})

	if free > len(ranked) {
		free = len(ranked)
	}

	promoted := make([]Request, 0, free)
	for _, r := range ranked[:free] {
		promoted = append(promoted, Request{
			UserID: r.UserID,
			Date:   date,
			Status: StatusAllocated,
		})
	}
	return promoted, nil
}
