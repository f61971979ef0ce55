/*
ranker.go - Fairness ordering over competing requests

PURPOSE:
  The Ranker turns the full known history (requests, reservations, users)
  into a total priority order over the requests competing for one date.
  The Decider takes a strict prefix of that order, so two properties are
  load-bearing:

  DETERMINISM:
    Identical inputs must produce an identical order. Ties resolve by
    userId, so input ordering never leaks into the result.

  ELIGIBILITY:
    Only requests for the target date that are neither allocated nor
    cancelled (nor hard-interrupted) appear in the output.

  The concrete fairness policy is deliberately pluggable; FairnessRanker
  below is the default, injected at wiring time.
*/
package allocation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/paulbulman/Parking-sub001/calendar"
)

// RankInput is everything a ranking policy may consult.
type RankInput struct {
	// Date is the target date whose requests are being ordered.
	Date calendar.Date

	// Requests is the full working set: all statuses, all dates in scope,
	// including the look-back history.
	Requests []Request

	// Reservations in scope.
	Reservations []Reservation

	// Users in the pool.
	Users []User

	// NearbyDistance is the configured commute-distance threshold.
	NearbyDistance decimal.Decimal
}

// Ranker produces a total, deterministic priority order over the eligible
// requests for the target date, highest priority first.
type Ranker interface {
	Rank(in RankInput) []Request
}

// =============================================================================
// FAIRNESS RANKER - Default policy
// =============================================================================

// FairnessRanker orders eligible requests by, in turn:
//  1. fewest allocations in the visible history (ascending)
//  2. interruptions suffered in the visible history (descending)
//  3. users without a reservation on the date before users with one
//  4. far commuters before nearby commuters
//  5. userId ascending
type FairnessRanker struct{}

func (FairnessRanker) Rank(in RankInput) []Request {
	users := make(map[UserID]User, len(in.Users))
	for _, u := range in.Users {
		users[u.ID] = u
	}

	reserved := make(map[UserID]bool)
	for _, res := range in.Reservations {
		if res.Date.Equal(in.Date) {
			reserved[res.UserID] = true
		}
	}

	// Per-user history tallies over every request the engine can see.
	allocated := make(map[UserID]int)
	interrupted := make(map[UserID]int)
	for _, r := range in.Requests {
		switch {
		case r.Status == StatusAllocated:
			allocated[r.UserID]++
		case r.Status.Interrupted():
			interrupted[r.UserID]++
		}
	}

	// Users with an unknown commute distance count as far commuters.
	nearby := func(id UserID) bool {
		u, ok := users[id]
		if !ok || !u.CommuteDistance.Valid {
			return false
		}
		return u.CommuteDistance.Decimal.LessThanOrEqual(in.NearbyDistance)
	}

	var candidates []Request
	for _, r := range in.Requests {
		if r.Date.Equal(in.Date) && r.Status.EligibleForAllocation() {
			candidates = append(candidates, r)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if allocated[a.UserID] != allocated[b.UserID] {
			return allocated[a.UserID] < allocated[b.UserID]
		}
		if interrupted[a.UserID] != interrupted[b.UserID] {
			return interrupted[a.UserID] > interrupted[b.UserID]
		}
		if reserved[a.UserID] != reserved[b.UserID] {
			return !reserved[a.UserID]
		}
		if na, nb := nearby(a.UserID), nearby(b.UserID); na != nb {
			return !na
		}
		return a.UserID < b.UserID
	})
	return candidates
}
