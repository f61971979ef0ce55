/*
orchestrator.go - Full-horizon allocation pass

PURPOSE:
  RunAllocationPass drives the Decider across the whole horizon in one
  pass: short-lead dates first, then long-lead dates, both ascending. The
  pass owns a cumulative in-memory working set: every promotion replaces
  the prior record for its (user, date) pair before the next date is
  decided, so later decisions see the effect of earlier ones.

LOAD PHASE:
  Requests and reservations are loaded for
  [firstShortLeadDate - 60 days, lastLongLeadDate]. The look-back exists
  for the ranker only: recent allocations and interruptions shape the
  fairness order even though only in-horizon dates are decided.

WRITE PHASE:
  All reads precede all writes. Exactly the changed records are persisted
  in one batch; unchanged records never travel back to storage. A repeat
  run with unchanged inputs changes nothing (already-allocated requests
  are excluded from promotion), which is the engine's whole idempotency
  story under external retries.

SEE ALSO:
  - decider.go: the per-date decision
  - calendar/calculator.go: the date windows
*/
package allocation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paulbulman/Parking-sub001/calendar"
)

// HistoryLookBackDays is how far behind the first decided date the load
// window extends, so the ranker can see recent history.
const HistoryLookBackDays = 60

// Orchestrator runs the cumulative allocation pass.
type Orchestrator struct {
	Calendar *calendar.Calculator
	Decider  *Decider
	Store    Store
	Logger   *zap.Logger
}

// workingSet is the cumulative request collection mutated date-by-date
// within one pass. It preserves load order for determinism and replaces
// records in place by (user, date).
type workingSet struct {
	requests []Request
	index    map[RequestKey]int
}

func newWorkingSet(seed []Request) *workingSet {
	ws := &workingSet{
		requests: make([]Request, 0, len(seed)),
		index:    make(map[RequestKey]int, len(seed)),
	}
	for _, r := range seed {
		ws.put(r)
	}
	return ws
}

func (ws *workingSet) put(r Request) {
	if i, ok := ws.index[r.Key()]; ok {
		ws.requests[i] = r
		return
	}
	ws.index[r.Key()] = len(ws.requests)
	ws.requests = append(ws.requests, r)
}

// RunAllocationPass computes and persists this cycle's promotions and
// returns exactly the changed records, for downstream notification.
func (o *Orchestrator) RunAllocationPass(ctx context.Context) ([]Request, error) {
	shortDates := o.Calendar.ShortLeadTimeAllocationDates()
	longDates := o.Calendar.LongLeadTimeAllocationDates()
	if len(shortDates) == 0 {
		return nil, ErrEmptyHorizon
	}

	from := shortDates[0].AddDays(-HistoryLookBackDays)
	to := shortDates[len(shortDates)-1]
	if len(longDates) > 0 {
		to = longDates[len(longDates)-1]
	}

	requests, err := o.Store.RequestsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	reservations, err := o.Store.ReservationsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}
	users, err := o.Store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	cfg, err := o.Store.Configuration(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validateInputs(requests, users); err != nil {
		return nil, err
	}

	ws := newWorkingSet(requests)
	var changed []Request

	decide := func(dates []calendar.Date, tier LeadTimeTier) error {
		for _, date := range dates {
			promoted, err := o.Decider.Decide(date, ws.requests, reservations, users, cfg, tier)
			if err != nil {
				return fmt.Errorf("decision for %s failed: %w", date, err)
			}
			for _, r := range promoted {
				ws.put(r)
				changed = append(changed, r)
			}
		}
		return nil
	}

	if err := decide(shortDates, TierShortLeadTime); err != nil {
		return nil, err
	}
	if err := decide(longDates, TierLongLeadTime); err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		if err := o.Store.SaveRequests(ctx, changed); err != nil {
			return nil, fmt.Errorf("failed to save changed requests: %w", err)
		}
	}

	o.Logger.Info("allocation pass complete",
		zap.Int("shortLeadDates", len(shortDates)),
		zap.Int("longLeadDates", len(longDates)),
		zap.Int("requestsLoaded", len(requests)),
		zap.Int("changed", len(changed)))

	return changed, nil
}

// validateInputs enforces the input-integrity rules: every request must
// reference a known user and carry a status from the closed enum.
func validateInputs(requests []Request, users []User) error {
	known := make(map[UserID]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	for _, r := range requests {
		if !known[r.UserID] {
			return &UnknownUserError{UserID: r.UserID, Date: r.Date}
		}
		if !r.Status.Valid() {
			return &InvalidStatusError{UserID: r.UserID, Date: r.Date, Status: r.Status}
		}
	}
	return nil
}
