package allocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paulbulman/Parking-sub001/allocation"
	"github.com/paulbulman/Parking-sub001/calendar"
	"github.com/paulbulman/Parking-sub001/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newOrchestrator builds an engine over the in-memory store with the
// clock pinned to Wednesday 12 Mar 2025, 09:00 London. The short window
// is {12 Mar} and the long window runs 13-21 Mar.
func newOrchestrator(t *testing.T, store *memory.Store) *allocation.Orchestrator {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	cal := calendar.NewCalculator(loc, calendar.NewHolidaySet())
	cal.Now = func() time.Time { return time.Date(2025, time.March, 12, 9, 0, 0, 0, loc) }

	return &allocation.Orchestrator{
		Calendar: cal,
		Decider:  &allocation.Decider{Ranker: allocation.FairnessRanker{}},
		Store:    store,
		Logger:   zap.NewNop(),
	}
}

func seedStore(t *testing.T, requests ...allocation.Request) *memory.Store {
	t.Helper()
	store := memory.New()
	for _, id := range []string{"a", "b", "c"} {
		store.AddUser(user(id))
	}
	store.SetConfiguration(allocation.Configuration{
		NearbyDistance:   decimal.NewFromInt(4),
		ReservableSpaces: 1,
		TotalSpaces:      2,
	})
	require.NoError(t, store.SaveRequests(context.Background(), requests))
	return store
}

func statusOf(t *testing.T, store *memory.Store, id string, d calendar.Date) allocation.RequestStatus {
	t.Helper()
	requests, err := store.RequestsInRange(context.Background(), d, d)
	require.NoError(t, err)
	for _, r := range requests {
		if r.UserID == allocation.UserID(id) {
			return r.Status
		}
	}
	t.Fatalf("no request for %s on %s", id, d)
	return ""
}

// =============================================================================
// FULL PASS BEHAVIOR
// =============================================================================

func TestRunAllocationPass_PromotesWithinTierCapacity(t *testing.T) {
	// GIVEN: 3 pending requests for the short-lead date, 2 total spaces
	store := seedStore(t, pending("a", 12), pending("b", 12), pending("c", 12))

	changed, err := newOrchestrator(t, store).RunAllocationPass(context.Background())
	require.NoError(t, err)

	// Exactly the promotions come back as changed records.
	assert.Len(t, changed, 2)
	assert.Equal(t, allocation.StatusAllocated, statusOf(t, store, "a", day(12)))
	assert.Equal(t, allocation.StatusAllocated, statusOf(t, store, "b", day(12)))
	assert.Equal(t, allocation.StatusPending, statusOf(t, store, "c", day(12)))
}

func TestRunAllocationPass_LaterDatesSeeEarlierPromotions(t *testing.T) {
	// GIVEN: a and c compete for the long-lead 13 Mar (1 allocatable space
	// after the carve-out), and a also holds the only short-lead request
	store := seedStore(t,
		pending("a", 12),
		pending("a", 13), pending("c", 13),
	)

	_, err := newOrchestrator(t, store).RunAllocationPass(context.Background())
	require.NoError(t, err)

	// a's 12 Mar promotion is visible when 13 Mar is decided, so the
	// fairness order puts c first for the single long-lead space.
	assert.Equal(t, allocation.StatusAllocated, statusOf(t, store, "a", day(12)))
	assert.Equal(t, allocation.StatusAllocated, statusOf(t, store, "c", day(13)))
	assert.Equal(t, allocation.StatusPending, statusOf(t, store, "a", day(13)))
}

func TestRunAllocationPass_Idempotent(t *testing.T) {
	// GIVEN: a pass has already run and nothing changed upstream
	store := seedStore(t, pending("a", 12), pending("b", 12), pending("c", 12))
	o := newOrchestrator(t, store)

	first, err := o.RunAllocationPass(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// WHEN: the same pass runs again
	second, err := o.RunAllocationPass(context.Background())
	require.NoError(t, err)

	// THEN: the second changed-records set is empty
	assert.Empty(t, second)
}

func TestRunAllocationPass_MissingConfiguration_IsFatal(t *testing.T) {
	store := memory.New()
	store.AddUser(user("a"))
	require.NoError(t, store.SaveRequests(context.Background(), []allocation.Request{pending("a", 12)}))

	_, err := newOrchestrator(t, store).RunAllocationPass(context.Background())
	assert.ErrorIs(t, err, allocation.ErrNoConfiguration)
}

func TestRunAllocationPass_UnknownUser_IsFatal(t *testing.T) {
	store := seedStore(t)
	require.NoError(t, store.SaveRequests(context.Background(),
		[]allocation.Request{pending("ghost", 12)}))

	_, err := newOrchestrator(t, store).RunAllocationPass(context.Background())
	assert.ErrorIs(t, err, allocation.ErrUnknownUser)
}

func TestRunAllocationPass_NeverExceedsCapacityOnAnyDate(t *testing.T) {
	// GIVEN: heavy demand across the whole horizon
	var requests []allocation.Request
	for d := 12; d <= 21; d++ {
		requests = append(requests, pending("a", d), pending("b", d), pending("c", d))
	}
	store := seedStore(t, requests...)

	_, err := newOrchestrator(t, store).RunAllocationPass(context.Background())
	require.NoError(t, err)

	all, err := store.RequestsInRange(context.Background(), day(12), day(21))
	require.NoError(t, err)

	perDate := make(map[calendar.Date]int)
	for _, r := range all {
		if r.Status == allocation.StatusAllocated {
			perDate[r.Date]++
		}
	}
	for d, n := range perDate {
		assert.LessOrEqual(t, n, 2, "over-allocated on %s", d)
	}
}
