package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulbulman/Parking-sub001/allocation"
	"github.com/paulbulman/Parking-sub001/calendar"
	"github.com/paulbulman/Parking-sub001/store/sqlite"
	"github.com/paulbulman/Parking-sub001/tasks"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(d int) calendar.Date { return calendar.NewDate(2025, time.March, d) }

func seedUser(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	require.NoError(t, store.SaveUser(context.Background(), allocation.User{
		ID:           allocation.UserID(id),
		FirstName:    "User",
		LastName:     id,
		EmailAddress: id + "@example.com",
	}))
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestRequests_UpsertReplacesPriorRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "a")

	require.NoError(t, store.SaveRequests(ctx, []allocation.Request{
		{UserID: "a", Date: day(12), Status: allocation.StatusPending},
	}))
	require.NoError(t, store.SaveRequests(ctx, []allocation.Request{
		{UserID: "a", Date: day(12), Status: allocation.StatusAllocated},
	}))

	got, err := store.RequestsInRange(ctx, day(12), day(12))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, allocation.StatusAllocated, got[0].Status)
}

func TestRequests_RangeQueryIsInclusive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "a")

	require.NoError(t, store.SaveRequests(ctx, []allocation.Request{
		{UserID: "a", Date: day(11), Status: allocation.StatusPending},
		{UserID: "a", Date: day(12), Status: allocation.StatusPending},
		{UserID: "a", Date: day(13), Status: allocation.StatusPending},
	}))

	got, err := store.RequestsInRange(ctx, day(11), day(12))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

// =============================================================================
// USERS AND CONFIGURATION
// =============================================================================

func TestUsers_RoundTripWithCommuteDistance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := allocation.User{
		ID:              "a",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		EmailAddress:    "ada@example.com",
		CommuteDistance: decimal.NewNullDecimal(decimal.RequireFromString("3.7")),
		IsTeamLeader:    true,
	}
	require.NoError(t, store.SaveUser(ctx, u))

	got, err := store.Users(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, u.EmailAddress, got[0].EmailAddress)
	assert.True(t, got[0].IsTeamLeader)
	require.True(t, got[0].CommuteDistance.Valid)
	assert.True(t, got[0].CommuteDistance.Decimal.Equal(u.CommuteDistance.Decimal))
}

func TestConfiguration_MissingRowIsSentinelError(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Configuration(context.Background())
	assert.ErrorIs(t, err, allocation.ErrNoConfiguration)
}

func TestConfiguration_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg := allocation.Configuration{
		NearbyDistance:   decimal.RequireFromString("3.5"),
		ReservableSpaces: 2,
		TotalSpaces:      9,
	}
	require.NoError(t, store.SaveConfiguration(ctx, cfg))

	got, err := store.Configuration(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, got.TotalSpaces)
	assert.Equal(t, 2, got.ReservableSpaces)
	assert.True(t, got.NearbyDistance.Equal(cfg.NearbyDistance))
}

// =============================================================================
// SCHEDULES AND BANK HOLIDAYS
// =============================================================================

func TestSchedules_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2025, time.March, 13, 11, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSchedule(ctx, tasks.Schedule{
		TaskType:    tasks.TaskDailySummary,
		NextRunTime: at,
	}))

	got, err := store.Schedules(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tasks.TaskDailySummary, got[0].TaskType)
	assert.True(t, got[0].NextRunTime.Equal(at))
}

func TestBankHolidays_DuplicateSeedIsIgnored(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBankHolidays(ctx, []calendar.Date{day(17), day(18)}))
	require.NoError(t, store.SaveBankHolidays(ctx, []calendar.Date{day(17)}))

	got, err := store.BankHolidays(ctx)
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{day(17), day(18)}, got)
}
