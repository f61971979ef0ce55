package tasks_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paulbulman/Parking-sub001/allocation"
	"github.com/paulbulman/Parking-sub001/calendar"
	"github.com/paulbulman/Parking-sub001/notify"
	"github.com/paulbulman/Parking-sub001/store/memory"
	"github.com/paulbulman/Parking-sub001/tasks"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// captureSender records outbound messages.
type captureSender struct {
	mu   sync.Mutex
	sent map[string][]notify.Message
}

func newCaptureSender() *captureSender {
	return &captureSender{sent: make(map[string][]notify.Message)}
}

func (c *captureSender) Send(_ context.Context, to string, msg notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent[to] = append(c.sent[to], msg)
	return nil
}

// testCalendar pins the clock to Wednesday 12 Mar 2025, 11:30 London -
// past the short-lead cutoff, so the short window is {12 Mar, 13 Mar}.
func testCalendar(t *testing.T) *calendar.Calculator {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	c := calendar.NewCalculator(loc, calendar.NewHolidaySet())
	c.Now = func() time.Time { return time.Date(2025, time.March, 12, 11, 30, 0, 0, loc) }
	return c
}

func day(d int) calendar.Date { return calendar.NewDate(2025, time.March, d) }

func request(id string, d int, status allocation.RequestStatus) allocation.Request {
	return allocation.Request{UserID: allocation.UserID(id), Date: day(d), Status: status}
}

func seedUsers(store *memory.Store, ids ...string) {
	for _, id := range ids {
		store.AddUser(allocation.User{
			ID:           allocation.UserID(id),
			FirstName:    "User",
			LastName:     id,
			EmailAddress: id + "@example.com",
		})
	}
}

func notifier(sender notify.Sender) *notify.Notifier {
	return &notify.Notifier{Sender: sender, Logger: zap.NewNop()}
}

// =============================================================================
// STATUS UPDATER
// =============================================================================

func TestStatusUpdater_AppliesInterruptionTransitions(t *testing.T) {
	store := memory.New()
	seedUsers(store, "a", "b", "c", "d", "e")
	require.NoError(t, store.SaveRequests(context.Background(), []allocation.Request{
		request("a", 12, allocation.StatusPending),         // today, unallocated
		request("b", 13, allocation.StatusPending),         // next working day
		request("c", 11, allocation.StatusSoftInterrupted), // date passed
		request("d", 12, allocation.StatusAllocated),       // untouched
		request("e", 20, allocation.StatusPending),         // beyond next day
	}))

	task := &tasks.StatusUpdaterTask{Calendar: testCalendar(t), Store: store}
	require.NoError(t, task.Run(context.Background()))

	all, err := store.RequestsInRange(context.Background(), day(9), day(20))
	require.NoError(t, err)

	got := make(map[allocation.RequestKey]allocation.RequestStatus)
	for _, r := range all {
		got[r.Key()] = r.Status
	}
	assert.Equal(t, allocation.StatusInterrupted, got[request("a", 12, "").Key()])
	assert.Equal(t, allocation.StatusSoftInterrupted, got[request("b", 13, "").Key()])
	assert.Equal(t, allocation.StatusHardInterrupted, got[request("c", 11, "").Key()])
	assert.Equal(t, allocation.StatusAllocated, got[request("d", 12, "").Key()])
	assert.Equal(t, allocation.StatusPending, got[request("e", 20, "").Key()])
}

// =============================================================================
// NOTIFICATION TASKS
// =============================================================================

func TestDailySummary_EmailsUsersWithOutcomes(t *testing.T) {
	store := memory.New()
	seedUsers(store, "a", "b", "c")
	require.NoError(t, store.SaveRequests(context.Background(), []allocation.Request{
		request("a", 12, allocation.StatusAllocated),
		request("b", 13, allocation.StatusInterrupted),
		// c has no requests in the short window.
		request("c", 20, allocation.StatusPending),
	}))

	sender := newCaptureSender()
	task := &tasks.DailySummaryTask{Calendar: testCalendar(t), Store: store, Notifier: notifier(sender)}
	require.NoError(t, task.Run(context.Background()))

	assert.Len(t, sender.sent["a@example.com"], 1)
	assert.Len(t, sender.sent["b@example.com"], 1)
	assert.Empty(t, sender.sent["c@example.com"])
}

func TestRequestReminder_OnlyNudgesUsersWithoutUpcomingRequests(t *testing.T) {
	store := memory.New()
	seedUsers(store, "a", "b")
	require.NoError(t, store.SaveRequests(context.Background(), []allocation.Request{
		request("a", 20, allocation.StatusPending),
	}))

	sender := newCaptureSender()
	task := &tasks.RequestReminderTask{Calendar: testCalendar(t), Store: store, Notifier: notifier(sender)}
	require.NoError(t, task.Run(context.Background()))

	assert.Empty(t, sender.sent["a@example.com"])
	assert.Len(t, sender.sent["b@example.com"], 1)
}

func TestReservationReminder_NotifiesTeamLeadersWhenNoneEntered(t *testing.T) {
	store := memory.New()
	store.AddUser(allocation.User{ID: "lead", EmailAddress: "lead@example.com", IsTeamLeader: true})
	store.AddUser(allocation.User{ID: "a", EmailAddress: "a@example.com"})

	sender := newCaptureSender()
	task := &tasks.ReservationReminderTask{Calendar: testCalendar(t), Store: store, Notifier: notifier(sender)}
	require.NoError(t, task.Run(context.Background()))

	assert.Len(t, sender.sent["lead@example.com"], 1)
	assert.Empty(t, sender.sent["a@example.com"])
}

func TestReservationReminder_SilentWhenReservationsExist(t *testing.T) {
	store := memory.New()
	store.AddUser(allocation.User{ID: "lead", EmailAddress: "lead@example.com", IsTeamLeader: true})
	require.NoError(t, store.SaveReservation(context.Background(),
		allocation.Reservation{UserID: "lead", Date: day(13)}))

	sender := newCaptureSender()
	task := &tasks.ReservationReminderTask{Calendar: testCalendar(t), Store: store, Notifier: notifier(sender)}
	require.NoError(t, task.Run(context.Background()))

	assert.Empty(t, sender.sent)
}

// =============================================================================
// CADENCES
// =============================================================================

func TestTaskCadences_NextRunStrictlyInFuture(t *testing.T) {
	cal := testCalendar(t)
	store := memory.New()
	now := cal.Now()

	taskList := []tasks.Task{
		&tasks.DailySummaryTask{Calendar: cal, Store: store},
		&tasks.WeeklySummaryTask{Calendar: cal, Store: store},
		&tasks.RequestReminderTask{Calendar: cal, Store: store},
		&tasks.ReservationReminderTask{Calendar: cal, Store: store},
		&tasks.StatusUpdaterTask{Calendar: cal, Store: store},
	}
	for _, task := range taskList {
		next := task.NextRunTime(now)
		assert.True(t, next.After(now), "%s next run %s not after %s", task.Type(), next, now)
	}
}

func TestDailySummaryCadence_NextWorkingDayAtEleven(t *testing.T) {
	cal := testCalendar(t)
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	task := &tasks.DailySummaryTask{Calendar: cal, Store: memory.New()}
	next := task.NextRunTime(cal.Now())
	assert.Equal(t, time.Date(2025, time.March, 13, 11, 0, 0, 0, loc), next)
}

func TestWeeklySummaryCadence_NextThursdayAtEleven(t *testing.T) {
	cal := testCalendar(t)
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	task := &tasks.WeeklySummaryTask{Calendar: cal, Store: memory.New()}
	next := task.NextRunTime(cal.Now())
	assert.Equal(t, time.Date(2025, time.March, 13, 11, 0, 0, 0, loc), next)
}
