/*
tasks.go - The recurring tasks

PURPOSE:
  Concrete Task implementations driven by the Runner. The notification
  tasks consume the engine's persisted output and render it through the
  notify package; the status updater applies the interruption transitions
  at the daily cutoff. None of them make allocation decisions.

CADENCES (business time zone):
  dailySummary         next working day at 11:00
  weeklySummary        next Thursday at 11:00
  requestReminder      next Wednesday at 10:00
  reservationReminder  next working day at 10:00
  statusUpdater        next working day at 11:00
*/
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/paulbulman/Parking-sub001/allocation"
	"github.com/paulbulman/Parking-sub001/calendar"
	"github.com/paulbulman/Parking-sub001/notify"
)

// outcomesByUser splits a window's requests into allocated and
// interrupted dates per user. Pending requests are not an outcome yet and
// are skipped; cancelled requests are the user's own doing.
func outcomesByUser(requests []allocation.Request, window []calendar.Date) map[allocation.UserID]*userOutcome {
	inWindow := make(map[calendar.Date]bool, len(window))
	for _, d := range window {
		inWindow[d] = true
	}

	out := make(map[allocation.UserID]*userOutcome)
	for _, r := range requests {
		if !inWindow[r.Date] {
			continue
		}
		o := out[r.UserID]
		if o == nil {
			o = &userOutcome{}
			out[r.UserID] = o
		}
		switch {
		case r.Status == allocation.StatusAllocated:
			o.allocated = append(o.allocated, r.Date)
		case r.Status.Interrupted():
			o.interrupted = append(o.interrupted, r.Date)
		}
	}
	return out
}

type userOutcome struct {
	allocated   []calendar.Date
	interrupted []calendar.Date
}

func (o *userOutcome) empty() bool {
	return len(o.allocated) == 0 && len(o.interrupted) == 0
}

// =============================================================================
// DAILY SUMMARY
// =============================================================================

// DailySummaryTask emails each user their outcome for the short-lead
// dates once the 11:00 release has run.
type DailySummaryTask struct {
	Calendar *calendar.Calculator
	Store    allocation.Store
	Notifier *notify.Notifier
}

func (t *DailySummaryTask) Type() TaskType { return TaskDailySummary }

func (t *DailySummaryTask) NextRunTime(now time.Time) time.Time {
	return t.Calendar.NextWorkingTime(now, 11, 0)
}

func (t *DailySummaryTask) Run(ctx context.Context) error {
	window := t.Calendar.ShortLeadTimeAllocationDates()
	return t.sendSummaries(ctx, window, notify.DailySummary)
}

func (t *DailySummaryTask) sendSummaries(
	ctx context.Context,
	window []calendar.Date,
	build func(string, []calendar.Date, []calendar.Date) (notify.Message, error),
) error {
	if len(window) == 0 {
		return nil
	}
	requests, err := t.Store.RequestsInRange(ctx, window[0], window[len(window)-1])
	if err != nil {
		return fmt.Errorf("failed to load requests: %w", err)
	}
	users, err := t.Store.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	outcomes := outcomesByUser(requests, window)
	for _, u := range users {
		o, ok := outcomes[u.ID]
		if !ok || o.empty() {
			continue
		}
		msg, err := build(u.FullName(), o.allocated, o.interrupted)
		if err != nil {
			return err
		}
		t.Notifier.Notify(ctx, u.EmailAddress, msg)
	}
	return nil
}

// =============================================================================
// WEEKLY SUMMARY
// =============================================================================

// WeeklySummaryTask emails each user their long-lead outcomes over the
// weekly notification window.
type WeeklySummaryTask struct {
	Calendar *calendar.Calculator
	Store    allocation.Store
	Notifier *notify.Notifier
}

func (t *WeeklySummaryTask) Type() TaskType { return TaskWeeklySummary }

func (t *WeeklySummaryTask) NextRunTime(now time.Time) time.Time {
	return t.Calendar.NextWeeklyTime(now, time.Thursday, 11, 0)
}

func (t *WeeklySummaryTask) Run(ctx context.Context) error {
	daily := DailySummaryTask{Calendar: t.Calendar, Store: t.Store, Notifier: t.Notifier}
	return daily.sendSummaries(ctx, t.Calendar.WeeklyNotificationDates(), notify.WeeklySummary)
}

// =============================================================================
// REQUEST REMINDER
// =============================================================================

// RequestReminderTask nudges users with no live requests in the upcoming
// active window.
type RequestReminderTask struct {
	Calendar *calendar.Calculator
	Store    allocation.Store
	Notifier *notify.Notifier
}

func (t *RequestReminderTask) Type() TaskType { return TaskRequestReminder }

func (t *RequestReminderTask) NextRunTime(now time.Time) time.Time {
	return t.Calendar.NextWeeklyTime(now, time.Wednesday, 10, 0)
}

func (t *RequestReminderTask) Run(ctx context.Context) error {
	active := t.Calendar.ActiveDates()
	if len(active) == 0 {
		return nil
	}
	first := t.Calendar.NextWorkingDate()
	last := active[len(active)-1]

	requests, err := t.Store.RequestsInRange(ctx, first, last)
	if err != nil {
		return fmt.Errorf("failed to load requests: %w", err)
	}
	users, err := t.Store.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	hasRequest := make(map[allocation.UserID]bool)
	for _, r := range requests {
		if r.Status != allocation.StatusCancelled {
			hasRequest[r.UserID] = true
		}
	}

	for _, u := range users {
		if hasRequest[u.ID] {
			continue
		}
		msg, err := notify.RequestReminder(u.FullName(), first, last)
		if err != nil {
			return err
		}
		t.Notifier.Notify(ctx, u.EmailAddress, msg)
	}
	return nil
}

// =============================================================================
// RESERVATION REMINDER
// =============================================================================

// ReservationReminderTask nudges team leaders when no reservations have
// been entered for the next working day.
type ReservationReminderTask struct {
	Calendar *calendar.Calculator
	Store    allocation.Store
	Notifier *notify.Notifier
}

func (t *ReservationReminderTask) Type() TaskType { return TaskReservationReminder }

func (t *ReservationReminderTask) NextRunTime(now time.Time) time.Time {
	return t.Calendar.NextWorkingTime(now, 10, 0)
}

func (t *ReservationReminderTask) Run(ctx context.Context) error {
	date := t.Calendar.NextWorkingDate()

	reservations, err := t.Store.ReservationsInRange(ctx, date, date)
	if err != nil {
		return fmt.Errorf("failed to load reservations: %w", err)
	}
	if len(reservations) > 0 {
		return nil
	}

	users, err := t.Store.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		if !u.IsTeamLeader {
			continue
		}
		msg, err := notify.ReservationReminder(u.FullName(), date)
		if err != nil {
			return err
		}
		t.Notifier.Notify(ctx, u.EmailAddress, msg)
	}
	return nil
}

// =============================================================================
// STATUS UPDATER
// =============================================================================

// StatusUpdaterTask applies the interruption transitions at the daily
// cutoff: requests still pending for the current date become Interrupted,
// next-working-day pending requests become SoftInterrupted (a
// cancellation can still free a space), and soft interruptions whose date
// has arrived harden.
type StatusUpdaterTask struct {
	Calendar *calendar.Calculator
	Store    allocation.Store
}

func (t *StatusUpdaterTask) Type() TaskType { return TaskStatusUpdater }

func (t *StatusUpdaterTask) NextRunTime(now time.Time) time.Time {
	return t.Calendar.NextWorkingTime(now, 11, 0)
}

func (t *StatusUpdaterTask) Run(ctx context.Context) error {
	today := t.Calendar.Today()
	next := t.Calendar.NextWorkingDate()

	// Reach a few days back so soft interruptions left over a weekend
	// still harden.
	requests, err := t.Store.RequestsInRange(ctx, today.AddDays(-3), next)
	if err != nil {
		return fmt.Errorf("failed to load requests: %w", err)
	}

	var changed []allocation.Request
	for _, r := range requests {
		var status allocation.RequestStatus
		switch {
		case r.Status == allocation.StatusSoftInterrupted && !r.Date.After(today):
			status = allocation.StatusHardInterrupted
		case r.Status == allocation.StatusPending && r.Date.Equal(today):
			status = allocation.StatusInterrupted
		case r.Status == allocation.StatusPending && r.Date.Equal(next):
			status = allocation.StatusSoftInterrupted
		default:
			continue
		}
		changed = append(changed, allocation.Request{UserID: r.UserID, Date: r.Date, Status: status})
	}

	if len(changed) == 0 {
		return nil
	}
	if err := t.Store.SaveRequests(ctx, changed); err != nil {
		return fmt.Errorf("failed to save status updates: %w", err)
	}
	return nil
}
