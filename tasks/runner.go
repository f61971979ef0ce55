/*
Package tasks is the due-schedule task runner and its recurring tasks.

PURPOSE (runner.go):
  A minimal scheduler. Each task type has one durable Schedule row holding
  its next due instant. On every invocation cycle the runner loads the
  schedules, runs every task whose due time has passed, and writes the
  task's next due time back - but only after the task succeeds.

FAILURE MODEL:
  Fail-loud. The first failing task aborts the whole pass and its schedule
  row is not advanced, so it remains due and is retried on the next
  invocation cycle. Later tasks in the same pass do not run until it is
  fixed; external retry owns recovery.

SCHEDULING:
  Next-run instants are the task's own policy ("next working day at 11:00",
  "next Thursday at 11:00") evaluated in the business time zone, computed
  from the instant used for the due check so a slow task cannot skip a
  cycle. A task with no schedule row yet is seeded rather than run.

SEE ALSO:
  - tasks.go: the concrete tasks
  - calendar/calculator.go: the next-run time helpers
*/
package tasks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TaskType identifies a schedule row.
type TaskType string

const (
	TaskDailySummary        TaskType = "dailySummary"
	TaskWeeklySummary       TaskType = "weeklySummary"
	TaskRequestReminder     TaskType = "requestReminder"
	TaskReservationReminder TaskType = "reservationReminder"
	TaskStatusUpdater       TaskType = "statusUpdater"
)

// Schedule is the durable per-task-type record of when the task next runs.
type Schedule struct {
	TaskType    TaskType
	NextRunTime time.Time
}

// ScheduleStore persists schedules keyed by task type.
type ScheduleStore interface {
	Schedules(ctx context.Context) ([]Schedule, error)
	SaveSchedule(ctx context.Context, schedule Schedule) error
}

// Task is one recurring job.
type Task interface {
	Type() TaskType

	// Run executes the task fully. An error means the task did not
	// complete and must stay due.
	Run(ctx context.Context) error

	// NextRunTime computes the next due instant after now, per the task's
	// own cadence.
	NextRunTime(now time.Time) time.Time
}

// Runner executes due tasks and advances their schedules.
type Runner struct {
	Store  ScheduleStore
	Tasks  []Task
	Now    func() time.Time
	Logger *zap.Logger
}

// RunDueTasks loads the schedules and executes every registered task
// whose next run time has passed. Registration order is the execution
// order; tasks are independent, so the order carries no meaning.
func (r *Runner) RunDueTasks(ctx context.Context) error {
	now := r.Now()

	schedules, err := r.Store.Schedules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}
	byType := make(map[TaskType]Schedule, len(schedules))
	for _, s := range schedules {
		byType[s.TaskType] = s
	}

	for _, task := range r.Tasks {
		schedule, ok := byType[task.Type()]
		if !ok {
			// First sighting of this task type: seed the schedule.
			seed := Schedule{TaskType: task.Type(), NextRunTime: task.NextRunTime(now)}
			if err := r.Store.SaveSchedule(ctx, seed); err != nil {
				return fmt.Errorf("failed to seed schedule for %s: %w", task.Type(), err)
			}
			r.Logger.Info("seeded schedule",
				zap.String("task", string(task.Type())),
				zap.Time("nextRunTime", seed.NextRunTime))
			continue
		}

		if schedule.NextRunTime.After(now) {
			continue
		}

		r.Logger.Info("running due task", zap.String("task", string(task.Type())))
		if err := task.Run(ctx); err != nil {
			// Schedule not advanced: the task stays due and is retried on
			// the next invocation cycle.
			return fmt.Errorf("task %s failed: %w", task.Type(), err)
		}

		next := Schedule{TaskType: task.Type(), NextRunTime: task.NextRunTime(now)}
		if err := r.Store.SaveSchedule(ctx, next); err != nil {
			return fmt.Errorf("failed to reschedule %s: %w", task.Type(), err)
		}
		r.Logger.Info("task complete",
			zap.String("task", string(task.Type())),
			zap.Time("nextRunTime", next.NextRunTime))
	}
	return nil
}
