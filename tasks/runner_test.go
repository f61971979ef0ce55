package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paulbulman/Parking-sub001/store/memory"
	"github.com/paulbulman/Parking-sub001/tasks"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeTask counts its runs and advances one hour per cadence step.
type fakeTask struct {
	taskType tasks.TaskType
	runs     int
	err      error
}

func (f *fakeTask) Type() tasks.TaskType { return f.taskType }

func (f *fakeTask) Run(context.Context) error {
	f.runs++
	return f.err
}

func (f *fakeTask) NextRunTime(now time.Time) time.Time {
	return now.Add(time.Hour)
}

var testNow = time.Date(2021, time.March, 2, 10, 0, 0, 0, time.UTC)

func newRunner(store *memory.Store, taskList ...tasks.Task) *tasks.Runner {
	return &tasks.Runner{
		Store:  store,
		Tasks:  taskList,
		Now:    func() time.Time { return testNow },
		Logger: zap.NewNop(),
	}
}

func schedule(t *testing.T, store *memory.Store, taskType tasks.TaskType) tasks.Schedule {
	t.Helper()
	schedules, err := store.Schedules(context.Background())
	require.NoError(t, err)
	for _, s := range schedules {
		if s.TaskType == taskType {
			return s
		}
	}
	t.Fatalf("no schedule for %s", taskType)
	return tasks.Schedule{}
}

// =============================================================================
// DUE SELECTION AND RESCHEDULING
// =============================================================================

func TestRunDueTasks_RunsDueTaskAndAdvancesSchedule(t *testing.T) {
	// GIVEN: a schedule long past due
	store := memory.New()
	require.NoError(t, store.SaveSchedule(context.Background(), tasks.Schedule{
		TaskType:    tasks.TaskDailySummary,
		NextRunTime: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
	}))
	task := &fakeTask{taskType: tasks.TaskDailySummary}

	require.NoError(t, newRunner(store, task).RunDueTasks(context.Background()))

	assert.Equal(t, 1, task.runs)
	next := schedule(t, store, tasks.TaskDailySummary).NextRunTime
	// The new next-run time strictly increases and lands in the future
	// relative to the instant used for the due check.
	assert.True(t, next.After(testNow))
}

func TestRunDueTasks_SkipsTaskNotYetDue(t *testing.T) {
	store := memory.New()
	future := testNow.Add(2 * time.Hour)
	require.NoError(t, store.SaveSchedule(context.Background(), tasks.Schedule{
		TaskType:    tasks.TaskDailySummary,
		NextRunTime: future,
	}))
	task := &fakeTask{taskType: tasks.TaskDailySummary}

	require.NoError(t, newRunner(store, task).RunDueTasks(context.Background()))

	assert.Equal(t, 0, task.runs)
	assert.Equal(t, future, schedule(t, store, tasks.TaskDailySummary).NextRunTime)
}

func TestRunDueTasks_SeedsMissingScheduleWithoutRunning(t *testing.T) {
	store := memory.New()
	task := &fakeTask{taskType: tasks.TaskWeeklySummary}

	require.NoError(t, newRunner(store, task).RunDueTasks(context.Background()))

	assert.Equal(t, 0, task.runs)
	assert.True(t, schedule(t, store, tasks.TaskWeeklySummary).NextRunTime.After(testNow))
}

func TestRunDueTasks_FailureAbortsPassWithoutAdvancing(t *testing.T) {
	// GIVEN: two due tasks, the first of which fails
	store := memory.New()
	past := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSchedule(context.Background(), tasks.Schedule{
		TaskType: tasks.TaskDailySummary, NextRunTime: past,
	}))
	require.NoError(t, store.SaveSchedule(context.Background(), tasks.Schedule{
		TaskType: tasks.TaskWeeklySummary, NextRunTime: past,
	}))

	failing := &fakeTask{taskType: tasks.TaskDailySummary, err: errors.New("smtp down")}
	blocked := &fakeTask{taskType: tasks.TaskWeeklySummary}

	err := newRunner(store, failing, blocked).RunDueTasks(context.Background())
	require.Error(t, err)

	// The failing task's schedule is not advanced, so it stays due and is
	// retried next cycle; the task behind it never ran.
	assert.Equal(t, past, schedule(t, store, tasks.TaskDailySummary).NextRunTime)
	assert.Equal(t, 0, blocked.runs)
}
