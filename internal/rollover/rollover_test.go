package rollover

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dayplan/internal/task"
)

func TestDaysLate(t *testing.T) {
	require.Equal(t, 3, DaysLate("2024-01-05", "2024-01-08"))
	require.Zero(t, DaysLate("2024-01-08", "2024-01-08"))
	require.Zero(t, DaysLate("2024-01-09", "2024-01-08"))
	require.Zero(t, DaysLate("garbage", "2024-01-08"))
}

func TestStandaloneRollsForward(t *testing.T) {
	s := &task.MasterTask{
		ID:             "s1",
		Title:          "errand",
		Date:           "2024-01-05",
		CompletedDates: []string{},
		ExceptionDates: []string{},
	}
	actions := ComputeActions([]*task.MasterTask{s}, "2024-01-08", 60)
	require.Len(t, actions.Updates, 1)
	require.Empty(t, actions.Creations)

	up := actions.Updates[0]
	require.Equal(t, "s1", up.ID)
	require.Equal(t, "2024-01-08", up.Date)
	require.Equal(t, 3, up.DaysRolled)
	// Pure: the input task is untouched.
	require.Equal(t, "2024-01-05", s.Date)
}

func TestStandaloneDaysRolledAccumulates(t *testing.T) {
	s := &task.MasterTask{ID: "s1", Title: "x", Date: "2024-01-07", DaysRolled: 4}
	actions := ComputeActions([]*task.MasterTask{s}, "2024-01-08", 60)
	require.Len(t, actions.Updates, 1)
	require.Equal(t, 5, actions.Updates[0].DaysRolled)
}

func TestCompletedStandaloneNotRolled(t *testing.T) {
	s := &task.MasterTask{ID: "s1", Title: "x", Date: "2024-01-05", CompletedDates: []string{"2024-01-05"}}
	require.True(t, ComputeActions([]*task.MasterTask{s}, "2024-01-08", 60).Empty())
}

func TestTodayAndFutureNotRolled(t *testing.T) {
	today := &task.MasterTask{ID: "a", Title: "x", Date: "2024-01-08"}
	future := &task.MasterTask{ID: "b", Title: "y", Date: "2024-01-09"}
	require.True(t, ComputeActions([]*task.MasterTask{today, future}, "2024-01-08", 60).Empty())
}

func TestLookbackWindowBoundsScan(t *testing.T) {
	old := &task.MasterTask{ID: "a", Title: "x", Date: "2024-01-01"}
	actions := ComputeActions([]*task.MasterTask{old}, "2024-01-08", 3)
	require.True(t, actions.Empty(), "tasks older than the lookback window are left alone")
}

func TestRecurringDetachAndForward(t *testing.T) {
	// Weekly Mon/Wed/Fri anchored Monday 2024-01-01; today is Friday
	// 2024-01-05 and Wednesday 01-03 was missed.
	m := &task.MasterTask{
		ID:             "m1",
		Title:          "workout",
		Date:           "2024-01-01",
		RecurrenceRule: "FREQ=WEEKLY;BYDAY=MO,WE,FR",
		Subtasks:       []task.Subtask{{ID: "st1", Title: "warm up", Done: true}},
		CompletedDates: []string{"2024-01-01"},
		ExceptionDates: []string{},
	}
	actions := ComputeActions([]*task.MasterTask{m}, "2024-01-05", 30)

	require.Len(t, actions.Updates, 1)
	require.Contains(t, actions.Updates[0].ExceptionDates, "2024-01-03")

	require.Len(t, actions.Creations, 1)
	c := actions.Creations[0]
	require.Equal(t, "2024-01-05", c.Date)
	require.Equal(t, 2, c.DaysRolled)
	require.Empty(t, c.RecurrenceRule)
	require.Equal(t, "m1", c.OriginalTaskID)
	require.Equal(t, "m1", c.SeriesID)
	require.NotEqual(t, "m1", c.ID)

	// Subtasks cloned with fresh ids and completion reset from the
	// template.
	require.Len(t, c.Subtasks, 1)
	require.NotEqual(t, "st1", c.Subtasks[0].ID)
	require.False(t, c.Subtasks[0].Done)
}

func TestRecurringBatchesExceptionsPerMaster(t *testing.T) {
	m := &task.MasterTask{
		ID:             "m1",
		Title:          "daily",
		Date:           "2024-01-01",
		RecurrenceRule: "FREQ=DAILY",
		CompletedDates: []string{},
		ExceptionDates: []string{},
	}
	actions := ComputeActions([]*task.MasterTask{m}, "2024-01-05", 3)
	// 01-02, 01-03, 01-04 missed: one update, three creations.
	require.Len(t, actions.Updates, 1)
	require.ElementsMatch(t, []string{"2024-01-02", "2024-01-03", "2024-01-04"}, actions.Updates[0].ExceptionDates)
	require.Len(t, actions.Creations, 3)
}

func TestRecurringUsesInstanceOverrides(t *testing.T) {
	m := &task.MasterTask{
		ID:             "m1",
		Title:          "series",
		Date:           "2024-01-01",
		RecurrenceRule: "FREQ=DAILY",
		Subtasks:       []task.Subtask{{ID: "st1", Title: "template"}},
		InstanceSubtasks: map[string][]task.Subtask{
			"2024-01-04": {{ID: "st2", Title: "diverged", Done: true}},
		},
		InstanceProgress: map[string]int{"2024-01-04": 70},
	}
	actions := ComputeActions([]*task.MasterTask{m}, "2024-01-05", 1)
	require.Len(t, actions.Creations, 1)
	c := actions.Creations[0]
	require.Equal(t, "diverged", c.Subtasks[0].Title)
	require.True(t, c.Subtasks[0].Done, "override completion state carries over")
	require.Equal(t, 70, c.Progress)
}

func TestRolloverIdempotentAfterApply(t *testing.T) {
	m := &task.MasterTask{
		ID:             "m1",
		Title:          "daily",
		Date:           "2024-01-01",
		RecurrenceRule: "FREQ=DAILY",
	}
	s := &task.MasterTask{ID: "s1", Title: "solo", Date: "2024-01-03"}

	first := ComputeActions([]*task.MasterTask{m, s}, "2024-01-05", 30)
	require.False(t, first.Empty())

	// Apply the result the way a host would, then run again with the
	// same today: nothing is reprocessed.
	applied := map[string]*task.MasterTask{"m1": m, "s1": s}
	for _, up := range first.Updates {
		applied[up.ID] = up
	}
	next := make([]*task.MasterTask, 0, len(applied)+len(first.Creations))
	for _, t2 := range applied {
		next = append(next, t2)
	}
	next = append(next, first.Creations...)

	second := ComputeActions(next, "2024-01-05", 30)
	require.Empty(t, second.Creations)
	require.Empty(t, second.Updates)
}

func TestUnparsableRuleSkipsOnlyThatMaster(t *testing.T) {
	broken := &task.MasterTask{ID: "b1", Title: "broken", Date: "2024-01-01", RecurrenceRule: "nonsense"}
	s := &task.MasterTask{ID: "s1", Title: "solo", Date: "2024-01-03"}
	actions := ComputeActions([]*task.MasterTask{broken, s}, "2024-01-05", 30)
	require.Len(t, actions.Updates, 1)
	require.Equal(t, "s1", actions.Updates[0].ID)
	require.Empty(t, actions.Creations)
}
