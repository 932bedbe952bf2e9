package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dayplan/internal/clock"
	"git.home.luguber.info/inful/dayplan/internal/eventbus"
	"git.home.luguber.info/inful/dayplan/internal/store"
	"git.home.luguber.info/inful/dayplan/internal/task"
)

type captureBus struct {
	events []eventbus.Event
}

func (b *captureBus) Publish(_ context.Context, ev eventbus.Event) error {
	b.events = append(b.events, ev)
	return nil
}

func (b *captureBus) Close() error { return nil }

func newTestPlanner(t *testing.T, today string, seed ...*task.MasterTask) (*Planner, *store.MemoryStore, *captureBus) {
	t.Helper()
	st := store.NewMemoryStore(seed...)
	bus := &captureBus{}
	p := New(st,
		WithClock(clock.NewFixedDate(today)),
		WithEventBus(bus),
		WithLookbackDays(60))
	return p, st, bus
}

func mustLoad(t *testing.T, st *store.MemoryStore) []*task.MasterTask {
	t.Helper()
	tasks, err := st.Load(context.Background())
	require.NoError(t, err)
	return tasks
}

func findByID(tasks []*task.MasterTask, id string) *task.MasterTask {
	for _, tk := range tasks {
		if tk.ID == id {
			return tk
		}
	}
	return nil
}

func TestAddAssignsIDAndDate(t *testing.T) {
	p, st, bus := newTestPlanner(t, "2024-03-10")

	id, err := p.Add(context.Background(), &task.MasterTask{Title: "water plants"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	tasks := mustLoad(t, st)
	require.Len(t, tasks, 1)
	require.Equal(t, "water plants", tasks[0].Title)
	require.Equal(t, "2024-03-10", tasks[0].Date)
	require.NotNil(t, tasks[0].Subtasks)

	require.Len(t, bus.events, 1)
	require.Equal(t, eventbus.EventTaskAdded, bus.events[0].Type)
	require.Equal(t, id, bus.events[0].TaskID)
}

func TestAddRejectsEmptyTitle(t *testing.T) {
	p, _, _ := newTestPlanner(t, "2024-03-10")

	_, err := p.Add(context.Background(), &task.MasterTask{})
	require.Error(t, err)
}

func TestAddSplitsEmbeddedTime(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10")

	_, err := p.Add(context.Background(), &task.MasterTask{
		Title: "standup",
		Date:  "2024-03-11T09:30",
	})
	require.NoError(t, err)

	tasks := mustLoad(t, st)
	require.Equal(t, "2024-03-11", tasks[0].Date)
	require.Equal(t, "09:30", tasks[0].Time)
}

func TestCompleteStandalone(t *testing.T) {
	p, st, bus := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:    "t1",
		Title: "pay rent",
		Date:  "2024-03-10",
	})

	require.NoError(t, p.Complete(context.Background(), "t1"))

	tasks := mustLoad(t, st)
	require.True(t, tasks[0].CompletedOn("2024-03-10"))
	require.Equal(t, eventbus.EventTaskCompleted, bus.events[0].Type)
}

func TestCompleteGhostRecordsDateOnMaster(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:             "m1",
		Title:          "daily review",
		Date:           "2024-03-01",
		RecurrenceRule: "FREQ=DAILY",
	})

	require.NoError(t, p.Complete(context.Background(), "m1_2024-03-09"))

	m := findByID(mustLoad(t, st), "m1")
	require.True(t, m.CompletedOn("2024-03-09"))
	require.False(t, m.CompletedOn("2024-03-10"))
}

func TestUncompleteReversesComplete(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:             "m1",
		Title:          "daily review",
		Date:           "2024-03-01",
		RecurrenceRule: "FREQ=DAILY",
		CompletedDates: []string{"2024-03-09"},
	})

	require.NoError(t, p.Uncomplete(context.Background(), "m1_2024-03-09"))

	m := findByID(mustLoad(t, st), "m1")
	require.False(t, m.CompletedOn("2024-03-09"))
}

func TestCompleteUnknownTask(t *testing.T) {
	p, _, _ := newTestPlanner(t, "2024-03-10")

	err := p.Complete(context.Background(), "nope")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteMasterRemovesRecord(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10",
		&task.MasterTask{ID: "t1", Title: "one", Date: "2024-03-10"},
		&task.MasterTask{ID: "t2", Title: "two", Date: "2024-03-11"},
	)

	require.NoError(t, p.Delete(context.Background(), "t1"))

	tasks := mustLoad(t, st)
	require.Len(t, tasks, 1)
	require.Equal(t, "t2", tasks[0].ID)
}

func TestDeleteGhostBecomesException(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:             "m1",
		Title:          "daily review",
		Date:           "2024-03-01",
		RecurrenceRule: "FREQ=DAILY",
	})

	require.NoError(t, p.Delete(context.Background(), "m1_2024-03-12"))

	m := findByID(mustLoad(t, st), "m1")
	require.NotNil(t, m)
	require.True(t, m.ExceptionOn("2024-03-12"))

	occs, err := p.Agenda(context.Background(), "2024-03-10", 7)
	require.NoError(t, err)
	for _, o := range occs {
		require.NotEqual(t, "2024-03-12", o.Date)
	}
}

func TestDetachCreatesStandaloneAndException(t *testing.T) {
	p, st, bus := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:             "m1",
		Title:          "daily review",
		Date:           "2024-03-01",
		RecurrenceRule: "FREQ=DAILY",
		Subtasks:       []task.Subtask{{ID: "s1", Title: "inbox"}},
	})

	newID, err := p.Detach(context.Background(), "m1_2024-03-12", func(d *task.MasterTask) {
		d.Title = "deep review"
	})
	require.NoError(t, err)
	require.NotEmpty(t, newID)

	tasks := mustLoad(t, st)
	m := findByID(tasks, "m1")
	require.True(t, m.ExceptionOn("2024-03-12"))

	d := findByID(tasks, newID)
	require.NotNil(t, d)
	require.Equal(t, "deep review", d.Title)
	require.Equal(t, "2024-03-12", d.Date)
	require.Equal(t, "m1", d.SeriesID)
	require.Equal(t, "m1", d.OriginalTaskID)
	require.Empty(t, d.RecurrenceRule)
	require.Len(t, d.Subtasks, 1)
	require.NotEqual(t, "s1", d.Subtasks[0].ID)

	require.Equal(t, eventbus.EventTaskDetached, bus.events[0].Type)
}

func TestDetachRequiresInstanceID(t *testing.T) {
	p, _, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID: "t1", Title: "one", Date: "2024-03-10",
	})

	_, err := p.Detach(context.Background(), "t1", nil)
	require.Error(t, err)
}

func TestDetachedOccurrenceReplacesGhostInAgenda(t *testing.T) {
	p, _, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:             "m1",
		Title:          "daily review",
		Date:           "2024-03-01",
		RecurrenceRule: "FREQ=DAILY",
	})

	newID, err := p.Detach(context.Background(), "m1_2024-03-11", nil)
	require.NoError(t, err)

	occs, err := p.Agenda(context.Background(), "2024-03-11", 1)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	require.Equal(t, task.Standalone, occs[0].Kind)
	require.Equal(t, newID, occs[0].ID())
}

func TestSetSubtaskDoneOnGhostDivergesOccurrence(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:             "m1",
		Title:          "daily review",
		Date:           "2024-03-01",
		RecurrenceRule: "FREQ=DAILY",
		Subtasks: []task.Subtask{
			{ID: "s1", Title: "inbox"},
			{ID: "s2", Title: "calendar"},
		},
	})

	require.NoError(t, p.SetSubtaskDone(context.Background(), "m1_2024-03-10", "s1", true))

	m := findByID(mustLoad(t, st), "m1")
	over := m.InstanceSubtasks["2024-03-10"]
	require.Len(t, over, 2)
	require.True(t, over[0].Done)
	require.False(t, over[1].Done)

	// Template and other days stay pristine.
	require.False(t, m.Subtasks[0].Done)
	other := m.SubtasksFor("2024-03-11")
	require.False(t, other[0].Done)
}

func TestSetSubtaskDoneOnMasterTemplate(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:       "t1",
		Title:    "pack bags",
		Date:     "2024-03-10",
		Subtasks: []task.Subtask{{ID: "s1", Title: "passport"}},
	})

	require.NoError(t, p.SetSubtaskDone(context.Background(), "t1", "s1", true))

	m := findByID(mustLoad(t, st), "t1")
	require.True(t, m.Subtasks[0].Done)
}

func TestSetSubtaskDoneUnknownSubtask(t *testing.T) {
	p, _, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID: "t1", Title: "one", Date: "2024-03-10",
	})

	err := p.SetSubtaskDone(context.Background(), "t1", "missing", true)
	require.Error(t, err)
}

func TestSetProgressPerOccurrence(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:             "m1",
		Title:          "daily review",
		Date:           "2024-03-01",
		RecurrenceRule: "FREQ=DAILY",
	})

	require.NoError(t, p.SetProgress(context.Background(), "m1_2024-03-10", 40))

	m := findByID(mustLoad(t, st), "m1")
	require.Equal(t, 40, m.InstanceProgress["2024-03-10"])
	require.Equal(t, 0, m.Progress)
	require.Equal(t, 40, m.ProgressFor("2024-03-10"))
	require.Equal(t, 0, m.ProgressFor("2024-03-11"))
}

func TestSetProgressRange(t *testing.T) {
	p, _, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID: "t1", Title: "one", Date: "2024-03-10",
	})

	require.Error(t, p.SetProgress(context.Background(), "t1", -1))
	require.Error(t, p.SetProgress(context.Background(), "t1", 101))
	require.NoError(t, p.SetProgress(context.Background(), "t1", 100))
}

func TestRolloverMovesOverdueStandalone(t *testing.T) {
	p, st, bus := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:    "t1",
		Title: "mail package",
		Date:  "2024-03-07",
	})

	updates, creations, err := p.Rollover(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updates)
	require.Equal(t, 0, creations)

	m := findByID(mustLoad(t, st), "t1")
	require.Equal(t, "2024-03-10", m.Date)
	require.Equal(t, 3, m.DaysRolled)

	require.Len(t, bus.events, 1)
	require.Equal(t, eventbus.EventRollover, bus.events[0].Type)
}

func TestRolloverDetachesMissedRecurring(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:             "m1",
		Title:          "daily review",
		Date:           "2024-03-08",
		RecurrenceRule: "FREQ=DAILY",
	})

	updates, creations, err := p.Rollover(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updates)
	require.Equal(t, 2, creations)

	tasks := mustLoad(t, st)
	require.Len(t, tasks, 3)

	m := findByID(tasks, "m1")
	require.True(t, m.ExceptionOn("2024-03-08"))
	require.True(t, m.ExceptionOn("2024-03-09"))
	for _, tk := range tasks {
		if tk.ID == "m1" {
			continue
		}
		require.Equal(t, "2024-03-10", tk.Date)
		require.Equal(t, "m1", tk.SeriesID)
		require.Empty(t, tk.RecurrenceRule)
	}
}

func TestRolloverIdempotentOnceApplied(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:    "t1",
		Title: "mail package",
		Date:  "2024-03-08",
	})

	_, _, err := p.Rollover(context.Background())
	require.NoError(t, err)
	first := mustLoad(t, st)

	updates, creations, err := p.Rollover(context.Background())
	require.NoError(t, err)
	require.Zero(t, updates)
	require.Zero(t, creations)
	require.Equal(t, first, mustLoad(t, st))
}

func TestAgendaWithOverdueSurfacesMissedWork(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10", &task.MasterTask{
		ID:    "t1",
		Title: "mail package",
		Date:  "2024-03-08",
	})

	occs, err := p.AgendaWithOverdue(context.Background(), "2024-03-10", 1)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	require.Equal(t, "2024-03-10", occs[0].Date)
	require.Equal(t, 2, occs[0].DaysRolled)

	// Display only: the stored record is untouched.
	m := findByID(mustLoad(t, st), "t1")
	require.Equal(t, "2024-03-08", m.Date)
	require.Zero(t, m.DaysRolled)
}

func TestMutationsAreAtomicUnderConcurrency(t *testing.T) {
	p, st, _ := newTestPlanner(t, "2024-03-10")

	const n = 20
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := p.Add(context.Background(), &task.MasterTask{Title: "task"})
			done <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-done)
	}
	require.Len(t, mustLoad(t, st), n)
}

func TestStoreErrorPropagates(t *testing.T) {
	p := New(failingStore{}, WithClock(clock.NewFixedDate("2024-03-10")))

	_, err := p.Agenda(context.Background(), "2024-03-10", 7)
	require.Error(t, err)
	require.ErrorIs(t, err, errLoadFailed)
}

var errLoadFailed = errors.New("load failed")

type failingStore struct{}

func (failingStore) Load(context.Context) ([]*task.MasterTask, error) { return nil, errLoadFailed }
func (failingStore) Save(context.Context, []*task.MasterTask) error   { return nil }
func (failingStore) Close() error                                     { return nil }

func TestEventTimestampsUseClock(t *testing.T) {
	p, _, bus := newTestPlanner(t, "2024-03-10")

	_, err := p.Add(context.Background(), &task.MasterTask{Title: "x"})
	require.NoError(t, err)

	want := clock.NewFixedDate("2024-03-10").Now()
	require.True(t, bus.events[0].At.Equal(want))
}
