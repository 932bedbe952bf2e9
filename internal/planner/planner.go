// Package planner is the host-facing service around the projection
// and rollover engine. It owns the single writer lock the concurrency
// model requires: every mutation is one atomic read-modify-write
// against the task store, so dual triggers (CLI invocation plus the
// daemon timer) can never lose updates. Reads project on the fly and
// take no lock beyond the store's own.
package planner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/dayplan/internal/clock"
	"git.home.luguber.info/inful/dayplan/internal/eventbus"
	"git.home.luguber.info/inful/dayplan/internal/foundation/errors"
	"git.home.luguber.info/inful/dayplan/internal/logfields"
	"git.home.luguber.info/inful/dayplan/internal/metrics"
	"git.home.luguber.info/inful/dayplan/internal/projection"
	"git.home.luguber.info/inful/dayplan/internal/rollover"
	"git.home.luguber.info/inful/dayplan/internal/store"
	"git.home.luguber.info/inful/dayplan/internal/task"
)

// ErrTaskNotFound reports a mutation addressed at an id no stored
// master resolves to.
var ErrTaskNotFound = errors.NewError(errors.CategoryValidation, "task not found").Build()

// Planner coordinates the engine against one task store.
type Planner struct {
	store   store.Store
	clock   clock.Clock
	bus     eventbus.Publisher
	metrics metrics.Recorder

	lookbackDays int
	projector    projection.Projector

	// mu serializes every read-modify-write cycle. Projection reads
	// do not take it.
	mu sync.Mutex
}

// Option customizes a Planner.
type Option func(*Planner)

// WithClock injects the today source.
func WithClock(c clock.Clock) Option { return func(p *Planner) { p.clock = c } }

// WithEventBus injects the change event publisher.
func WithEventBus(b eventbus.Publisher) Option { return func(p *Planner) { p.bus = b } }

// WithMetrics injects the metrics recorder.
func WithMetrics(m metrics.Recorder) Option { return func(p *Planner) { p.metrics = m } }

// WithLookbackDays bounds the rollover and overdue-surface scans.
func WithLookbackDays(days int) Option { return func(p *Planner) { p.lookbackDays = days } }

// WithBufferDays pads the projection expansion window.
func WithBufferDays(days int) Option {
	return func(p *Planner) { p.projector.BufferDays = days }
}

// New creates a Planner over the given store.
func New(s store.Store, opts ...Option) *Planner {
	p := &Planner{
		store:        s,
		clock:        clock.System{},
		bus:          eventbus.NoopPublisher{},
		metrics:      metrics.NoopRecorder{},
		lookbackDays: 60,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.projector.Metrics = p.metrics
	return p
}

// Agenda projects the visible occurrences for the window starting at
// start, inclusive.
func (p *Planner) Agenda(ctx context.Context, start string, days int) ([]task.Occurrence, error) {
	tasks, err := p.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	began := time.Now()
	occs := p.projector.Project(tasks, start, days)
	p.metrics.ObserveProjectionDuration(time.Since(began))
	return occs, nil
}

// AgendaWithOverdue is Agenda plus the overdue surface: incomplete
// past occurrences inside the lookback window appear on today's view,
// display-only.
func (p *Planner) AgendaWithOverdue(ctx context.Context, start string, days int) ([]task.Occurrence, error) {
	tasks, err := p.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	began := time.Now()
	occs := p.projector.ProjectWithLookback(tasks, start, days, p.lookbackDays, p.clock.Today())
	p.metrics.ObserveProjectionDuration(time.Since(began))
	return occs, nil
}

// Add persists a new task. A missing id is filled with a fresh uuid;
// a missing date defaults to today.
func (p *Planner) Add(ctx context.Context, t *task.MasterTask) (string, error) {
	if t.Title == "" {
		return "", errors.ValidationError("task title is required").Build()
	}
	t = t.Clone()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Date == "" {
		t.Date = p.clock.Today()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = p.clock.Now()
	}
	task.Normalize(t)

	err := p.mutate(ctx, func(tasks []*task.MasterTask) ([]*task.MasterTask, error) {
		return append(tasks, t), nil
	})
	if err != nil {
		return "", err
	}
	p.publish(ctx, eventbus.EventTaskAdded, t.ID, t.Date)
	return t.ID, nil
}

// Complete marks the occurrence addressed by id as done. For a ghost
// id the date is recorded on the series master; for a standalone task
// its own date is recorded.
func (p *Planner) Complete(ctx context.Context, id string) error {
	ref := task.ResolveID(id)
	var date string
	err := p.mutateMaster(ctx, ref.MasterID, func(m *task.MasterTask) error {
		date = completionDate(ref, m)
		m.MarkCompleted(date)
		return nil
	})
	if err != nil {
		return err
	}
	p.publish(ctx, eventbus.EventTaskCompleted, ref.MasterID, date)
	return nil
}

// Uncomplete reverses Complete for the addressed occurrence.
func (p *Planner) Uncomplete(ctx context.Context, id string) error {
	ref := task.ResolveID(id)
	err := p.mutateMaster(ctx, ref.MasterID, func(m *task.MasterTask) error {
		m.UnmarkCompleted(completionDate(ref, m))
		return nil
	})
	if err != nil {
		return err
	}
	p.publish(ctx, eventbus.EventTaskUpdated, ref.MasterID, ref.Date)
	return nil
}

// Delete removes the addressed task or occurrence. Deleting one
// occurrence of a recurring series becomes an exception add on the
// master; deleting a master removes its record entirely.
func (p *Planner) Delete(ctx context.Context, id string) error {
	ref := task.ResolveID(id)
	if ref.IsInstance {
		err := p.mutateMaster(ctx, ref.MasterID, func(m *task.MasterTask) error {
			m.AddException(ref.Date)
			return nil
		})
		if err != nil {
			return err
		}
		p.publish(ctx, eventbus.EventTaskDeleted, ref.MasterID, ref.Date)
		return nil
	}

	err := p.mutate(ctx, func(tasks []*task.MasterTask) ([]*task.MasterTask, error) {
		out := tasks[:0]
		found := false
		for _, t := range tasks {
			if t.ID == ref.MasterID {
				found = true
				continue
			}
			out = append(out, t)
		}
		if !found {
			return nil, ErrTaskNotFound.WithContext(logfields.KeyTaskID, ref.MasterID)
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	p.publish(ctx, eventbus.EventTaskDeleted, ref.MasterID, "")
	return nil
}

// Detach breaks one occurrence out of its series: the date becomes an
// exception on the master and a brand-new standalone task carries the
// occurrence's data, with edit applied to it before persisting.
// Returns the new task's id.
func (p *Planner) Detach(ctx context.Context, id string, edit func(*task.MasterTask)) (string, error) {
	ref := task.ResolveID(id)
	if !ref.IsInstance {
		return "", errors.ValidationError("detach requires an occurrence id").
			WithContext(logfields.KeyTaskID, id).Build()
	}

	var newID string
	err := p.mutate(ctx, func(tasks []*task.MasterTask) ([]*task.MasterTask, error) {
		master := findTask(tasks, ref.MasterID)
		if master == nil {
			return nil, ErrTaskNotFound.WithContext(logfields.KeyTaskID, ref.MasterID)
		}
		master.AddException(ref.Date)

		detached := &task.MasterTask{
			ID:             uuid.NewString(),
			Title:          master.Title,
			Notes:          master.Notes,
			Date:           ref.Date,
			Time:           master.Time,
			Deadline:       master.Deadline,
			EstimatedTime:  master.EstimatedTime,
			ReminderTime:   master.ReminderTime,
			ReminderOffset: master.ReminderOffset,
			Subtasks:       task.FreshSubtasks(master.SubtasksFor(ref.Date)),
			Progress:       master.ProgressFor(ref.Date),
			CompletedDates: []string{},
			ExceptionDates: []string{},
			SeriesID:       master.ID,
			OriginalTaskID: master.ID,
			CreatedAt:      p.clock.Now(),
		}
		if edit != nil {
			edit(detached)
		}
		task.Normalize(detached)
		newID = detached.ID
		return append(tasks, detached), nil
	})
	if err != nil {
		return "", err
	}
	p.publish(ctx, eventbus.EventTaskDetached, ref.MasterID, ref.Date)
	return newID, nil
}

// SetSubtaskDone toggles one checklist item of the addressed
// occurrence. For a ghost this diverges the occurrence: the resolved
// checklist is written into the master's per-date override map.
func (p *Planner) SetSubtaskDone(ctx context.Context, id, subtaskID string, done bool) error {
	ref := task.ResolveID(id)
	err := p.mutateMaster(ctx, ref.MasterID, func(m *task.MasterTask) error {
		if !ref.IsInstance {
			return setSubtask(m.Subtasks, subtaskID, done)
		}
		subs := m.SubtasksFor(ref.Date)
		if err := setSubtask(subs, subtaskID, done); err != nil {
			return err
		}
		if m.InstanceSubtasks == nil {
			m.InstanceSubtasks = make(map[string][]task.Subtask)
		}
		m.InstanceSubtasks[ref.Date] = subs
		return nil
	})
	if err != nil {
		return err
	}
	p.publish(ctx, eventbus.EventTaskUpdated, ref.MasterID, ref.Date)
	return nil
}

// SetProgress records progress for the addressed occurrence, into the
// per-date override map for ghosts.
func (p *Planner) SetProgress(ctx context.Context, id string, pct int) error {
	if pct < 0 || pct > 100 {
		return errors.ValidationError("progress must be within 0..100").Build()
	}
	ref := task.ResolveID(id)
	err := p.mutateMaster(ctx, ref.MasterID, func(m *task.MasterTask) error {
		if !ref.IsInstance {
			m.Progress = pct
			return nil
		}
		if m.InstanceProgress == nil {
			m.InstanceProgress = make(map[string]int)
		}
		m.InstanceProgress[ref.Date] = pct
		return nil
	})
	if err != nil {
		return err
	}
	p.publish(ctx, eventbus.EventTaskUpdated, ref.MasterID, ref.Date)
	return nil
}

// Rollover runs one persisted rollover pass: compute actions for the
// lookback window and apply them atomically. Safe to call from
// multiple triggers; idempotent once applied.
func (p *Planner) Rollover(ctx context.Context) (updates, creations int, err error) {
	today := p.clock.Today()
	began := time.Now()

	err = p.mutate(ctx, func(tasks []*task.MasterTask) ([]*task.MasterTask, error) {
		actions := rollover.ComputeActions(tasks, today, p.lookbackDays)
		if actions.Empty() {
			return tasks, nil
		}
		updates = len(actions.Updates)
		creations = len(actions.Creations)

		byID := make(map[string]*task.MasterTask, len(actions.Updates))
		for _, up := range actions.Updates {
			byID[up.ID] = up
		}
		out := make([]*task.MasterTask, 0, len(tasks)+creations)
		for _, t := range tasks {
			if up, ok := byID[t.ID]; ok {
				out = append(out, up)
				continue
			}
			out = append(out, t)
		}
		return append(out, actions.Creations...), nil
	})
	if err != nil {
		return 0, 0, err
	}

	p.metrics.ObserveRollover(updates, creations, time.Since(began))
	if updates > 0 || creations > 0 {
		slog.Info("Rollover applied",
			logfields.Today(today),
			slog.Int("updates", updates),
			slog.Int("creations", creations))
		p.publish(ctx, eventbus.EventRollover, "", today)
	}
	return updates, creations, nil
}

// Close releases the store and bus.
func (p *Planner) Close() error {
	if err := p.bus.Close(); err != nil {
		slog.Warn("Failed to close event bus", logfields.Error(err))
	}
	return p.store.Close()
}

// mutate runs one atomic read-modify-write cycle against the store.
func (p *Planner) mutate(ctx context.Context, fn func([]*task.MasterTask) ([]*task.MasterTask, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tasks, err := p.store.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(tasks)
	if err != nil {
		return err
	}
	return p.store.Save(ctx, next)
}

// mutateMaster mutates the single master ref resolves to.
func (p *Planner) mutateMaster(ctx context.Context, masterID string, fn func(*task.MasterTask) error) error {
	return p.mutate(ctx, func(tasks []*task.MasterTask) ([]*task.MasterTask, error) {
		m := findTask(tasks, masterID)
		if m == nil {
			return nil, ErrTaskNotFound.WithContext(logfields.KeyTaskID, masterID)
		}
		if err := fn(m); err != nil {
			return nil, err
		}
		return tasks, nil
	})
}

func (p *Planner) publish(ctx context.Context, typ eventbus.EventType, taskID, date string) {
	ev := eventbus.Event{Type: typ, TaskID: taskID, Date: date, At: p.clock.Now()}
	if err := p.bus.Publish(ctx, ev); err != nil {
		slog.Warn("Failed to publish task event",
			slog.String("event", string(typ)), logfields.Error(err))
	}
}

// completionDate picks the date a completion applies to: the
// occurrence date for an instance id, the task's own date otherwise.
func completionDate(ref task.Ref, m *task.MasterTask) string {
	if ref.IsInstance {
		return ref.Date
	}
	return m.Date
}

func findTask(tasks []*task.MasterTask, id string) *task.MasterTask {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func setSubtask(subs []task.Subtask, subtaskID string, done bool) error {
	for i := range subs {
		if subs[i].ID == subtaskID {
			subs[i].Done = done
			return nil
		}
	}
	return errors.ValidationError("subtask not found").
		WithContext("subtask_id", subtaskID).Build()
}
