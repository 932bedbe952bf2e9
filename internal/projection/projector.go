// Package projection turns master task records into the occurrence
// list for a visible date window. Projection is a pure function of
// its inputs: no side effects, no caching, safe to recompute on every
// view change and to run concurrently with itself.
package projection

import (
	"log/slog"
	"sort"

	"git.home.luguber.info/inful/dayplan/internal/logfields"
	"git.home.luguber.info/inful/dayplan/internal/recurrence"
	"git.home.luguber.info/inful/dayplan/internal/rollover"
	"git.home.luguber.info/inful/dayplan/internal/task"
	"git.home.luguber.info/inful/dayplan/internal/util/dates"
	"git.home.luguber.info/inful/dayplan/internal/util/sets"
)

// DefaultBufferDays pads the rule-expansion window so week-grained
// rules straddling the window edge are never missed. Emission is
// still filtered to the exact view window.
const DefaultBufferDays = 3

// Projector computes visible occurrences. The zero value is usable;
// Metrics is optional.
type Projector struct {
	BufferDays int
	Metrics    Recorder
}

// Recorder receives projection diagnostics. Implemented by the
// metrics package; a nil Recorder disables recording.
type Recorder interface {
	ObserveProjection(total, ghosts, duplicatesDropped int)
	IncRuleParseFailure()
}

// Project computes the occurrences to display in the numDays-day
// window starting at viewStart, inclusive. Exceptions and completed
// dates are suppressed, ghost/real collisions resolve to the real
// task, and the result is sorted by date, then explicit time, then
// master creation order.
func (p Projector) Project(tasks []*task.MasterTask, viewStart string, numDays int) []task.Occurrence {
	return p.project(tasks, viewStart, numDays, 0, "")
}

// ProjectWithLookback additionally scans lookbackDays days before
// viewStart for incomplete occurrences and surfaces them on today,
// display-only: storage is never touched and the shown DaysRolled
// matches what the persisted rollover would produce.
func (p Projector) ProjectWithLookback(tasks []*task.MasterTask, viewStart string, numDays, lookbackDays int, today string) []task.Occurrence {
	return p.project(tasks, viewStart, numDays, lookbackDays, today)
}

func (p Projector) project(tasks []*task.MasterTask, viewStart string, numDays, lookbackDays int, today string) []task.Occurrence {
	startT, err := dates.Parse(viewStart)
	if err != nil || numDays <= 0 {
		return nil
	}
	windowEnd := dates.Format(dates.AddDays(startT, numDays-1))

	buffer := p.BufferDays
	if buffer <= 0 {
		buffer = DefaultBufferDays
	}
	expandEnd := dates.Format(dates.AddDays(startT, numDays-1+buffer))

	// Slot map keyed by (originating master, source date). A real
	// task always beats a ghost in its slot: ghosts are templates,
	// real tasks are authoritative.
	slots := make(map[string]task.Occurrence)
	occupy := func(o task.Occurrence) {
		key := slotKey(o)
		if existing, ok := slots[key]; ok {
			if existing.Kind == task.Standalone && o.Kind == task.Ghost {
				return
			}
		}
		slots[key] = o
	}

	for _, t := range tasks {
		if t.IsRecurring() {
			p.projectRecurring(t, viewStart, windowEnd, expandEnd, occupy)
			if lookbackDays > 0 && today != "" {
				p.lookbackRecurring(t, today, lookbackDays, occupy)
			}
			continue
		}
		p.projectStandalone(t, viewStart, windowEnd, occupy)
		if lookbackDays > 0 && today != "" {
			p.lookbackStandalone(t, today, lookbackDays, occupy)
		}
	}

	out := make([]task.Occurrence, 0, len(slots))
	seen := sets.New[string]()
	ghosts := 0
	dropped := 0
	for _, o := range slots {
		// Safety net: strict uniqueness by final wire id. Residual
		// duplicates are a recoverable anomaly, logged and dropped.
		id := o.ID()
		if seen.Has(id) {
			dropped++
			slog.Warn("Dropping duplicate occurrence",
				logfields.TaskID(id), logfields.Occurrence(o.Date))
			continue
		}
		seen.Add(id)
		if o.IsGhost() {
			ghosts++
		}
		out = append(out, o)
	}

	sort.SliceStable(out, func(i, j int) bool { return occurrenceLess(out[i], out[j]) })

	if p.Metrics != nil {
		p.Metrics.ObserveProjection(len(out), ghosts, dropped)
	}
	return out
}

// projectRecurring expands one series over the window and emits a
// ghost per surviving date. A rule parse failure degrades the task to
// its anchor date instead of failing the rest of the list.
func (p Projector) projectRecurring(t *task.MasterTask, viewStart, windowEnd, expandEnd string, occupy func(task.Occurrence)) {
	rule, err := recurrence.Parse(t.RecurrenceRule)
	if err != nil {
		slog.Warn("Treating task with unparsable rule as non-recurring",
			logfields.TaskID(t.ID), logfields.Rule(t.RecurrenceRule), logfields.Error(err))
		if p.Metrics != nil {
			p.Metrics.IncRuleParseFailure()
		}
		p.projectStandalone(t, viewStart, windowEnd, occupy)
		return
	}

	completed := t.CompletedSet()
	exceptions := t.ExceptionSet()

	for _, date := range recurrence.Dates(rule, t.Date, viewStart, expandEnd) {
		if date > windowEnd {
			break
		}
		if exceptions.Has(date) || completed.Has(date) {
			continue
		}
		occupy(ghostOn(t, date, date, 0))
	}
}

func (p Projector) projectStandalone(t *task.MasterTask, viewStart, windowEnd string, occupy func(task.Occurrence)) {
	if t.Date < viewStart || t.Date > windowEnd {
		return
	}
	if t.CompletedOn(t.Date) {
		return
	}
	occupy(standaloneOf(t))
}

// lookbackStandalone surfaces an incomplete past standalone task on
// today's view without mutating storage.
func (p Projector) lookbackStandalone(t *task.MasterTask, today string, lookbackDays int, occupy func(task.Occurrence)) {
	todayT, err := dates.Parse(today)
	if err != nil {
		return
	}
	windowStart := dates.Format(dates.AddDays(todayT, -lookbackDays))
	if t.Date < windowStart || t.Date >= today {
		return
	}
	if t.CompletedOn(t.Date) {
		return
	}
	o := standaloneOf(t)
	o.RolledFrom = t.Date
	o.Date = today
	o.DaysRolled = t.DaysRolled + rollover.DaysLate(t.Date, today)
	occupy(o)
}

// lookbackRecurring surfaces missed series occurrences on today's
// view, one per missed date, each still addressable by its original
// date through the composite id.
func (p Projector) lookbackRecurring(t *task.MasterTask, today string, lookbackDays int, occupy func(task.Occurrence)) {
	rule, err := recurrence.Parse(t.RecurrenceRule)
	if err != nil {
		return
	}
	todayT, err := dates.Parse(today)
	if err != nil {
		return
	}
	windowStart := dates.Format(dates.AddDays(todayT, -lookbackDays))
	yesterday := dates.Format(dates.AddDays(todayT, -1))

	completed := t.CompletedSet()
	exceptions := t.ExceptionSet()

	for _, date := range recurrence.Dates(rule, t.Date, windowStart, yesterday) {
		if exceptions.Has(date) || completed.Has(date) {
			continue
		}
		occupy(ghostOn(t, today, date, rollover.DaysLate(date, today)))
	}
}

// ghostOn builds the ghost occurrence of t shown on displayDate for
// the series date sourceDate.
func ghostOn(t *task.MasterTask, displayDate, sourceDate string, daysRolled int) task.Occurrence {
	o := task.Occurrence{
		Kind:          task.Ghost,
		MasterID:      t.ID,
		Date:          displayDate,
		Title:         t.Title,
		Notes:         t.Notes,
		Time:          t.Time,
		Deadline:      t.Deadline,
		EstimatedTime: t.EstimatedTime,
		DaysRolled:    daysRolled,
		Progress:      t.ProgressFor(sourceDate),
		Subtasks:      t.SubtasksFor(sourceDate),
		CreatedAt:     t.CreatedAt,
	}
	if sourceDate != displayDate {
		o.RolledFrom = sourceDate
	}
	return o
}

func standaloneOf(t *task.MasterTask) task.Occurrence {
	return task.Occurrence{
		Kind:           task.Standalone,
		MasterID:       t.ID,
		OriginalTaskID: t.OriginalTaskID,
		Date:           t.Date,
		Title:          t.Title,
		Notes:          t.Notes,
		Time:           t.Time,
		Deadline:       t.Deadline,
		EstimatedTime:  t.EstimatedTime,
		DaysRolled:     t.DaysRolled,
		Progress:       t.Progress,
		Subtasks:       task.CopySubtasks(t.Subtasks),
		CreatedAt:      t.CreatedAt,
	}
}

// slotKey identifies the (originating master, source date) slot an
// occurrence occupies. A detached instance keys by the master it was
// broken out of, so it collides with, and wins over, the ghost that
// would otherwise reappear in its place.
func slotKey(o task.Occurrence) string {
	orig := o.OriginalTaskID
	if orig == "" {
		orig = o.MasterID
	}
	return task.ComposeID(orig, o.SourceDate())
}

// occurrenceLess orders by display date, then explicit occurrence
// time (timed entries first), then master creation order.
func occurrenceLess(a, b task.Occurrence) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Time != b.Time {
		if a.Time == "" {
			return false
		}
		if b.Time == "" {
			return true
		}
		return a.Time < b.Time
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	// Final id tiebreak keeps output order deterministic across the
	// map iteration feeding the sort.
	return a.ID() < b.ID()
}
