// Package rollover carries missed occurrences forward. Tasks the user
// never completed nor explicitly handled must not silently vanish:
// a standalone task is advanced to today, a missed occurrence of a
// recurring series is detached into its own standalone task while the
// series itself keeps projecting future occurrences.
//
// ComputeActions is a pure function; the caller persists the result.
// The host must apply updates and creations as one atomic
// read-modify-write against the task store so that two near
// simultaneous triggers (app focus plus a timer) cannot lose writes.
package rollover

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/dayplan/internal/logfields"
	"git.home.luguber.info/inful/dayplan/internal/recurrence"
	"git.home.luguber.info/inful/dayplan/internal/task"
	"git.home.luguber.info/inful/dayplan/internal/util/dates"
)

// Actions is the outcome of a rollover scan. Updates are mutated
// copies of existing masters; Creations are brand-new standalone
// tasks detached from recurring series.
type Actions struct {
	Updates   []*task.MasterTask
	Creations []*task.MasterTask
}

// Empty reports whether the scan found nothing to carry forward.
func (a Actions) Empty() bool {
	return len(a.Updates) == 0 && len(a.Creations) == 0
}

// DaysLate is the single canonical days-rolled computation. Both the
// persisted rollover below and the display-only lookback projection
// use it, so the value a user sees live always matches the value that
// gets persisted. Returns 0 when from is not before to or either date
// is malformed.
func DaysLate(from, to string) int {
	a, err := dates.Parse(from)
	if err != nil {
		return 0
	}
	b, err := dates.Parse(to)
	if err != nil {
		return 0
	}
	if n := dates.DaysBetween(a, b); n > 0 {
		return n
	}
	return 0
}

// ComputeActions scans [today-lookbackDays, today) for incomplete
// past occurrences. Pure, no I/O, and idempotent: occurrences already
// completed, already exceptioned, or already advanced to today are
// never reprocessed, so a second call with unchanged inputs after the
// first result has been persisted produces nothing.
func ComputeActions(tasks []*task.MasterTask, today string, lookbackDays int) Actions {
	var actions Actions
	todayT, err := dates.Parse(today)
	if err != nil {
		slog.Error("Rollover skipped: invalid today", logfields.Today(today))
		return actions
	}
	if lookbackDays <= 0 {
		return actions
	}
	windowStart := dates.Format(dates.AddDays(todayT, -lookbackDays))
	yesterday := dates.Format(dates.AddDays(todayT, -1))

	for _, t := range tasks {
		if t.IsRecurring() {
			update, created := rollRecurring(t, today, windowStart, yesterday, todayT)
			if update != nil {
				actions.Updates = append(actions.Updates, update)
			}
			actions.Creations = append(actions.Creations, created...)
			continue
		}
		if update := rollStandalone(t, today, windowStart); update != nil {
			actions.Updates = append(actions.Updates, update)
		}
	}
	return actions
}

// rollStandalone advances an incomplete past standalone task to
// today, accumulating the elapsed days into DaysRolled.
func rollStandalone(t *task.MasterTask, today, windowStart string) *task.MasterTask {
	if t.Date < windowStart || t.Date >= today {
		return nil
	}
	if t.CompletedOn(t.Date) {
		return nil
	}
	update := t.Clone()
	update.DaysRolled += DaysLate(t.Date, today)
	update.Date = today
	return update
}

// rollRecurring detaches every missed occurrence of a series in the
// lookback window: one batched exception update on the master, plus
// one fresh standalone task per missed date. The series keeps
// projecting future occurrences untouched.
func rollRecurring(t *task.MasterTask, today, windowStart, yesterday string, todayT time.Time) (*task.MasterTask, []*task.MasterTask) {
	rule, err := recurrence.Parse(t.RecurrenceRule)
	if err != nil {
		slog.Warn("Skipping rollover for task with unparsable rule",
			logfields.TaskID(t.ID), logfields.Rule(t.RecurrenceRule), logfields.Error(err))
		return nil, nil
	}

	completed := t.CompletedSet()
	exceptions := t.ExceptionSet()

	var missed []string
	for _, date := range recurrence.Dates(rule, t.Date, windowStart, yesterday) {
		if exceptions.Has(date) || completed.Has(date) {
			continue
		}
		missed = append(missed, date)
	}
	if len(missed) == 0 {
		return nil, nil
	}

	update := t.Clone()
	creations := make([]*task.MasterTask, 0, len(missed))
	for _, date := range missed {
		update.AddException(date)
		creations = append(creations, detachOccurrence(t, date, today, todayT))
	}
	return update, creations
}

// detachOccurrence synthesizes the standalone task a missed series
// occurrence becomes: dated today, no recurrence, fresh subtask ids,
// back-reference to the originating master.
func detachOccurrence(master *task.MasterTask, date, today string, todayT time.Time) *task.MasterTask {
	return &task.MasterTask{
		ID:             uuid.NewString(),
		Title:          master.Title,
		Notes:          master.Notes,
		Date:           today,
		Time:           master.Time,
		Deadline:       master.Deadline,
		EstimatedTime:  master.EstimatedTime,
		ReminderTime:   master.ReminderTime,
		ReminderOffset: master.ReminderOffset,
		Subtasks:       task.FreshSubtasks(master.SubtasksFor(date)),
		Progress:       master.ProgressFor(date),
		CompletedDates: []string{},
		ExceptionDates: []string{},
		DaysRolled:     DaysLate(date, today),
		SeriesID:       master.ID,
		OriginalTaskID: master.ID,
		CreatedAt:      todayT,
	}
}
