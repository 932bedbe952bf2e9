// Package task defines the persisted master-task record, the
// ephemeral occurrence type projected from it, and the composite
// occurrence-ID codec shared by every mutation path.
//
// A MasterTask is the only persisted unit for a task. A recurring
// master never materializes one record per occurrence; instead the
// projector derives ghost occurrences on demand and per-occurrence
// divergence is tracked in the completedDates/exceptionDates sets and
// the instanceProgress/instanceSubtasks maps keyed by ISO date.
package task

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/dayplan/internal/util/sets"
)

// Subtask is one checklist item of a task.
type Subtask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// MasterTask is the persisted unit for a task, recurring or not.
type MasterTask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`

	// Date is the anchor date of a recurring series, or the display
	// date of a standalone task. Always plain YYYY-MM-DD after
	// sanitization; any embedded time component is split into Time.
	Date string `json:"date"`
	Time string `json:"time,omitempty"`

	Deadline      string `json:"deadline,omitempty"`
	EstimatedTime int    `json:"estimatedTime,omitempty"`

	// Reminder fields are passed through untouched for the host
	// notification scheduler; the engine never interprets them.
	ReminderTime   string `json:"reminderTime,omitempty"`
	ReminderOffset int    `json:"reminderOffset,omitempty"`

	// RecurrenceRule is an RFC 5545 RRULE string. Empty means the
	// task is a single occurrence.
	RecurrenceRule string `json:"recurrenceRule,omitempty"`

	Subtasks []Subtask `json:"subtasks,omitempty"`
	Progress int       `json:"progress,omitempty"`

	CompletedDates []string `json:"completedDates"`
	ExceptionDates []string `json:"exceptionDates"`

	InstanceProgress map[string]int       `json:"instanceProgress,omitempty"`
	InstanceSubtasks map[string][]Subtask `json:"instanceSubtasks,omitempty"`

	// DaysRolled counts the cumulative days a standalone task has
	// been carried forward. Meaningless for recurring masters.
	DaysRolled int `json:"daysRolled,omitempty"`

	// SeriesID and OriginalTaskID point a detached instance back at
	// the recurring master it was broken out of.
	SeriesID       string `json:"seriesId,omitempty"`
	OriginalTaskID string `json:"originalTaskId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// IsRecurring reports whether the task carries a recurrence rule.
func (t *MasterTask) IsRecurring() bool { return t.RecurrenceRule != "" }

// CompletedOn reports whether the occurrence on date is done.
func (t *MasterTask) CompletedOn(date string) bool {
	return contains(t.CompletedDates, date)
}

// ExceptionOn reports whether date is permanently excluded from
// projection.
func (t *MasterTask) ExceptionOn(date string) bool {
	return contains(t.ExceptionDates, date)
}

// MarkCompleted records the occurrence on date as done. Idempotent.
func (t *MasterTask) MarkCompleted(date string) {
	if !t.CompletedOn(date) {
		t.CompletedDates = append(t.CompletedDates, date)
	}
}

// UnmarkCompleted removes date from the completed set.
func (t *MasterTask) UnmarkCompleted(date string) {
	t.CompletedDates = remove(t.CompletedDates, date)
}

// AddException permanently excludes date from projection. Idempotent.
func (t *MasterTask) AddException(date string) {
	if !t.ExceptionOn(date) {
		t.ExceptionDates = append(t.ExceptionDates, date)
	}
}

// CompletedSet returns the completed dates as a set for O(1) lookups
// inside projection loops.
func (t *MasterTask) CompletedSet() sets.Set[string] {
	return sets.New(t.CompletedDates...)
}

// ExceptionSet returns the exception dates as a set.
func (t *MasterTask) ExceptionSet() sets.Set[string] {
	return sets.New(t.ExceptionDates...)
}

// SubtasksFor resolves the checklist for one occurrence of a
// recurring series: the per-date override when the occurrence has
// diverged, otherwise a copy of the template with completion reset.
func (t *MasterTask) SubtasksFor(date string) []Subtask {
	if override, ok := t.InstanceSubtasks[date]; ok {
		return CopySubtasks(override)
	}
	out := CopySubtasks(t.Subtasks)
	for i := range out {
		out[i].Done = false
	}
	return out
}

// ProgressFor resolves the progress for one occurrence: the per-date
// override when present, otherwise zero (a fresh occurrence starts
// from the top regardless of the template's own progress).
func (t *MasterTask) ProgressFor(date string) int {
	if p, ok := t.InstanceProgress[date]; ok {
		return p
	}
	return 0
}

// Clone returns a deep copy of the task. Present-but-empty
// collections stay present: a normalized task must survive any number
// of clone round-trips without its sets decaying to absent.
func (t *MasterTask) Clone() *MasterTask {
	out := *t
	out.Subtasks = CopySubtasks(t.Subtasks)
	out.CompletedDates = copyDateSet(t.CompletedDates)
	out.ExceptionDates = copyDateSet(t.ExceptionDates)
	if t.InstanceProgress != nil {
		out.InstanceProgress = make(map[string]int, len(t.InstanceProgress))
		for k, v := range t.InstanceProgress {
			out.InstanceProgress[k] = v
		}
	}
	if t.InstanceSubtasks != nil {
		out.InstanceSubtasks = make(map[string][]Subtask, len(t.InstanceSubtasks))
		for k, v := range t.InstanceSubtasks {
			out.InstanceSubtasks[k] = CopySubtasks(v)
		}
	}
	return &out
}

// CopySubtasks returns a copy of subs preserving ids and done state.
// A non-nil empty input yields a non-nil empty copy.
func CopySubtasks(subs []Subtask) []Subtask {
	if subs == nil {
		return nil
	}
	return append(make([]Subtask, 0, len(subs)), subs...)
}

func copyDateSet(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

// FreshSubtasks clones subs with newly minted ids so a detached
// occurrence never shares subtask identity with its series template.
func FreshSubtasks(subs []Subtask) []Subtask {
	out := make([]Subtask, len(subs))
	for i, s := range subs {
		out[i] = Subtask{ID: uuid.NewString(), Title: s.Title, Done: s.Done}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
