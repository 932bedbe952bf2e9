package task

import "time"

// Kind tags an occurrence as either a ghost derived from a recurring
// master or a standalone task shown as-is. A real tagged union at the
// API boundary; the composite string id is only the wire format.
type Kind int

const (
	// Standalone is a real task (one-off or detached instance).
	Standalone Kind = iota
	// Ghost is an occurrence derived on demand from a recurring
	// master; it has no persisted record of its own.
	Ghost
)

func (k Kind) String() string {
	if k == Ghost {
		return "ghost"
	}
	return "standalone"
}

// Occurrence is the projector's output unit. Ephemeral, never
// persisted: mutations resolve the occurrence id back to the master
// record instead.
type Occurrence struct {
	Kind     Kind
	MasterID string

	// OriginalTaskID is set on a standalone occurrence backed by a
	// detached instance: the id of the series master it was broken
	// out of. Deduplication keys on it so a detached instance
	// collides with, and wins over, the ghost for the same slot.
	OriginalTaskID string

	// Date is the calendar day the occurrence is displayed on.
	Date string
	// RolledFrom is set when a missed occurrence is surfaced on
	// today's view: it holds the original date, which remains the
	// addressable date of the occurrence.
	RolledFrom string

	Title         string
	Notes         string
	Time          string
	Deadline      string
	EstimatedTime int

	DaysRolled int
	Progress   int
	Subtasks   []Subtask

	CreatedAt time.Time
}

// IsGhost reports whether the occurrence is derived from a series.
func (o Occurrence) IsGhost() bool { return o.Kind == Ghost }

// ID returns the wire identifier: the master's own id for a
// standalone task, the composite `${masterId}_${date}` form for a
// ghost. For rolled-forward ghosts the original missed date is used,
// so completing the rolled occurrence marks the right series date.
func (o Occurrence) ID() string {
	if o.Kind != Ghost {
		return o.MasterID
	}
	if o.RolledFrom != "" {
		return ComposeID(o.MasterID, o.RolledFrom)
	}
	return ComposeID(o.MasterID, o.Date)
}

// SourceDate is the date the occurrence truly belongs to: RolledFrom
// for a rolled-forward occurrence, else the display date.
func (o Occurrence) SourceDate() string {
	if o.RolledFrom != "" {
		return o.RolledFrom
	}
	return o.Date
}
