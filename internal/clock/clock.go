// Package clock provides the injectable "today" source required by the
// engine: every caller that needs the current date receives a Clock
// instead of reading the system time, so tests can pin the calendar.
package clock

import (
	"time"

	"git.home.luguber.info/inful/dayplan/internal/util/dates"
)

// Clock supplies the current moment and the current calendar date.
type Clock interface {
	Now() time.Time
	Today() string
}

// System is the wall-clock implementation.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) Today() string { return dates.Format(time.Now()) }

// Fixed always reports the same instant. Test use only.
type Fixed struct {
	Instant time.Time
}

// NewFixedDate pins the clock to UTC midnight of an ISO date.
// Panics on a malformed date; tests pass literals.
func NewFixedDate(date string) Fixed {
	t, err := dates.Parse(date)
	if err != nil {
		panic(err)
	}
	return Fixed{Instant: t}
}

func (f Fixed) Now() time.Time { return f.Instant }

func (f Fixed) Today() string { return dates.Format(f.Instant) }
