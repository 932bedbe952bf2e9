// Package recurrence parses the RFC 5545 recurrence-rule subset used
// by task records and expands rules into concrete calendar dates
// within a caller-supplied finite window. Expansion is always bounded;
// there is no unbounded iteration path.
package recurrence

import (
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/dayplan/internal/foundation/errors"
	"git.home.luguber.info/inful/dayplan/internal/util/dates"
)

// Frequency is the base repetition unit of a rule.
type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

// Rule is a parsed recurrence definition.
type Rule struct {
	Freq     Frequency
	Interval int
	// ByDay restricts weekly rules to a weekday set. Empty means the
	// anchor's own weekday.
	ByDay []time.Weekday
	// Until is an inclusive ISO end date; empty means no end date.
	Until string
	// Count is the total number of occurrences counted from the
	// anchor; zero means unlimited.
	Count int
}

// weekday codes per RFC 5545 BYDAY.
var weekdayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

func parseError(msg, rule string) error {
	return errors.RuleError(msg).WithContext("rule", rule).Build()
}

// Parse decodes an RRULE string such as
// "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,FR;UNTIL=20240630". Malformed
// input returns a rule-category error the caller can catch to treat
// the task as non-recurring; parsing never panics.
func Parse(s string) (Rule, error) {
	r := Rule{Interval: 1}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return r, parseError("empty recurrence rule", s)
	}
	// Tolerate the full property form "RRULE:FREQ=...".
	trimmed = strings.TrimPrefix(trimmed, "RRULE:")

	for _, part := range strings.Split(trimmed, ";") {
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return r, parseError("malformed rule component", s)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "FREQ":
			switch Frequency(strings.ToUpper(value)) {
			case Daily, Weekly, Monthly, Yearly:
				r.Freq = Frequency(strings.ToUpper(value))
			default:
				return r, parseError("unsupported frequency", s)
			}
		case "INTERVAL":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return r, parseError("invalid interval", s)
			}
			r.Interval = n
		case "BYDAY":
			for _, code := range strings.Split(value, ",") {
				wd, ok := weekdayCodes[strings.ToUpper(strings.TrimSpace(code))]
				if !ok {
					return r, parseError("invalid weekday code", s)
				}
				r.ByDay = append(r.ByDay, wd)
			}
		case "UNTIL":
			until, err := parseUntil(value)
			if err != nil {
				return r, parseError("invalid until date", s)
			}
			r.Until = until
		case "COUNT":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return r, parseError("invalid count", s)
			}
			r.Count = n
		default:
			// Unknown components (WKST, BYMONTH, ...) are ignored
			// rather than failing the whole task.
		}
	}

	if r.Freq == "" {
		return r, parseError("missing FREQ", s)
	}
	if r.Until != "" && r.Count > 0 {
		return r, parseError("UNTIL and COUNT are mutually exclusive", s)
	}
	if len(r.ByDay) > 0 && r.Freq != Weekly {
		return r, parseError("BYDAY is only supported with FREQ=WEEKLY", s)
	}
	return r, nil
}

// parseUntil accepts the RFC basic forms (20240630, 20240630T000000Z)
// and the planner's own ISO date form.
func parseUntil(v string) (string, error) {
	if dates.IsDate(v) {
		return v, nil
	}
	if i := strings.IndexByte(v, 'T'); i >= 0 {
		v = v[:i]
	}
	t, err := time.Parse("20060102", v)
	if err != nil {
		return "", err
	}
	return dates.Format(t), nil
}
