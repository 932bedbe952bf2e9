package recurrence

import (
	"slices"
	"time"

	"git.home.luguber.info/inful/dayplan/internal/util/dates"
)

// Expand returns the occurrence dates of rule anchored at anchor that
// fall inside [windowStart, windowEnd], both inclusive, sorted
// ascending. COUNT is consumed from the anchor onward, so occurrences
// before the window still count against it. The result is always
// finite: iteration never proceeds past the window end or the rule's
// UNTIL date.
func Expand(r Rule, anchor, windowStart, windowEnd time.Time) []time.Time {
	if windowEnd.Before(windowStart) || anchor.After(windowEnd) {
		return nil
	}
	interval := r.Interval
	if interval < 1 {
		interval = 1
	}

	limit := windowEnd
	if r.Until != "" {
		if until, err := dates.Parse(r.Until); err == nil && until.Before(limit) {
			limit = until
		}
	}

	switch r.Freq {
	case Weekly:
		if len(r.ByDay) > 0 {
			return expandWeekdaySet(r, anchor, windowStart, limit, interval)
		}
		return expandStepped(r, anchor, windowStart, limit, func(k int) time.Time {
			return dates.AddDays(anchor, 7*interval*k)
		})
	case Monthly:
		return expandCalendarUnit(r, anchor, windowStart, limit, func(k int) (time.Time, bool) {
			base := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, interval*k, 0)
			cand := time.Date(base.Year(), base.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
			// A month without the anchor day (e.g. 31st in April)
			// produces no occurrence rather than spilling into the
			// next month.
			return cand, cand.Month() == base.Month()
		})
	case Yearly:
		return expandCalendarUnit(r, anchor, windowStart, limit, func(k int) (time.Time, bool) {
			y := anchor.Year() + interval*k
			cand := time.Date(y, anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
			// Feb 29 anchors only recur in leap years.
			return cand, cand.Month() == anchor.Month()
		})
	default: // Daily, and the zero Frequency guard.
		return expandStepped(r, anchor, windowStart, limit, func(k int) time.Time {
			return dates.AddDays(anchor, interval*k)
		})
	}
}

// Dates is the string-boundary form of Expand: ISO dates in, sorted
// ISO dates out. Malformed anchors or window bounds yield nil.
func Dates(r Rule, anchorISO, startISO, endISO string) []string {
	anchor, err := dates.Parse(anchorISO)
	if err != nil {
		return nil
	}
	start, err := dates.Parse(startISO)
	if err != nil {
		return nil
	}
	end, err := dates.Parse(endISO)
	if err != nil {
		return nil
	}
	expanded := Expand(r, anchor, start, end)
	out := make([]string, len(expanded))
	for i, t := range expanded {
		out[i] = dates.Format(t)
	}
	return out
}

// expandStepped handles rules whose occurrences are a fixed day step
// apart (daily, weekly without BYDAY).
func expandStepped(r Rule, anchor, windowStart, limit time.Time, nth func(int) time.Time) []time.Time {
	var out []time.Time
	for k := 0; ; k++ {
		if r.Count > 0 && k >= r.Count {
			break
		}
		cand := nth(k)
		if cand.After(limit) {
			break
		}
		if !cand.Before(windowStart) {
			out = append(out, cand)
		}
	}
	return out
}

// expandCalendarUnit handles monthly and yearly rules, where some
// periods may lack a valid occurrence date entirely. Invalid periods
// do not consume COUNT.
func expandCalendarUnit(r Rule, anchor, windowStart, limit time.Time, nth func(int) (time.Time, bool)) []time.Time {
	var out []time.Time
	emitted := 0
	for k := 0; ; k++ {
		cand, valid := nth(k)
		if cand.After(limit) {
			break
		}
		if !valid {
			continue
		}
		if r.Count > 0 && emitted >= r.Count {
			break
		}
		emitted++
		if !cand.Before(windowStart) {
			out = append(out, cand)
		}
	}
	return out
}

// expandWeekdaySet handles weekly rules with an explicit BYDAY set.
// Weeks start on Monday (RFC 5545 default WKST); occurrences before
// the anchor date are never generated.
func expandWeekdaySet(r Rule, anchor, windowStart, limit time.Time, interval int) []time.Time {
	offsets := make([]int, 0, len(r.ByDay))
	for _, wd := range r.ByDay {
		offsets = append(offsets, mondayOffset(wd))
	}
	slices.Sort(offsets)
	offsets = slices.Compact(offsets)

	weekBase := dates.AddDays(anchor, -mondayOffset(anchor.Weekday()))

	var out []time.Time
	emitted := 0
	for week := 0; ; week++ {
		base := dates.AddDays(weekBase, 7*interval*week)
		if base.After(limit) {
			break
		}
		for _, off := range offsets {
			cand := dates.AddDays(base, off)
			if cand.Before(anchor) {
				continue
			}
			if cand.After(limit) {
				break
			}
			if r.Count > 0 && emitted >= r.Count {
				return out
			}
			emitted++
			if !cand.Before(windowStart) {
				out = append(out, cand)
			}
		}
	}
	return out
}

// mondayOffset maps a weekday to its zero-based offset in a
// Monday-started week.
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
