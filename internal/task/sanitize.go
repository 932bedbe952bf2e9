package task

import (
	"encoding/json"
	"log/slog"

	"git.home.luguber.info/inful/dayplan/internal/foundation/errors"
	"git.home.luguber.info/inful/dayplan/internal/logfields"
	"git.home.luguber.info/inful/dayplan/internal/util/dates"
	"git.home.luguber.info/inful/dayplan/internal/util/sets"
)

// ErrMalformedRecord classifies a persisted record the sanitizer
// refuses to admit. Batch callers drop the record and continue.
var ErrMalformedRecord = errors.RecordError("malformed task record").Build()

// Sanitize validates and repairs one raw persisted record before it
// enters the engine. Records missing id or title are rejected. Date
// fields that carry an embedded time component are split so
// downstream date arithmetic never sees a time suffix, and optional
// sets/maps come back present-but-empty rather than absent.
func Sanitize(raw map[string]any) (*MasterTask, error) {
	if raw == nil {
		return nil, ErrMalformedRecord.WithContext("reason", "nil record")
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRecord, "marshal task record").Build()
	}
	var t MasterTask
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRecord, "decode task record").Build()
	}
	if t.ID == "" {
		return nil, ErrMalformedRecord.WithContext("reason", "missing id")
	}
	if t.Title == "" {
		return nil, ErrMalformedRecord.WithContext("reason", "missing title").WithContext(logfields.KeyTaskID, t.ID)
	}
	Normalize(&t)
	return &t, nil
}

// SanitizeAll filters a batch, preserving order and dropping rejects.
// A corrupt record never fails the batch; it is logged and skipped.
// The second return is the number of records dropped.
func SanitizeAll(raws []map[string]any) ([]*MasterTask, int) {
	out := make([]*MasterTask, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		t, err := Sanitize(raw)
		if err != nil {
			slog.Warn("Dropping malformed task record", logfields.Error(err))
			dropped++
			continue
		}
		out = append(out, t)
	}
	return out, dropped
}

// Normalize repairs a decoded task in place: splits datetime fields,
// deduplicates and sorts the date sets, and fills absent collections.
func Normalize(t *MasterTask) {
	date, clock := dates.SplitDateTime(t.Date)
	t.Date = date
	if clock != "" && t.Time == "" {
		t.Time = clock
	}
	t.Deadline, _ = dates.SplitDateTime(t.Deadline)

	t.CompletedDates = normalizeDateSet(t.CompletedDates)
	t.ExceptionDates = normalizeDateSet(t.ExceptionDates)

	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
}

// normalizeDateSet strips time suffixes, drops non-dates, and returns
// a sorted, duplicate-free slice. Never nil.
func normalizeDateSet(in []string) []string {
	s := sets.New[string]()
	for _, v := range in {
		d, _ := dates.SplitDateTime(v)
		if dates.IsDate(d) {
			s.Add(d)
		}
	}
	return sets.SortedValues(s)
}
