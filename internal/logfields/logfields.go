package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTaskID       = "task_id"
	KeyMasterID     = "master_id"
	KeyOccurrence   = "occurrence_date"
	KeyWindowStart  = "window_start"
	KeyWindowDays   = "window_days"
	KeyLookbackDays = "lookback_days"
	KeyToday        = "today"
	KeyRule         = "rule"
	KeyCount        = "count"
	KeyDurationMS   = "duration_ms"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func TaskID(id string) slog.Attr        { return slog.String(KeyTaskID, id) }
func MasterID(id string) slog.Attr      { return slog.String(KeyMasterID, id) }
func Occurrence(date string) slog.Attr  { return slog.String(KeyOccurrence, date) }
func WindowStart(date string) slog.Attr { return slog.String(KeyWindowStart, date) }
func WindowDays(n int) slog.Attr        { return slog.Int(KeyWindowDays, n) }
func LookbackDays(n int) slog.Attr      { return slog.Int(KeyLookbackDays, n) }
func Today(date string) slog.Attr       { return slog.String(KeyToday, date) }
func Rule(r string) slog.Attr           { return slog.String(KeyRule, r) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
