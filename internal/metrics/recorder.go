package metrics

import "time"

// Recorder defines observability hooks for the planner engine. Implementations
// may forward to Prometheus, OpenTelemetry, etc. The NoopRecorder allows
// optional injection without nil checks at call sites.
type Recorder interface {
	// ObserveProjection records one projection pass: total visible
	// occurrences, how many were ghosts, and how many residual
	// duplicates the safety net dropped.
	ObserveProjection(total, ghosts, duplicatesDropped int)

	// ObserveProjectionDuration records how long a projection took.
	ObserveProjectionDuration(d time.Duration)

	// ObserveRollover records one rollover pass.
	ObserveRollover(updates, creations int, d time.Duration)

	// IncRuleParseFailure counts tasks degraded to non-recurring.
	IncRuleParseFailure()

	// IncRecordRejected counts records the sanitizer dropped.
	IncRecordRejected()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveProjection(int, int, int)         {}
func (NoopRecorder) ObserveProjectionDuration(time.Duration) {}
func (NoopRecorder) ObserveRollover(int, int, time.Duration) {}
func (NoopRecorder) IncRuleParseFailure()                    {}
func (NoopRecorder) IncRecordRejected()                      {}
