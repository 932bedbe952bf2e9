package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	projectionSize     prom.Histogram
	projectionGhosts   prom.Histogram
	projectionDuration prom.Histogram
	duplicatesDropped  prom.Counter
	rolloverUpdates    prom.Counter
	rolloverCreations  prom.Counter
	rolloverDuration   prom.Histogram
	ruleParseFailures  prom.Counter
	recordsRejected    prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.projectionSize = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "dayplan",
			Name:      "projection_occurrences",
			Help:      "Visible occurrences per projection pass",
			Buckets:   prom.ExponentialBuckets(1, 2, 10),
		})
		pr.projectionGhosts = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "dayplan",
			Name:      "projection_ghosts",
			Help:      "Ghost occurrences per projection pass",
			Buckets:   prom.ExponentialBuckets(1, 2, 10),
		})
		pr.projectionDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "dayplan",
			Name:      "projection_duration_seconds",
			Help:      "Duration of projection passes",
			Buckets:   prom.DefBuckets,
		})
		pr.duplicatesDropped = prom.NewCounter(prom.CounterOpts{
			Namespace: "dayplan",
			Name:      "projection_duplicates_dropped_total",
			Help:      "Residual duplicate occurrences dropped by the dedup safety net",
		})
		pr.rolloverUpdates = prom.NewCounter(prom.CounterOpts{
			Namespace: "dayplan",
			Name:      "rollover_updates_total",
			Help:      "Master task updates produced by rollover passes",
		})
		pr.rolloverCreations = prom.NewCounter(prom.CounterOpts{
			Namespace: "dayplan",
			Name:      "rollover_creations_total",
			Help:      "Standalone tasks detached from series by rollover passes",
		})
		pr.rolloverDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "dayplan",
			Name:      "rollover_duration_seconds",
			Help:      "Duration of rollover passes",
			Buckets:   prom.DefBuckets,
		})
		pr.ruleParseFailures = prom.NewCounter(prom.CounterOpts{
			Namespace: "dayplan",
			Name:      "rule_parse_failures_total",
			Help:      "Tasks degraded to non-recurring due to unparsable rules",
		})
		pr.recordsRejected = prom.NewCounter(prom.CounterOpts{
			Namespace: "dayplan",
			Name:      "records_rejected_total",
			Help:      "Malformed records dropped by the sanitizer",
		})
		reg.MustRegister(pr.projectionSize, pr.projectionGhosts, pr.projectionDuration,
			pr.duplicatesDropped, pr.rolloverUpdates, pr.rolloverCreations,
			pr.rolloverDuration, pr.ruleParseFailures, pr.recordsRejected)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveProjection(total, ghosts, duplicatesDropped int) {
	if p == nil || p.projectionSize == nil {
		return
	}
	p.projectionSize.Observe(float64(total))
	p.projectionGhosts.Observe(float64(ghosts))
	if duplicatesDropped > 0 {
		p.duplicatesDropped.Add(float64(duplicatesDropped))
	}
}

func (p *PrometheusRecorder) ObserveProjectionDuration(d time.Duration) {
	if p == nil || p.projectionDuration == nil {
		return
	}
	p.projectionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRollover(updates, creations int, d time.Duration) {
	if p == nil || p.rolloverUpdates == nil {
		return
	}
	p.rolloverUpdates.Add(float64(updates))
	p.rolloverCreations.Add(float64(creations))
	p.rolloverDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRuleParseFailure() {
	if p == nil || p.ruleParseFailures == nil {
		return
	}
	p.ruleParseFailures.Inc()
}

func (p *PrometheusRecorder) IncRecordRejected() {
	if p == nil || p.recordsRejected == nil {
		return
	}
	p.recordsRejected.Inc()
}
