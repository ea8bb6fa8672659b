package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "second_high"

// Recorder records pipeline metrics using Prometheus.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	gatherer prometheus.Gatherer

	runsTotal       *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	outcomesTotal   *prometheus.CounterVec
	filterExcluded  *prometheus.CounterVec
	candidates      prometheus.Gauge
	notifications   *prometheus.CounterVec
	collectedTotal  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastRunUnixTime prometheus.Gauge
}

// New creates a recorder registered on reg.
// Production passes prometheus.DefaultRegisterer; tests pass a fresh registry.
func New(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		gatherer: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Screening runs by final status",
			},
			[]string{"status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		outcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "instrument_outcomes_total",
				Help:      "Per-instrument screening outcomes",
			},
			[]string{"outcome"},
		),
		filterExcluded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filter_excluded_total",
				Help:      "Instruments dropped by the basic filter, by reason",
			},
			[]string{"reason"},
		),
		candidates: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "candidates_last_run",
				Help:      "Number of qualifying instruments in the latest run",
			},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Telegram fragments by delivery status",
			},
			[]string{"status"},
		),
		collectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collected_rows_total",
				Help:      "Rows stored by the market data collector",
			},
			[]string{"source"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastRunUnixTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the latest finished run",
			},
		),
	}
}

// Handler exposes the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// RecordRun records a finished run with status "success", "failed" or "skipped"
func (r *Recorder) RecordRun(status string, candidates int) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(status).Inc()
	r.lastRunUnixTime.SetToCurrentTime()
	if status == "success" {
		r.candidates.Set(float64(candidates))
	}
}

// RecordStage records the duration of one pipeline stage
func (r *Recorder) RecordStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordOutcomes adds per-outcome instrument counts
func (r *Recorder) RecordOutcomes(counts map[string]int) {
	if r == nil {
		return
	}
	for outcome, n := range counts {
		r.outcomesTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordExclusions adds basic-filter exclusion counts by reason
func (r *Recorder) RecordExclusions(counts map[string]int) {
	if r == nil {
		return
	}
	for reason, n := range counts {
		r.filterExcluded.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordNotification records one delivered or failed message fragment
func (r *Recorder) RecordNotification(delivered bool) {
	if r == nil {
		return
	}
	status := "failed"
	if delivered {
		status = "delivered"
	}
	r.notifications.WithLabelValues(status).Inc()
}

// RecordCollected adds stored rows for a data source (prices, revenue)
func (r *Recorder) RecordCollected(source string, rows int) {
	if r == nil {
		return
	}
	r.collectedTotal.WithLabelValues(source).Add(float64(rows))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	if r == nil {
		return
	}
	r.errorsTotal.WithLabelValues(kind).Inc()
}
