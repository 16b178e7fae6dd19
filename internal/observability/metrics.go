// Package observability provides Prometheus metrics for the radar loops.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Tick outcomes per task ("ingest", "sweep") and status ("ok", "error").
	TicksTotal   *prometheus.CounterVec
	TickDuration *prometheus.HistogramVec

	// Ingestion metrics
	TokensFetched    prometheus.Counter
	TokensUpserted   prometheus.Counter
	MalformedRecords prometheus.Counter
	NewlyBonded      prometheus.Counter
	EnrichmentErrors prometheus.Counter

	// Sweep metrics
	AlertsEvaluated prometheus.Counter
	AlertsTriggered prometheus.Counter
	AlertsSkipped   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngest prometheus.Gauge
	LastSuccessfulSweep  prometheus.Gauge
}

// NewMetrics creates a Metrics instance with all metrics registered on the
// default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_radar"
	}

	return &Metrics{
		TicksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduled tick executions by task and status",
		}, []string{"task", "status"}),
		TickDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Tick execution duration by task",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),

		TokensFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_fetched_total",
			Help:      "Raw token records fetched from the listing source",
		}),
		TokensUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_upserted_total",
			Help:      "Token snapshots written to the store",
		}),
		MalformedRecords: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_records_total",
			Help:      "Upstream records skipped for missing required fields",
		}),
		NewlyBonded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "newly_bonded_total",
			Help:      "Tokens observed crossing the bonding threshold",
		}),
		EnrichmentErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_errors_total",
			Help:      "Failed market data enrichment lookups",
		}),

		AlertsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_evaluated_total",
			Help:      "Alert evaluations performed by the sweep",
		}),
		AlertsTriggered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Alerts flipped to triggered",
		}),
		AlertsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_skipped_total",
			Help:      "Alerts skipped during a sweep by reason",
		}, []string{"reason"}),

		LastSuccessfulIngest: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_ingest_timestamp_seconds",
			Help:      "Unix time of the last successful ingestion tick",
		}),
		LastSuccessfulSweep: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_sweep_timestamp_seconds",
			Help:      "Unix time of the last successful alert sweep",
		}),
	}
}

// ObserveTick records one tick outcome for a task and stamps the matching
// last-success gauge.
func (m *Metrics) ObserveTick(task string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.TicksTotal.WithLabelValues(task, status).Inc()
	m.TickDuration.WithLabelValues(task).Observe(time.Since(started).Seconds())
	if err == nil {
		switch task {
		case "ingest":
			m.LastSuccessfulIngest.SetToCurrentTime()
		case "sweep":
			m.LastSuccessfulSweep.SetToCurrentTime()
		}
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
