package ingestion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/models"
)

const metricsNamespace = "rpulse"

// Metrics exposes ingestion counters and gauges. It implements BatchObserver.
type Metrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	batches       prometheus.Counter
	runs          prometheus.Counter
	activeUsers   prometheus.Gauge
	invalidRepos  prometheus.Gauge
	lastRun       prometheus.Gauge
}

// NewMetrics creates the ingestion collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetches_total",
			Help:      "Commit fetches by result kind.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single commit fetch.",
			Buckets:   prometheus.DefBuckets,
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Batches launched.",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Completed ingestion runs.",
		}),
		activeUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_users",
			Help:      "Active users in the most recent run.",
		}),
		invalidRepos: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "invalid_entries",
			Help:      "Unreachable roster entries in the most recent run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the most recent run finished.",
		}),
	}

	reg.MustRegister(m.fetches, m.fetchDuration, m.batches, m.runs, m.activeUsers, m.invalidRepos, m.lastRun)
	return m
}

func (m *Metrics) OnBatchStart(int, int, time.Time) {
	m.batches.Inc()
}

func (m *Metrics) OnFetch(outcome models.FetchOutcome, elapsed time.Duration) {
	m.fetches.WithLabelValues(errors.Kind(outcome.Err)).Inc()
	m.fetchDuration.Observe(elapsed.Seconds())
}

// ObserveReport records the run-level gauges
func (m *Metrics) ObserveReport(report *models.Report) {
	m.runs.Inc()
	m.activeUsers.Set(float64(report.Rollup.TotalActiveUsers))
	m.invalidRepos.Set(float64(len(report.InvalidEntries)))
	m.lastRun.Set(float64(report.FinishedAt.Unix()))
}
