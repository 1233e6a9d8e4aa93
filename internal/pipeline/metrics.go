package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the job runner.
type Metrics struct {
	runs        *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rows        *prometheus.CounterVec
	running     *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpsync",
			Name:      "job_runs_total",
			Help:      "Finished job runs by outcome.",
		}, []string{"job", "status"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpsync",
			Name:      "job_runs_skipped_total",
			Help:      "Ticks skipped because the previous run was still in progress.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "erpsync",
			Name:      "job_duration_seconds",
			Help:      "Job run duration.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpsync",
			Name:      "job_rows_written_total",
			Help:      "Rows written by successful runs.",
		}, []string{"job"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "erpsync",
			Name:      "job_running",
			Help:      "1 while a run of the job is in progress.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "erpsync",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"job"}),
	}

	if reg != nil {
		reg.MustRegister(m.runs, m.skipped, m.duration, m.rows, m.running, m.lastSuccess)
	}
	return m
}

func (m *Metrics) started(job string) {
	m.running.WithLabelValues(job).Set(1)
}

func (m *Metrics) finished(job string, status RunStatus, rows int, took time.Duration, at time.Time) {
	m.running.WithLabelValues(job).Set(0)
	m.runs.WithLabelValues(job, string(status)).Inc()
	m.duration.WithLabelValues(job).Observe(took.Seconds())
	if status == StatusSucceeded {
		m.rows.WithLabelValues(job).Add(float64(rows))
		m.lastSuccess.WithLabelValues(job).Set(float64(at.Unix()))
	}
}

func (m *Metrics) skip(job string) {
	m.skipped.WithLabelValues(job).Inc()
}
