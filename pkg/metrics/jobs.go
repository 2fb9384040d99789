package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "vapevault"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// JobMetrics records batch work such as the embedding backfill and admin bulk
// edits. A nil *JobMetrics, or one built without a registerer, drops samples.
type JobMetrics struct {
	runs        *prometheus.CounterVec
	items       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	m := &JobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Batch job runs by outcome.",
		}, []string{"job", "outcome"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_items_total",
			Help:      "Items handled by batch jobs, by outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of batch job runs.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.items, m.duration, m.lastSuccess)
	return m
}

func (m *JobMetrics) enabled() bool {
	return m != nil && m.runs != nil
}

// Track records one finished run.
func (m *JobMetrics) Track(job string, started time.Time, err error) {
	if !m.enabled() {
		return
	}
	job = jobLabel(job)
	m.duration.WithLabelValues(job).Observe(time.Since(started).Seconds())
	if err != nil {
		m.runs.WithLabelValues(job, outcomeFailure).Inc()
		return
	}
	m.runs.WithLabelValues(job, outcomeSuccess).Inc()
	m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// Items adds per-item results of a run.
func (m *JobMetrics) Items(job string, succeeded, failed int) {
	if !m.enabled() {
		return
	}
	job = jobLabel(job)
	if succeeded > 0 {
		m.items.WithLabelValues(job, outcomeSuccess).Add(float64(succeeded))
	}
	if failed > 0 {
		m.items.WithLabelValues(job, outcomeFailure).Add(float64(failed))
	}
}

func jobLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
