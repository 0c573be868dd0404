package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vidora"

// CronJobMetrics records outcomes of scheduled jobs.
type CronJobMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	processed *prometheus.CounterVec
	backlog   *prometheus.GaugeVec
}

// NewCronJobMetrics registers the cron job metrics on reg. A nil registerer
// yields a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_duration_seconds",
		Help:      "Duration of cron jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_success_total",
		Help:      "Successful cron job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "job_failure_total",
		Help:      "Failed cron job executions.",
	}, []string{"job"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "items_processed_total",
		Help:      "Items handled by cron jobs, by result.",
	}, []string{"job", "result"})
	backlog := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cron",
		Name:      "orphan_ledger_rows",
		Help:      "Orphan ledger rows by status after the last reconcile run.",
	}, []string{"status"})
	reg.MustRegister(duration, success, failure, processed, backlog)
	return &CronJobMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		processed: processed,
		backlog:   backlog,
	}
}

func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddProcessed counts n items with the given result (resolved, retried, ...).
func (c *CronJobMetrics) AddProcessed(job, result string, n int) {
	if c == nil || c.processed == nil || n <= 0 {
		return
	}
	c.processed.WithLabelValues(normalizeLabel(job), normalizeLabel(result)).Add(float64(n))
}

// SetOrphanBacklog records the ledger row count for one status.
func (c *CronJobMetrics) SetOrphanBacklog(status string, n int64) {
	if c == nil || c.backlog == nil {
		return
	}
	c.backlog.WithLabelValues(normalizeLabel(status)).Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
