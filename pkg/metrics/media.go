package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MediaMetrics records upload saga and deletion outcomes.
type MediaMetrics struct {
	jobs          *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	compensations *prometheus.CounterVec
	orphans       *prometheus.CounterVec
	deletions     *prometheus.CounterVec
}

// NewMediaMetrics registers the media lifecycle metrics on reg. A nil
// registerer yields a no-op recorder.
func NewMediaMetrics(reg prometheus.Registerer) *MediaMetrics {
	if reg == nil {
		return &MediaMetrics{}
	}
	m := &MediaMetrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "upload_jobs_total",
			Help:      "Upload jobs by operation and terminal state.",
		}, []string{"operation", "state"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "upload_job_duration_seconds",
			Help:      "Wall time of upload jobs.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"operation"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "compensations_total",
			Help:      "Compensating remote deletes by result.",
		}, []string{"result"}),
		orphans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "orphans_recorded_total",
			Help:      "Remote assets left without a referencing record.",
		}, []string{"reason"}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "deletion_steps_total",
			Help:      "Record deletion steps by result.",
		}, []string{"step", "result"}),
	}
	reg.MustRegister(m.jobs, m.jobDuration, m.compensations, m.orphans, m.deletions)
	return m
}

// ObserveJob records the terminal state and duration of one upload job.
func (m *MediaMetrics) ObserveJob(operation, state string, duration time.Duration) {
	if m == nil || m.jobs == nil {
		return
	}
	m.jobs.WithLabelValues(normalizeLabel(operation), normalizeLabel(state)).Inc()
	m.jobDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func (m *MediaMetrics) IncCompensation(result string) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *MediaMetrics) IncOrphan(reason string) {
	if m == nil || m.orphans == nil {
		return
	}
	m.orphans.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *MediaMetrics) IncDeletionStep(step, result string) {
	if m == nil || m.deletions == nil {
		return
	}
	m.deletions.WithLabelValues(normalizeLabel(step), normalizeLabel(result)).Inc()
}
