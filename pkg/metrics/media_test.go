package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMediaMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMediaMetrics(reg)

	m.ObserveJob("publish_video", "committed", 2*time.Second)
	m.ObserveJob("publish_video", "failed", time.Second)
	m.ObserveJob("publish_video", "failed", time.Second)
	m.IncCompensation("deleted")
	m.IncOrphan("compensation")
	m.IncDeletionStep("remote_assets", "ok")

	if got := testutil.ToFloat64(m.jobs.WithLabelValues("publish_video", "failed")); got != 2 {
		t.Fatalf("expected 2 failed jobs, got %f", got)
	}
	if got := testutil.ToFloat64(m.orphans.WithLabelValues("compensation")); got != 1 {
		t.Fatalf("expected 1 orphan, got %f", got)
	}
	if got := testutil.CollectAndCount(m.jobDuration); got != 1 {
		t.Fatalf("expected a single duration series, got %d", got)
	}
	if got := testutil.ToFloat64(m.deletions.WithLabelValues("remote_assets", "ok")); got != 1 {
		t.Fatalf("expected 1 deletion step, got %f", got)
	}
}
