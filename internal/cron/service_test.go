package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/metrics"
)

type fakeLock struct {
	acquired   bool
	acquireErr error
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	reg := prometheus.NewRegistry()
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(success, failure),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected each job to run once, got %d and %d", success.runs, failure.runs)
	}
	if lock.releases != 1 || lock.acquired {
		t.Fatalf("lock must be released after the cycle")
	}
	for _, name := range []string{"vidora_cron_job_failure_total", "vidora_cron_job_success_total"} {
		got, err := testutil.GatherAndCount(reg, name)
		if err != nil || got != 1 {
			t.Fatalf("expected one %s series, got %d (%v)", name, got, err)
		}
	}
}

func TestServiceSkipsCycleWhenLocked(t *testing.T) {
	job := &testJob{name: "job"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("locked cycle should not error: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job must not run without the lock")
	}
}

func TestServiceLockError(t *testing.T) {
	service, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Lock:   &fakeLock{acquireErr: errors.New("redis down")},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err == nil {
		t.Fatal("expected lock acquire error")
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "job"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &LocalLock{},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: &LocalLock{}}); err == nil {
		t.Fatal("expected logger requirement")
	}
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected lock requirement")
	}
}
