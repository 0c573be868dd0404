package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service executes registered jobs on a fixed cadence. A cycle runs only on
// the instance holding the lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		now:      time.Now,
	}, nil
}

// Run executes a cycle immediately, then one per interval until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"interval": s.interval.String(),
		"jobs":     s.registry.Names(),
	}), "cron.started")
	if err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "cron.cycle_failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logg.Error(ctx, "cron.cycle_failed", err)
			}
		}
	}
}

// RunOnce executes every registered job once if the lock can be taken.
func (s *Service) RunOnce(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "cycle_id", uuid.NewString())
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron.cycle_skipped_locked")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", relErr)
		}
	}()

	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	start := s.now()
	err := job.Run(jobCtx)
	duration := s.now().Sub(start)
	s.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron.job_failed", err)
		s.metrics.IncFailure(job.Name())
		return
	}
	s.logg.Info(jobCtx, "cron.job_completed")
	s.metrics.IncSuccess(job.Name())
}
