package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vidora/vidora-backend/internal/cron"
	"github.com/vidora/vidora-backend/internal/objectstore"
	"github.com/vidora/vidora-backend/internal/orphans"
	"github.com/vidora/vidora-backend/pkg/config"
	"github.com/vidora/vidora-backend/pkg/db"
	"github.com/vidora/vidora-backend/pkg/instance"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/metrics"
	"github.com/vidora/vidora-backend/pkg/migrate"
	"github.com/vidora/vidora-backend/pkg/redis"
)

const (
	lockName        = "cron-worker"
	shutdownTimeout = 10 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	lock, closeLock, err := buildLock(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}
	defer closeLock()

	store, err := objectstore.Bootstrap(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	registry := cron.NewRegistry()
	if store.Configured() {
		job, err := cron.NewOrphanReconcileJob(cron.OrphanReconcileJobParams{
			Logger:      logg,
			Ledger:      orphans.NewRepository(dbClient.DB()),
			Store:       store,
			Metrics:     jobMetrics,
			BatchSize:   cfg.Cron.OrphanBatchSize,
			MaxAttempts: cfg.Cron.OrphanMaxAttempts,
		})
		if err != nil {
			logg.Error(ctx, "failed to create orphan reconcile job", err)
			os.Exit(1)
		}
		if err := registry.Register(job); err != nil {
			logg.Error(ctx, "failed to register orphan reconcile job", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "object storage not configured; orphan reconcile disabled")
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.App.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logg.Info(ctx, "starting cron worker")
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), shutdownTimeout)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		return service.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildLock uses Redis when configured so only one replica runs a cycle.
func buildLock(ctx context.Context, cfg *config.Config, logg *logger.Logger) (cron.Lock, func(), error) {
	if !cfg.Redis.Enabled() {
		logg.Warn(ctx, "redis not configured; using in-process cron lock")
		return &cron.LocalLock{}, func() {}, nil
	}
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, nil, err
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Cron.LockTTL)
	if err != nil {
		_ = redisClient.Close()
		return nil, nil, err
	}
	return lock, func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}, nil
}
