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

	"github.com/vidora/vidora-backend/api/controllers"
	"github.com/vidora/vidora-backend/api/routes"
	"github.com/vidora/vidora-backend/internal/accounts"
	"github.com/vidora/vidora-backend/internal/deletion"
	"github.com/vidora/vidora-backend/internal/engagement"
	"github.com/vidora/vidora-backend/internal/objectstore"
	"github.com/vidora/vidora-backend/internal/orphans"
	"github.com/vidora/vidora-backend/internal/staging"
	"github.com/vidora/vidora-backend/internal/tweets"
	"github.com/vidora/vidora-backend/internal/upload"
	"github.com/vidora/vidora-backend/internal/videos"
	"github.com/vidora/vidora-backend/pkg/config"
	"github.com/vidora/vidora-backend/pkg/db"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/metrics"
	"github.com/vidora/vidora-backend/pkg/migrate"
	pkgmongo "github.com/vidora/vidora-backend/pkg/mongo"
	"github.com/vidora/vidora-backend/pkg/redis"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := pkgmongo.New(ctx, cfg.Mongo, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap mongo", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing mongo", err)
		}
	}()
	if err := mongoClient.EnsureIndexes(ctx); err != nil {
		logg.Error(ctx, "failed to ensure mongo indexes", err)
		os.Exit(1)
	}

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

	ready := map[string]controllers.Pinger{
		"mongo":    mongoClient,
		"database": dbClient,
	}

	var limiter routes.RateLimiter
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		limiter = redisClient
		ready["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; upload rate limiting disabled")
	}

	store, err := objectstore.Bootstrap(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap object storage", err)
		os.Exit(1)
	}
	if store.Configured() {
		ready["objectstore"] = store
	}

	area, err := staging.NewArea(
		cfg.Storage.StagingDir,
		staging.DefaultPolicies(cfg.Media.VideoMaxBytes(), cfg.Media.ImageMaxBytes()),
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create staging area", err)
		os.Exit(1)
	}

	mediaMetrics := metrics.NewMediaMetrics(prometheus.DefaultRegisterer)
	recorder := orphans.NewRecorder(orphans.NewRepository(dbClient.DB()), logg, mediaMetrics)

	database := mongoClient.Database()
	videoRepo := videos.NewRepository(database)
	tweetRepo := tweets.NewRepository(database)
	accountRepo := accounts.NewRepository(database)

	uploads, err := upload.NewCoordinator(upload.Params{
		Store:           store,
		Staging:         area,
		Videos:          videoRepo,
		Tweets:          tweetRepo,
		Accounts:        accountRepo,
		Orphans:         recorder,
		Metrics:         mediaMetrics,
		Logger:          logg,
		MetadataTimeout: cfg.Storage.MetadataTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create upload coordinator", err)
		os.Exit(1)
	}

	deletes, err := deletion.NewCoordinator(deletion.Params{
		Store:           store,
		Videos:          videoRepo,
		Tweets:          tweetRepo,
		Dependents:      engagement.NewRepository(database),
		Accounts:        accountRepo,
		Orphans:         recorder,
		Metrics:         mediaMetrics,
		Logger:          logg,
		MetadataTimeout: cfg.Storage.MetadataTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create deletion coordinator", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": string(cfg.Storage.Provider),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Uploads:  uploads,
			Deletes:  deletes,
			Staging:  area,
			Limiter:  limiter,
			Gatherer: prometheus.DefaultGatherer,
			Ready:    ready,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}
}
