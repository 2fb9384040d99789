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

	"github.com/angelmondragon/vapevault-backend/internal/cron"
	"github.com/angelmondragon/vapevault-backend/internal/embeddings"
	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/db"
	"github.com/angelmondragon/vapevault-backend/pkg/instance"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	"github.com/angelmondragon/vapevault-backend/pkg/metrics"
	"github.com/angelmondragon/vapevault-backend/pkg/migrate"
	"github.com/angelmondragon/vapevault-backend/pkg/openai"
	"github.com/angelmondragon/vapevault-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "embed-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "embed-worker",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	if cfg.OpenAI.APIKey == "" {
		logg.Error(ctx, "embed worker needs an openai key", errors.New("VAPEVAULT_OPENAI_API_KEY is not set"))
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	openaiClient, err := openai.NewClient(
		cfg.OpenAI.APIKey,
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithTimeout(cfg.OpenAI.Timeout),
	)
	if err != nil {
		logg.Error(ctx, "failed to create openai client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(registry)
	backfill, err := embeddings.NewJob(embeddings.JobParams{
		Store:     embeddings.NewRepository(dbClient.DB()),
		Embedder:  openaiClient,
		Model:     cfg.OpenAI.EmbeddingModel,
		BatchSize: cfg.Embeddings.BatchSize,
		Pause:     cfg.Embeddings.Pause,
		Metrics:   jobMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create embedding job", err)
		os.Exit(1)
	}
	embedJob, err := cron.NewEmbeddingJob(backfill)
	if err != nil {
		logg.Error(ctx, "failed to wrap embedding job", err)
		os.Exit(1)
	}

	locker, err := cron.NewRedisLocker(redisClient, redisClient.LockKey(workerLease(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(ctx, "failed to create scheduler locker", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Locker:   locker,
		Jobs:     []cron.Job{embedJob},
		Metrics:  jobMetrics,
		Interval: cfg.Embeddings.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create scheduler", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Embeddings.Interval.String(),
	})
	logg.Info(runCtx, "starting embed worker")

	if addr := cfg.Embeddings.MetricsAddr; addr != "" {
		metricsSrv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(runCtx, "embed worker metrics listener failed", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "embed worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "embed worker shutting down gracefully")
}

// workerLease is the cycle lock name, one per environment.
func workerLease(env string) string {
	if env == "" {
		env = "local"
	}
	return "embed-worker:" + env
}
