package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/vapevault-backend/internal/embeddings"
	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/db"
	"github.com/angelmondragon/vapevault-backend/pkg/instance"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	"github.com/angelmondragon/vapevault-backend/pkg/openai"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "embed-products"})

	_ = godotenv.Load()

	all := flag.Bool("all", false, "re-embed every named product, not only those without a vector")
	batchSize := flag.Int("batch", 0, "products per embeddings call (defaults to config)")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "embed-products",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	if cfg.OpenAI.APIKey == "" {
		requireResource(ctx, logg, "openai api key", errors.New("VAPEVAULT_OPENAI_API_KEY is not set"))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	openaiClient, err := openai.NewClient(
		cfg.OpenAI.APIKey,
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithTimeout(cfg.OpenAI.Timeout),
	)
	requireResource(ctx, logg, "openai client", err)

	size := cfg.Embeddings.BatchSize
	if *batchSize > 0 {
		size = *batchSize
	}

	job, err := embeddings.NewJob(embeddings.JobParams{
		Store:     embeddings.NewRepository(dbClient.DB()),
		Embedder:  openaiClient,
		Model:     cfg.OpenAI.EmbeddingModel,
		BatchSize: size,
		Pause:     cfg.Embeddings.Pause,
		Logger:    logg,
	})
	requireResource(ctx, logg, "embedding job", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"all":      *all,
		"model":    cfg.OpenAI.EmbeddingModel,
	})

	summary, err := job.Run(runCtx, *all)
	logg.Info(logg.WithFields(runCtx, map[string]any{
		"products":       summary.Products,
		"batches":        summary.Batches,
		"embedded":       summary.Embedded,
		"failed_batches": summary.FailedBatches,
	}), "embed-products finished")
	if err != nil {
		logg.Error(runCtx, "embed-products completed with errors", err)
		stop()
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
