package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/vapevault-backend/internal/embeddings"
)

type embeddingRunner interface {
	Run(ctx context.Context, all bool) (embeddings.Summary, error)
}

// EmbeddingJob backfills vectors for products that do not have one yet.
type EmbeddingJob struct {
	runner embeddingRunner
}

func NewEmbeddingJob(runner embeddingRunner) (*EmbeddingJob, error) {
	if runner == nil {
		return nil, fmt.Errorf("embedding runner required")
	}
	return &EmbeddingJob{runner: runner}, nil
}

func (j *EmbeddingJob) Name() string { return embeddings.JobName }

func (j *EmbeddingJob) Run(ctx context.Context) error {
	_, err := j.runner.Run(ctx, false)
	return err
}
