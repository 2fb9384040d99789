package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

const (
	JobName          = "embed_products"
	DefaultBatchSize = 50
	DefaultPause     = time.Second
)

type sourceStore interface {
	ListSources(ctx context.Context, all bool) ([]SourceProduct, error)
	Upsert(ctx context.Context, ids []uuid.UUID, vectors [][]float32) error
}

type embedder interface {
	CreateEmbeddings(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

// itemRecorder receives per-product results. Run timing is recorded by
// whoever schedules the job.
type itemRecorder interface {
	Items(job string, succeeded, failed int)
}

// JobParams configures a backfill run. Metrics and Logger are optional.
type JobParams struct {
	Store     sourceStore
	Embedder  embedder
	Model     string
	BatchSize int
	Pause     time.Duration
	Metrics   itemRecorder
	Logger    *logger.Logger
}

// Summary reports what a run did.
type Summary struct {
	Products      int
	Batches       int
	Embedded      int
	FailedBatches int
}

// Job computes product embeddings in batches and stores them in
// product_vectors.
type Job struct {
	store     sourceStore
	embedder  embedder
	model     string
	batchSize int
	pause     time.Duration
	metrics   itemRecorder
	logger    *logger.Logger
}

func NewJob(params JobParams) (*Job, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("vector store required")
	}
	if params.Embedder == nil {
		return nil, fmt.Errorf("embeddings client required")
	}
	if params.Model == "" {
		return nil, fmt.Errorf("embedding model required")
	}
	size := params.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	pause := params.Pause
	if pause < 0 {
		pause = DefaultPause
	}
	return &Job{
		store:     params.Store,
		embedder:  params.Embedder,
		model:     params.Model,
		batchSize: size,
		pause:     pause,
		metrics:   params.Metrics,
		logger:    params.Logger,
	}, nil
}

// Run embeds every pending product, or every product when all is set. A failed
// batch is logged and skipped; the combined batch errors are returned at the
// end. Cancellation stops the run between batches.
func (j *Job) Run(ctx context.Context, all bool) (summary Summary, err error) {
	defer func() {
		if j.metrics != nil {
			j.metrics.Items(JobName, summary.Embedded, summary.Products-summary.Embedded)
		}
	}()

	sources, err := j.store.ListSources(ctx, all)
	if err != nil {
		return summary, fmt.Errorf("list products: %w", err)
	}
	summary.Products = len(sources)
	j.info(ctx, map[string]any{"products": len(sources)}, "embeddings.start")

	var errs error
	for start := 0; start < len(sources); start += j.batchSize {
		if start > 0 {
			if waitErr := j.wait(ctx); waitErr != nil {
				return summary, multierr.Append(errs, waitErr)
			}
		}
		end := start + j.batchSize
		if end > len(sources) {
			end = len(sources)
		}
		batch := sources[start:end]
		summary.Batches++

		if batchErr := j.embedBatch(ctx, batch); batchErr != nil {
			summary.FailedBatches++
			errs = multierr.Append(errs, fmt.Errorf("batch %d-%d: %w", start, end-1, batchErr))
			if j.logger != nil {
				j.logger.Error(j.logger.WithFields(ctx, map[string]any{"from": start, "to": end - 1}), "embeddings.batch_failed", batchErr)
			}
			continue
		}
		summary.Embedded += len(batch)
		j.info(ctx, map[string]any{"from": start, "to": end - 1}, "embeddings.batch_done")
	}

	j.info(ctx, map[string]any{"embedded": summary.Embedded, "failed_batches": summary.FailedBatches}, "embeddings.finished")
	return summary, errs
}

func (j *Job) embedBatch(ctx context.Context, batch []SourceProduct) error {
	inputs := make([]string, len(batch))
	ids := make([]uuid.UUID, len(batch))
	for i, p := range batch {
		inputs[i] = EmbeddingText(p)
		ids[i] = p.ID
	}
	vectors, err := j.embedder.CreateEmbeddings(ctx, j.model, inputs)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors))
	}
	return j.store.Upsert(ctx, ids, vectors)
}

func (j *Job) wait(ctx context.Context) error {
	if j.pause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(j.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (j *Job) info(ctx context.Context, fields map[string]any, msg string) {
	if j.logger == nil {
		return
	}
	j.logger.Info(j.logger.WithFields(ctx, fields), msg)
}

// EmbeddingText is the text embedded for a product: its name, a blank line,
// then its description.
func EmbeddingText(p SourceProduct) string {
	description := ""
	if p.Description != nil {
		description = *p.Description
	}
	return p.Name + "\n\n" + description
}
