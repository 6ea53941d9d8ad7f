package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/appsage/appsage/ai"
	"github.com/appsage/appsage/core"
	"github.com/appsage/appsage/store"
	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultBatchSize is the number of insights embedded per model call.
	DefaultBatchSize = 32

	defaultMaxRetries = 3
	defaultRetryDelay = 1 * time.Second
)

// Pipeline loads generated insights into the repository and embeds them,
// concurrently in batches on a worker pool. Embedding failures are retried
// with exponential backoff before the batch is reported as failed.
type Pipeline struct {
	repository store.InsightRepository
	embedder   ai.Embedder
	pool       *ants.Pool
	mode       store.IngestMode
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	progressW  io.Writer
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many insights are embedded per model call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size <= 0 {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithMode sets the ingest mode, replace or merge.
// Default is store.IngestReplace.
func WithMode(mode store.IngestMode) Option {
	return func(p *Pipeline) error {
		p.mode = mode
		return nil
	}
}

// WithRetry sets the retry policy for embedding calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxRetries = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithProgress enables progress reporting to the given writer.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progressW = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository store.InsightRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		embedder:   embedder,
		pool:       pool,
		mode:       store.IngestReplace,
		batchSize:  DefaultBatchSize,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Run ingests the insights: stores them according to the configured mode,
// then embeds every stored record that needs a vector. Run blocks until all
// batches finish; the caller rebuilds the index afterwards.
func (p *Pipeline) Run(ctx context.Context, insights []*core.Insight) error {
	if p.mode == store.IngestReplace {
		p.logger.Info("replace mode: purging stored corpus")
		if err := p.repository.Purge(ctx); err != nil {
			return err
		}
	}

	toAdd := insights
	if p.mode == store.IngestMerge {
		toAdd = make([]*core.Insight, 0, len(insights))
		for _, insight := range insights {
			exists, err := p.repository.HasFingerprint(ctx, insight.Fingerprint())
			if err != nil {
				return err
			}
			if exists {
				p.logger.Debug("skipping already-stored insight", "insightID", insight.Id)
				continue
			}
			toAdd = append(toAdd, insight)
		}
	}

	if len(toAdd) == 0 {
		p.logger.Info("nothing to ingest")
		return nil
	}

	added, err := p.repository.AddInsights(ctx, toAdd...)
	if err != nil {
		return err
	}
	p.logger.Info("stored insights", "count", len(added), "mode", string(p.mode))

	return p.embedAll(ctx, added)
}

// embedAll generates vectors for the given insights in concurrent batches.
func (p *Pipeline) embedAll(ctx context.Context, insights []*core.Insight) error {
	var tracker *ProgressTracker
	if p.progressW != nil {
		interval := p.batchSize
		tracker = NewProgressTracker(p.progressW, len(insights), interval)
		tracker.Start()
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for start := 0; start < len(insights); start += p.batchSize {
		end := start + p.batchSize
		if end > len(insights) {
			end = len(insights)
		}
		batch := insights[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			if err := p.embedBatch(ctx, batch); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			if tracker != nil {
				tracker.Increment(len(batch))
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, submitErr)
			mu.Unlock()
		}
	}

	wg.Wait()
	if tracker != nil {
		tracker.Finish()
	}

	return errors.Join(errs...)
}

// embedBatch embeds one batch with retry and persists the vectors.
func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.Insight) error {
	texts := make([]string, len(batch))
	for i, insight := range batch {
		texts[i] = insight.EmbeddingText()
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		p.logger.Error("error generating embeddings", "batch", len(texts), "err", err)
		return err
	}

	if len(vectors) != len(batch) {
		return errors.New("embedding result count mismatch")
	}

	for i := range vectors {
		batch[i].Vector = vectors[i]
	}

	_, err = p.repository.UpdateInsights(ctx, batch...)
	return err
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
