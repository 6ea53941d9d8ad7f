package retrieve

import (
	"context"
	"log/slog"

	"github.com/appsage/appsage/ai"
	"github.com/appsage/appsage/core"
	"github.com/appsage/appsage/index"
	"github.com/appsage/appsage/store"
)

const (
	// DefaultTopK is the number of insights retrieved when the caller does
	// not ask for a specific count.
	DefaultTopK = 5

	// DefaultMinSimilarity is the score below which index matches are
	// discarded. Matches this far from the query add noise to the prompt
	// rather than grounding.
	DefaultMinSimilarity = 0.25
)

// QueryContext is the ephemeral, per-request result of retrieval: the query
// and the insights most similar to it, in descending score order. It is
// created per user question and discarded after the answer is composed.
type QueryContext struct {
	Query   string
	Results []core.ScoredInsight
}

// Empty reports whether retrieval found nothing above the threshold.
func (qc *QueryContext) Empty() bool {
	return len(qc.Results) == 0
}

// Retriever turns a natural-language question into a ranked set of insights:
// it embeds the query, searches the vector index, and hydrates the matching
// IDs back into full insight records.
type Retriever struct {
	repository    store.InsightRepository
	embedder      ai.Embedder
	handle        *index.Handle
	topK          int
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithTopK sets the default neighbor count used when Retrieve is called
// with k <= 0. Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			k = DefaultTopK
		}
		r.topK = k
		return nil
	}
}

// WithMinSimilarity sets the minimum similarity score for a match to be
// included in results. Default is DefaultMinSimilarity; zero disables the
// threshold for inner-product scores below zero only.
func WithMinSimilarity(threshold float32) Option {
	return func(r *Retriever) error {
		if threshold < -1 || threshold > 1 {
			return ErrInvalidThreshold
		}
		r.minSimilarity = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(
	repository store.InsightRepository,
	embedder ai.Embedder,
	handle *index.Handle,
	opts ...Option,
) (*Retriever, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if handle == nil {
		return nil, ErrIndexRequired
	}

	r := &Retriever{
		repository:    repository,
		embedder:      embedder,
		handle:        handle,
		topK:          DefaultTopK,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve returns up to k insights relevant to the query, in descending
// similarity order. k <= 0 uses the configured default. A query with no
// matches above the similarity threshold yields an empty, non-error
// QueryContext.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (*QueryContext, error) {
	return r.RetrieveWithMonitor(ctx, query, k, nil)
}

// RetrieveWithMonitor is Retrieve with stage callbacks; see RetrievalMonitor.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, k int, monitor RetrievalMonitor) (*QueryContext, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if k <= 0 {
		k = r.topK
	}

	monitor.Start(query)

	// 1. Embed the query
	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(vector)

	// 2. Search the index
	matches, err := r.handle.Search(vector, k)
	if err != nil {
		r.logger.Error("error searching index", "err", err)
		return nil, err
	}
	monitor.AfterIndexSearch(matches)

	// 3. Apply the similarity threshold
	kept := matches[:0]
	for _, match := range matches {
		if match.Score < r.minSimilarity {
			monitor.BelowThreshold(match)
			continue
		}
		kept = append(kept, match)
	}
	matches = kept

	qc := &QueryContext{Query: query}
	if len(matches) == 0 {
		monitor.Finish(qc)
		return qc, nil
	}

	// 4. Hydrate IDs into full insight records
	ids := make([]core.ID, len(matches))
	for i, match := range matches {
		ids[i] = match.ID
	}

	insights, err := r.repository.GetInsights(ctx, ids...)
	if err != nil {
		r.logger.Error("error retrieving insights", "count", len(ids), "err", err)
		return nil, err
	}
	monitor.AfterHydration(insights)

	byId := make(map[core.ID]*core.Insight, len(insights))
	for _, insight := range insights {
		byId[insight.Id] = insight
	}

	// Preserve the index ranking; an ID the repository no longer holds is
	// dropped with a warning, which can only happen if the index is stale.
	qc.Results = make([]core.ScoredInsight, 0, len(matches))
	for _, match := range matches {
		insight, ok := byId[match.ID]
		if !ok {
			r.logger.Warn("index match missing from repository", "insightID", match.ID)
			continue
		}
		qc.Results = append(qc.Results, core.ScoredInsight{
			Insight: insight,
			Score:   match.Score,
		})
	}

	monitor.Finish(qc)
	return qc, nil
}
