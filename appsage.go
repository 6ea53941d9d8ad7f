// Copyright 2026 Appsage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package appsage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/appsage/appsage/ai"
	"github.com/appsage/appsage/ai/openai"
	"github.com/appsage/appsage/compose"
	"github.com/appsage/appsage/core"
	"github.com/appsage/appsage/index"
	"github.com/appsage/appsage/ingest"
	"github.com/appsage/appsage/retrieve"
	"github.com/appsage/appsage/store"
	"github.com/appsage/appsage/store/badger"
)

// Engine ties the insight store, the embedding index and the language model
// together into the question-answering service.
type Engine struct {
	backend   *badger.Backend
	insights  store.InsightRepository
	provider  ai.AIProvider
	handle    *index.Handle
	retriever *retrieve.Retriever
	composer  *compose.Composer
	logger    *slog.Logger
}

// AskResult is the outcome of a query: the composed answer plus the
// retrieved insights it was grounded on. Insights are populated even when
// answer composition fails, so callers can fall back to the raw context.
type AskResult struct {
	Query    string
	Answer   string
	Insights []core.ScoredInsight
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	inMemory      bool
	retrieverOpts []retrieve.Option
	composerOpts  []compose.Option
}

// WithAIConfig sets the model endpoint configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider supplies a pre-built provider instead of connecting to a
// model endpoint. The engine takes ownership and closes it on Close.
func WithAIProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the storage backend in memory, discarding data on
// Close. Intended for tests and experiments.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithRetrieverOptions forwards options to the engine's retriever.
func WithRetrieverOptions(opts ...retrieve.Option) EngineOption {
	return func(o *engineOptions) {
		o.retrieverOpts = append(o.retrieverOpts, opts...)
	}
}

// WithComposerOptions forwards options to the engine's answer composer.
func WithComposerOptions(opts ...compose.Option) EngineOption {
	return func(o *engineOptions) {
		o.composerOpts = append(o.composerOpts, opts...)
	}
}

// NewEngine opens the insight store at filePath and wires up the retrieval
// and composition pipeline. The search index starts empty; call Reindex to
// build it from the stored corpus.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	insights, err := badger.NewInsightRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			insights.Close()
			backend.Close()
			return nil, err
		}
	}

	handle := index.NewHandle(nil)

	retriever, err := retrieve.NewRetriever(insights, provider.Embedder(), handle, options.retrieverOpts...)
	if err != nil {
		provider.Close()
		insights.Close()
		backend.Close()
		return nil, err
	}

	composer, err := compose.NewComposer(provider.Generator(), options.composerOpts...)
	if err != nil {
		provider.Close()
		insights.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:   backend,
		insights:  insights,
		provider:  provider,
		handle:    handle,
		retriever: retriever,
		composer:  composer,
		logger:    slog.Default(),
	}, nil
}

// Warmup sends a probe request to the embedding model so the first real
// query does not pay the model load time. It doubles as a reachability
// check: a dead endpoint surfaces as ai.ErrModelUnavailable here instead of
// mid-query.
func (e *Engine) Warmup(ctx context.Context) error {
	if _, err := e.provider.Embedder().EmbedText(ctx, "warmup"); err != nil {
		if errors.Is(err, ai.ErrModelUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ai.ErrModelUnavailable, err)
	}
	return nil
}

// Reindex rebuilds the search index from the stored corpus and swaps it in
// atomically. Queries running against the previous index finish undisturbed.
// Insights without a vector are skipped with a warning; they have not been
// through the ingestion pipeline yet. Returns the number of indexed insights.
func (e *Engine) Reindex(ctx context.Context) (int, error) {
	all, err := e.insights.AllInsights(ctx)
	if err != nil {
		return 0, err
	}

	entries := make([]index.Entry, 0, len(all))
	for _, insight := range all {
		if len(insight.Vector) == 0 {
			e.logger.Warn("skipping insight without embedding", "insightID", insight.Id)
			continue
		}
		entries = append(entries, index.Entry{
			ID:       insight.Id,
			Position: insight.Position,
			Vector:   insight.Vector,
		})
	}

	idx, err := index.New(entries)
	if err != nil {
		return 0, err
	}

	e.handle.Swap(idx)
	e.logger.Info("index rebuilt", "insights", idx.Size(), "dimension", idx.Dimension())
	return idx.Size(), nil
}

// Ask retrieves insights relevant to the query and composes a grounded
// answer. When the language model fails the returned error wraps
// compose.ErrUpstreamUnavailable and the result still carries the retrieved
// insights, so the caller can present the context without an answer.
func (e *Engine) Ask(ctx context.Context, query string) (*AskResult, error) {
	qc, err := e.retriever.Retrieve(ctx, query, 0)
	if err != nil {
		return nil, err
	}

	result := &AskResult{Query: query, Insights: qc.Results}

	answer, err := e.composer.Compose(ctx, qc)
	if err != nil {
		return result, err
	}

	result.Answer = answer.Text
	return result, nil
}

// Retrieve exposes the raw retrieval stage, without answer composition.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) (*retrieve.QueryContext, error) {
	return e.retriever.Retrieve(ctx, query, k)
}

// NewIngestPipeline creates an ingestion pipeline bound to the engine's
// store and embedder. Call Reindex after running it.
func (e *Engine) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(e.insights, e.provider.Embedder(), opts...)
}

// InsightRepository returns the underlying insight store.
func (e *Engine) InsightRepository() store.InsightRepository {
	return e.insights
}

// InsightCount returns the number of stored insights.
func (e *Engine) InsightCount(ctx context.Context) (int, error) {
	return e.insights.Count(ctx)
}

// IndexSize returns the number of insights in the current search index.
func (e *Engine) IndexSize() int {
	return e.handle.Size()
}

// IndexDimension returns the vector dimension of the current search index.
func (e *Engine) IndexDimension() int {
	return e.handle.Dimension()
}

func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.insights.Close(); err != nil {
		e.logger.Error("error closing insight repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
