package retrieve

import (
	"context"
	"testing"

	"github.com/appsage/appsage/ai"
	"github.com/appsage/appsage/ai/mock"
	"github.com/appsage/appsage/core"
	"github.com/appsage/appsage/index"
	"github.com/appsage/appsage/store"
	"github.com/appsage/appsage/store/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orientedEmbedder maps known texts to fixed unit vectors so similarity
// scores in tests are exact.
func orientedEmbedder(vectors map[string][]float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return mock.DeterministicVector(text, 4), nil
	}
	return embedder
}

// seedCorpus stores the insights and builds a handle over their vectors.
func seedCorpus(t *testing.T, repo store.InsightRepository, insights ...*core.Insight) *index.Handle {
	t.Helper()
	ctx := context.Background()

	_, err := repo.AddInsights(ctx, insights...)
	require.NoError(t, err)

	entries := make([]index.Entry, 0, len(insights))
	for _, insight := range insights {
		entries = append(entries, index.Entry{
			ID:       insight.Id,
			Position: insight.Position,
			Vector:   insight.Vector,
		})
	}

	idx, err := index.New(entries)
	require.NoError(t, err)
	return index.NewHandle(idx)
}

func newTestRepo(t *testing.T) store.InsightRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestNewRetriever(t *testing.T) {
	repo := newTestRepo(t)
	embedder := mock.NewMockEmbedder()
	handle := index.NewHandle(nil)

	t.Run("valid configuration", func(t *testing.T) {
		r, err := NewRetriever(repo, embedder, handle)
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewRetriever(nil, embedder, handle)
		assert.Equal(t, ErrRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		var e ai.Embedder
		_, err := NewRetriever(repo, e, handle)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil handle", func(t *testing.T) {
		_, err := NewRetriever(repo, embedder, nil)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := NewRetriever(repo, embedder, handle, WithMinSimilarity(1.5))
		assert.Equal(t, ErrInvalidThreshold, err)
	})
}

func TestRetrieve(t *testing.T) {
	repo := newTestRepo(t)

	games := &core.Insight{
		Id:     core.IDFromContent("games dominate revenue"),
		Text:   "games dominate revenue",
		Vector: []float32{1, 0, 0, 0},
	}
	productivity := &core.Insight{
		Id:     core.IDFromContent("productivity apps convert with free tiers"),
		Text:   "productivity apps convert with free tiers",
		Vector: []float32{0, 1, 0, 0},
	}
	health := &core.Insight{
		Id:     core.IDFromContent("health apps spike in january"),
		Text:   "health apps spike in january",
		Vector: []float32{0, 0, 1, 0},
	}

	handle := seedCorpus(t, repo, games, productivity, health)

	embedder := orientedEmbedder(map[string][]float32{
		"which category earns most": {0.9, 0.1, 0, 0},
		"orthogonal question":       {0, 0, 0, 1},
	})

	ctx := context.Background()

	t.Run("ranked results with scores", func(t *testing.T) {
		r, err := NewRetriever(repo, embedder, handle)
		require.NoError(t, err)

		qc, err := r.Retrieve(ctx, "which category earns most", 2)
		require.NoError(t, err)

		require.Len(t, qc.Results, 1) // the other two fall below the threshold
		assert.Equal(t, games.Id, qc.Results[0].Insight.Id)
		assert.Equal(t, "games dominate revenue", qc.Results[0].Insight.Text)
		assert.Greater(t, qc.Results[0].Score, float32(0.9))
		assert.False(t, qc.Empty())
	})

	t.Run("no matches above threshold is not an error", func(t *testing.T) {
		r, err := NewRetriever(repo, embedder, handle)
		require.NoError(t, err)

		qc, err := r.Retrieve(ctx, "orthogonal question", 3)
		require.NoError(t, err)
		assert.True(t, qc.Empty())
		assert.Equal(t, "orthogonal question", qc.Query)
	})

	t.Run("at most k results", func(t *testing.T) {
		r, err := NewRetriever(repo, embedder, handle, WithMinSimilarity(-1))
		require.NoError(t, err)

		qc, err := r.Retrieve(ctx, "which category earns most", 2)
		require.NoError(t, err)
		assert.Len(t, qc.Results, 2)

		qc, err = r.Retrieve(ctx, "which category earns most", 50)
		require.NoError(t, err)
		assert.Len(t, qc.Results, 3)
	})

	t.Run("default k from options", func(t *testing.T) {
		r, err := NewRetriever(repo, embedder, handle,
			WithTopK(1), WithMinSimilarity(-1))
		require.NoError(t, err)

		qc, err := r.Retrieve(ctx, "which category earns most", 0)
		require.NoError(t, err)
		assert.Len(t, qc.Results, 1)
	})

	t.Run("empty index propagates", func(t *testing.T) {
		r, err := NewRetriever(repo, embedder, index.NewHandle(nil))
		require.NoError(t, err)

		_, err = r.Retrieve(ctx, "which category earns most", 3)
		assert.ErrorIs(t, err, index.ErrEmptyIndex)
	})

	t.Run("embedder failure propagates", func(t *testing.T) {
		failing := mock.NewMockEmbedder()
		failing.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, ai.ErrModelUnavailable
		}

		r, err := NewRetriever(repo, failing, handle)
		require.NoError(t, err)

		_, err = r.Retrieve(ctx, "which category earns most", 3)
		assert.ErrorIs(t, err, ai.ErrModelUnavailable)
	})
}

func TestRetrieveStaleIndex(t *testing.T) {
	repo := newTestRepo(t)

	kept := &core.Insight{
		Id:     core.IDFromContent("kept insight"),
		Text:   "kept insight",
		Vector: []float32{1, 0},
	}
	_, err := repo.AddInsights(context.Background(), kept)
	require.NoError(t, err)

	// Index an ID the repository does not hold; it must be dropped from
	// results instead of failing the query.
	idx, err := index.New([]index.Entry{
		{ID: kept.Id, Position: 0, Vector: kept.Vector},
		{ID: 99999, Position: 1, Vector: []float32{0.9, 0.1}},
	})
	require.NoError(t, err)

	embedder := orientedEmbedder(map[string][]float32{
		"q": {1, 0},
	})

	r, err := NewRetriever(repo, embedder, index.NewHandle(idx), WithMinSimilarity(-1))
	require.NoError(t, err)

	qc, err := r.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, qc.Results, 1)
	assert.Equal(t, kept.Id, qc.Results[0].Insight.Id)
}

func TestRetrieveWithMonitor(t *testing.T) {
	repo := newTestRepo(t)

	insight := &core.Insight{
		Id:     core.IDFromContent("monitored insight"),
		Text:   "monitored insight",
		Vector: []float32{1, 0},
	}
	handle := seedCorpus(t, repo, insight)

	embedder := orientedEmbedder(map[string][]float32{
		"q": {1, 0},
	})

	r, err := NewRetriever(repo, embedder, handle)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	qc, err := r.RetrieveWithMonitor(context.Background(), "q", 1, monitor)
	require.NoError(t, err)
	require.Len(t, qc.Results, 1)

	assert.Equal(t, "q", monitor.started)
	assert.Len(t, monitor.embedding, 2)
	assert.Len(t, monitor.matches, 1)
	assert.Len(t, monitor.hydrated, 1)
	assert.Same(t, qc, monitor.finished)
}

type recordingMonitor struct {
	started   string
	embedding []float32
	matches   []index.Match
	dropped   []index.Match
	hydrated  []*core.Insight
	finished  *QueryContext
}

func (m *recordingMonitor) Start(query string)                  { m.started = query }
func (m *recordingMonitor) AfterQueryEmbedding(v []float32)     { m.embedding = v }
func (m *recordingMonitor) AfterIndexSearch(ms []index.Match)   { m.matches = ms }
func (m *recordingMonitor) BelowThreshold(match index.Match)    { m.dropped = append(m.dropped, match) }
func (m *recordingMonitor) AfterHydration(is []*core.Insight)   { m.hydrated = is }
func (m *recordingMonitor) Finish(qc *QueryContext)             { m.finished = qc }
