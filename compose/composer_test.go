package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/appsage/appsage/ai/mock"
	"github.com/appsage/appsage/core"
	"github.com/appsage/appsage/retrieve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithInsights(query string, insights ...*core.Insight) *retrieve.QueryContext {
	qc := &retrieve.QueryContext{Query: query}
	for i, insight := range insights {
		qc.Results = append(qc.Results, core.ScoredInsight{
			Insight: insight,
			Score:   float32(1) - float32(i)*0.1,
		})
	}
	return qc
}

func TestNewComposer(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		c, err := NewComposer(mock.NewMockGenerator())
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("nil generator", func(t *testing.T) {
		_, err := NewComposer(nil)
		assert.Equal(t, ErrGeneratorRequired, err)
	})
}

func TestCompose(t *testing.T) {
	ctx := context.Background()

	t.Run("answer from model", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		generator.GenerateAnswerFunc = func(ctx context.Context, prompt string) (string, error) {
			return "Games earn the most revenue.", nil
		}

		c, err := NewComposer(generator)
		require.NoError(t, err)

		qc := contextWithInsights("which category earns most",
			&core.Insight{Id: 1, Text: "games dominate revenue"})

		answer, err := c.Compose(ctx, qc)
		require.NoError(t, err)
		assert.Equal(t, "which category earns most", answer.Query)
		assert.Equal(t, "Games earn the most revenue.", answer.Text)
		assert.Same(t, qc, answer.Context)
	})

	t.Run("prompt quotes insights verbatim", func(t *testing.T) {
		var prompt string
		generator := mock.NewMockGenerator()
		generator.GenerateAnswerFunc = func(ctx context.Context, p string) (string, error) {
			prompt = p
			return "ok", nil
		}

		c, err := NewComposer(generator)
		require.NoError(t, err)

		qc := contextWithInsights("which category earns most",
			&core.Insight{
				Id:              1,
				Text:            "games account for 68% of app revenue",
				Recommendations: []string{"tune in-app purchases"},
			},
			&core.Insight{Id: 2, Text: "free tiers convert 3.4x better"},
		)

		_, err = c.Compose(ctx, qc)
		require.NoError(t, err)

		assert.Contains(t, prompt, "- Insight: games account for 68% of app revenue")
		assert.Contains(t, prompt, "- Recommendations: tune in-app purchases")
		assert.Contains(t, prompt, "- Insight: free tiers convert 3.4x better")
		assert.Contains(t, prompt, `User's Question: "which category earns most"`)
		assert.Contains(t, prompt, "based *only* on the context")

		// Insights appear in retrieval order.
		assert.Less(t,
			strings.Index(prompt, "68% of app revenue"),
			strings.Index(prompt, "free tiers convert"))
	})

	t.Run("empty context skips model call", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		c, err := NewComposer(generator)
		require.NoError(t, err)

		qc := &retrieve.QueryContext{Query: "anything"}
		answer, err := c.Compose(ctx, qc)
		require.NoError(t, err)
		assert.Equal(t, NoContextAnswer, answer.Text)
		assert.Equal(t, "anything", answer.Query)
		assert.Equal(t, 0, generator.CallCount())
	})

	t.Run("model failure preserves query", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		generator.GenerateAnswerFunc = func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("connection refused")
		}

		c, err := NewComposer(generator)
		require.NoError(t, err)

		qc := contextWithInsights("the original question",
			&core.Insight{Id: 1, Text: "some insight"})

		_, err = c.Compose(ctx, qc)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)

		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "the original question", upstream.Query)
		assert.Contains(t, upstream.Error(), "connection refused")
	})

	t.Run("empty model answer is upstream failure", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		generator.GenerateAnswerFunc = func(ctx context.Context, prompt string) (string, error) {
			return "", nil
		}

		c, err := NewComposer(generator)
		require.NoError(t, err)

		qc := contextWithInsights("q", &core.Insight{Id: 1, Text: "x"})
		_, err = c.Compose(ctx, qc)
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})

	t.Run("timeout surfaces as upstream failure", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		generator.GenerateAnswerFunc = func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}

		c, err := NewComposer(generator, WithTimeout(10*time.Millisecond))
		require.NoError(t, err)

		qc := contextWithInsights("slow question", &core.Insight{Id: 1, Text: "x"})

		_, err = c.Compose(ctx, qc)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "slow question", upstream.Query)
	})
}
