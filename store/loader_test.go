package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/appsage/appsage/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insights.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("envelope form", func(t *testing.T) {
		path := writeTempFile(t, `{
			"insights": [
				{"id": 1, "text": "games dominate revenue", "category": "GAME", "impact_score": 92, "tags": ["games"]},
				{"id": 2, "text": "free tiers convert better", "recommendations": ["ship a free tier"]}
			]
		}`)

		insights, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, insights, 2)

		assert.Equal(t, core.ID(1), insights[0].Id)
		assert.Equal(t, "games dominate revenue", insights[0].Text)
		assert.Equal(t, "GAME", insights[0].Category)
		assert.Equal(t, 92.0, insights[0].ImpactScore)
		assert.Equal(t, []string{"games"}, insights[0].Tags)
		assert.Equal(t, []string{"ship a free tier"}, insights[1].Recommendations)
	})

	t.Run("positions follow file order", func(t *testing.T) {
		path := writeTempFile(t, `{"insights": [
			{"id": 10, "text": "first"},
			{"id": 20, "text": "second"},
			{"id": 30, "text": "third"}
		]}`)

		insights, err := LoadFile(path)
		require.NoError(t, err)
		for i, insight := range insights {
			assert.Equal(t, i, insight.Position)
		}
	})

	t.Run("bare array form", func(t *testing.T) {
		path := writeTempFile(t, `[{"id": 1, "text": "games dominate revenue"}]`)

		insights, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, insights, 1)
	})

	t.Run("legacy insight_text field", func(t *testing.T) {
		path := writeTempFile(t, `{"insights": [{"id": 1, "insight_text": "legacy record"}]}`)

		insights, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, insights, 1)
		assert.Equal(t, "legacy record", insights[0].Text)
	})

	t.Run("empty corpus is valid", func(t *testing.T) {
		path := writeTempFile(t, `{"insights": []}`)

		insights, err := LoadFile(path)
		require.NoError(t, err)
		assert.Empty(t, insights)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, ErrDataUnavailable)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := writeTempFile(t, `{"insights": [`)
		_, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrDataUnavailable)
	})

	t.Run("record without id", func(t *testing.T) {
		path := writeTempFile(t, `{"insights": [{"text": "no id"}]}`)
		_, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrDataUnavailable)
	})

	t.Run("record without text", func(t *testing.T) {
		path := writeTempFile(t, `{"insights": [{"id": 5}]}`)
		_, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrDataUnavailable)
	})

	t.Run("record failing validation", func(t *testing.T) {
		path := writeTempFile(t, `{"insights": [{"id": 5, "text": "x", "impact_score": 200}]}`)
		_, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrDataUnavailable)
	})
}
