package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("games account for most revenue")
		b := IDFromContent("games account for most revenue")
		assert.Equal(t, a, b)
	})

	t.Run("distinct content distinct ids", func(t *testing.T) {
		a := IDFromContent("games account for most revenue")
		b := IDFromContent("productivity apps convert better with a free tier")
		assert.NotEqual(t, a, b)
	})

	t.Run("non-zero for empty text", func(t *testing.T) {
		// BLAKE2b of the empty string is still a real digest.
		assert.NotEqual(t, ID(0), IDFromContent(""))
	})
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "ff", ID(255).String())
}

func TestEmbeddingText(t *testing.T) {
	t.Run("without tags", func(t *testing.T) {
		insight := &Insight{Text: "games dominate revenue"}
		assert.Equal(t, "games dominate revenue", insight.EmbeddingText())
	})

	t.Run("with tags", func(t *testing.T) {
		insight := &Insight{
			Text: "games dominate revenue",
			Tags: []string{"games", "revenue"},
		}
		assert.Equal(t, "games dominate revenue games revenue", insight.EmbeddingText())
	})
}

func TestFingerprint(t *testing.T) {
	a := &Insight{Id: 1, Text: "same statement", Tags: []string{"x"}}
	b := &Insight{Id: 2, Text: "same statement", Tags: []string{"y"}}

	// Fingerprints depend on the text only, not on IDs or tags.
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, IDFromContent("same statement"), a.Fingerprint())
}
