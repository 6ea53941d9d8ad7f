package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities. Insight IDs come from the
// upstream generator; content fingerprints use the same representation.
type ID uint64

// String returns the hexadecimal form of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// IDFromContent generates a deterministic ID from text content using BLAKE2b
// hashing. Identical content always produces the same ID, which is what the
// merge ingest mode relies on to skip already-stored insights.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Insight is a single generated statement about app-market statistics.
// Insights are produced in bulk by the offline insight generator and are
// immutable once stored; only the embedding vector is filled in afterwards
// by the ingestion pipeline.
type Insight struct {
	Id              ID
	Text            string
	Category        string   // Optional tag, e.g. "GAME", "PRODUCTIVITY"
	ImpactScore     float64  // Optional numeric rank assigned by the generator
	SourceStat      string   // Optional reference to the underlying statistic
	Tags            []string // Optional keywords, embedded together with Text
	Recommendations []string // Optional follow-up advice, quoted in prompts
	Position        int      // Corpus insertion order, the ranking tiebreak
	Vector          []float32
	InsertedAt      time.Time
	UpdatedAt       time.Time
}

// EmbeddingText returns the text that is embedded for this insight: the
// statement itself followed by its tags, matching how the upstream system
// built its index.
func (i *Insight) EmbeddingText() string {
	if len(i.Tags) == 0 {
		return i.Text
	}
	return i.Text + " " + strings.Join(i.Tags, " ")
}

// Fingerprint returns the content-based identity of the insight text.
func (i *Insight) Fingerprint() ID {
	return IDFromContent(i.Text)
}

// ScoredInsight pairs an insight with its similarity score for a query.
type ScoredInsight struct {
	Insight *Insight
	Score   float32
}

// SimilarityMatch represents an insight match from vector similarity search,
// before hydration into the full record.
type SimilarityMatch struct {
	InsightId ID
	Score     float32
}
