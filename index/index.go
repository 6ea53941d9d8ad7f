package index

import (
	"fmt"
	"slices"

	"github.com/appsage/appsage/core"
)

// Entry pairs an insight ID with its embedding vector at build time.
// Position is the insight's corpus insertion order, used as the stable
// ranking tiebreak for equal similarity scores.
type Entry struct {
	ID       core.ID
	Position int
	Vector   []float32
}

// Match is a single search hit: an insight ID with its similarity score.
type Match struct {
	ID    core.ID
	Score float32
}

// Index answers exact nearest-neighbor queries over insight embeddings with
// a linear scan. The index is immutable after construction: rebuilds are
// wholesale, producing a new instance to be swapped into a Handle. Immutable
// means concurrent Search calls need no locking.
type Index struct {
	entries   []Entry
	dimension int
}

// New builds an index from the given entries. Vectors are unit-normalized on
// the way in, so Search scores are cosine similarities. Entries must share a
// single dimension; an entry without a vector is rejected rather than
// silently dropped.
//
// Building from zero entries succeeds and yields an index whose Search
// always fails with ErrEmptyIndex.
func New(entries []Entry) (*Index, error) {
	idx := &Index{
		entries: make([]Entry, 0, len(entries)),
	}

	for _, entry := range entries {
		if len(entry.Vector) == 0 {
			return nil, fmt.Errorf("%w: insight %d", ErrMissingVector, entry.ID)
		}
		if idx.dimension == 0 {
			idx.dimension = len(entry.Vector)
		} else if len(entry.Vector) != idx.dimension {
			return nil, fmt.Errorf("%w: insight %d has dimension %d, index has %d",
				ErrDimensionMismatch, entry.ID, len(entry.Vector), idx.dimension)
		}

		idx.entries = append(idx.entries, Entry{
			ID:       entry.ID,
			Position: entry.Position,
			Vector:   Normalize(entry.Vector),
		})
	}

	return idx, nil
}

// Size returns the number of indexed entries.
func (idx *Index) Size() int {
	return len(idx.entries)
}

// Dimension returns the embedding dimension of the index, 0 when empty.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Search returns up to k matches ordered by descending similarity, ties
// broken by ascending corpus position. The query vector is normalized before
// scoring. k <= 0 yields an empty result.
//
// Searching an empty index returns ErrEmptyIndex: an empty success would
// mask a corpus that was never indexed.
func (idx *Index) Search(query []float32, k int) ([]Match, error) {
	if len(idx.entries) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 {
		return []Match{}, nil
	}

	query = Normalize(query)

	type scored struct {
		Match
		position int
	}

	results := make([]scored, 0, len(idx.entries))
	for _, entry := range idx.entries {
		results = append(results, scored{
			Match:    Match{ID: entry.ID, Score: dotProduct(query, entry.Vector)},
			position: entry.Position,
		})
	}

	slices.SortFunc(results, func(a, b scored) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return a.position - b.position
	})

	if k > len(results) {
		k = len(results)
	}

	matches := make([]Match, k)
	for i := range matches {
		matches[i] = results[i].Match
	}
	return matches, nil
}
