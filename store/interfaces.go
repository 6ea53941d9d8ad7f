package store

import (
	"context"

	"github.com/appsage/appsage/core"
)

// IngestMode controls what happens to already-stored insights when the corpus
// is regenerated upstream and ingested again.
type IngestMode string

const (
	// IngestReplace purges the stored corpus and loads the new file wholesale.
	// This is the default: regenerated insights supersede the old set.
	IngestReplace IngestMode = "replace"

	// IngestMerge appends new insights, skipping any whose text fingerprint
	// is already stored.
	IngestMerge IngestMode = "merge"
)

// InsightRepository provides operations for managing the insight corpus.
// Implementations must be thread-safe and support concurrent reads.
type InsightRepository interface {
	// AddInsights stores one or more insights.
	// Assigns corpus positions in call order, records content fingerprints,
	// and sets InsertedAt timestamps. An insight with an already-stored ID
	// is overwritten in place, keeping its original position.
	// Returns the insights with positions and timestamps populated.
	AddInsights(ctx context.Context, insights ...*core.Insight) ([]*core.Insight, error)

	// UpdateInsights updates existing insights, typically to attach embedding
	// vectors. Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any insight doesn't exist.
	UpdateInsights(ctx context.Context, insights ...*core.Insight) ([]*core.Insight, error)

	// GetInsight retrieves a single insight by ID.
	// Returns ErrNotFound if the insight doesn't exist.
	GetInsight(ctx context.Context, id core.ID) (*core.Insight, error)

	// GetInsights retrieves multiple insights by their IDs.
	// Returns only the insights that exist (no error for missing ones).
	GetInsights(ctx context.Context, ids ...core.ID) ([]*core.Insight, error)

	// AllInsights retrieves the whole corpus in insertion (position) order.
	AllInsights(ctx context.Context) ([]*core.Insight, error)

	// HasFingerprint reports whether an insight with the given text
	// fingerprint is already stored. Used by the merge ingest mode.
	HasFingerprint(ctx context.Context, fingerprint core.ID) (bool, error)

	// Count returns the number of stored insights.
	Count(ctx context.Context) (int, error)

	// Purge removes all stored insights and their indices.
	// Used by the replace ingest mode.
	Purge(ctx context.Context) error

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}
