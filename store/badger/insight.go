package badger

import (
	"context"
	"errors"
	"time"

	"github.com/appsage/appsage/core"
	"github.com/appsage/appsage/store"
	"github.com/dgraph-io/badger/v4"
)

// InsightRepository implements store.InsightRepository for BadgerDB.
type InsightRepository struct {
	backend *Backend
	posSeq  *badger.Sequence
}

var _ store.InsightRepository = (*InsightRepository)(nil)

// NewInsightRepository creates a new InsightRepository.
func NewInsightRepository(backend *Backend) (*InsightRepository, error) {
	posSeq, err := backend.GetSequence(insightPositionSeq)
	if err != nil {
		return nil, err
	}

	return &InsightRepository{
		backend: backend,
		posSeq:  posSeq,
	}, nil
}

// Close releases the position sequence.
func (r *InsightRepository) Close() error {
	return r.posSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *InsightRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddInsights stores one or more insights, assigning corpus positions in call
// order. Re-adding an existing ID overwrites the record but keeps its original
// position and insertion timestamp.
func (r *InsightRepository) AddInsights(ctx context.Context, insights ...*core.Insight) ([]*core.Insight, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, insight := range insights {
			if err := core.ValidateInsight(insight); err != nil {
				return err
			}

			key := makeInsightKey(insight.Id)
			old, err := r.readInsight(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			if old != nil {
				// Overwrite in place: position and InsertedAt survive
				insight.Position = old.Position
				insight.InsertedAt = old.InsertedAt
				insight.UpdatedAt = now

				if old.Text != insight.Text {
					if err := tx.Delete(makeInsightFingerprintKey(old.Fingerprint())); err != nil {
						return err
					}
				}
			} else {
				// Position 0 is a valid first value from the sequence
				nextPos, err := r.posSeq.Next()
				if err != nil {
					return err
				}
				insight.Position = int(nextPos)
				insight.InsertedAt = now
				insight.UpdatedAt = now

				posKey := makeInsightPositionKey(insight.Position)
				if err := tx.Set(posKey, store.MarshalID(insight.Id)); err != nil {
					return err
				}
			}

			if err := tx.Set(key, store.MarshalInsight(insight)); err != nil {
				return err
			}

			fpKey := makeInsightFingerprintKey(insight.Fingerprint())
			if err := tx.Set(fpKey, store.MarshalID(insight.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return insights, err
}

// UpdateInsights updates existing insights, typically to attach vectors.
func (r *InsightRepository) UpdateInsights(ctx context.Context, insights ...*core.Insight) ([]*core.Insight, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, insight := range insights {
			key := makeInsightKey(insight.Id)

			old, err := r.readInsight(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return store.ErrNotFound
			}

			// Position and InsertedAt are immutable
			insight.Position = old.Position
			insight.InsertedAt = old.InsertedAt
			insight.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, store.MarshalInsight(insight)); err != nil {
				return err
			}

			// Refresh fingerprint index if the text changed
			if old.Text != insight.Text {
				if err := tx.Delete(makeInsightFingerprintKey(old.Fingerprint())); err != nil {
					return err
				}
				fpKey := makeInsightFingerprintKey(insight.Fingerprint())
				if err := tx.Set(fpKey, store.MarshalID(insight.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return insights, err
}

// GetInsight retrieves a single insight by ID.
func (r *InsightRepository) GetInsight(ctx context.Context, id core.ID) (*core.Insight, error) {
	var insight *core.Insight

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		insight, err = r.readInsight(tx, makeInsightKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if insight == nil {
		return nil, store.ErrNotFound
	}

	return insight, nil
}

// GetInsights retrieves multiple insights by their IDs.
// Missing IDs are silently skipped.
func (r *InsightRepository) GetInsights(ctx context.Context, ids ...core.ID) ([]*core.Insight, error) {
	insights := make([]*core.Insight, 0, len(ids))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			insight, err := r.readInsight(tx, makeInsightKey(id))
			if err != nil {
				return err
			}
			if insight != nil {
				insights = append(insights, insight)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return insights, nil
}

// AllInsights retrieves the whole corpus in insertion order.
func (r *InsightRepository) AllInsights(ctx context.Context) ([]*core.Insight, error) {
	var insights []*core.Insight

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(insightPositionPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = store.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			insight, err := r.readInsight(tx, makeInsightKey(id))
			if err != nil {
				return err
			}
			if insight != nil {
				insights = append(insights, insight)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return insights, nil
}

// HasFingerprint reports whether an insight with the given text fingerprint
// is already stored.
func (r *InsightRepository) HasFingerprint(ctx context.Context, fingerprint core.ID) (bool, error) {
	found := false

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeInsightFingerprintKey(fingerprint))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		return nil
	}, false)

	return found, err
}

// Count returns the number of stored insights.
func (r *InsightRepository) Count(ctx context.Context) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(insightPositionPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	return count, err
}

// Purge removes all stored insights and their indices, and resets the
// position sequence so a fresh load starts at position zero.
func (r *InsightRepository) Purge(ctx context.Context) error {
	if err := r.posSeq.Release(); err != nil {
		return err
	}

	err := r.backend.DropPrefix(
		[]byte(insightPrefix),
		[]byte(insightPositionPrefix),
		[]byte(insightFingerprintPrefix),
		[]byte(insightPositionSeq),
	)
	if err != nil {
		return err
	}

	posSeq, err := r.backend.GetSequence(insightPositionSeq)
	if err != nil {
		return err
	}
	r.posSeq = posSeq

	return nil
}

// readInsight reads and deserializes an insight within a transaction.
// Returns nil without error if the key doesn't exist.
func (r *InsightRepository) readInsight(tx *badger.Txn, key []byte) (*core.Insight, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var insight *core.Insight
	err = item.Value(func(val []byte) error {
		var err error
		insight, err = store.UnmarshalInsight(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	return insight, nil
}
