package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/validate"
)

// BatchResult reports a batch archive or delete over one kind.
type BatchResult struct {
	Kind     model.Kind `json:"kind"`
	Affected int        `json:"affected"`

	// Archived counts rows newly archived per kind across the batch,
	// descendants included. Empty for deletes.
	Archived map[model.Kind]int `json:"archived,omitempty"`
}

// ArchiveBatch cascades an archive from every id in one transaction with
// one timestamp. Any failure leaves every row as it was.
func (s *SQLiteStore) ArchiveBatch(ctx context.Context, kind model.Kind, ids []string) (*BatchResult, error) {
	result := &BatchResult{Kind: kind, Archived: map[model.Kind]int{}}
	err := s.batch(ctx, "batch archive", kind, ids, func(tx *sqlx.Tx, now time.Time, id string) error {
		res, err := archiveTx(ctx, tx, now, kind, id)
		if err != nil {
			return err
		}
		for k, n := range res.Archived {
			result.Archived[k] += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Affected = len(ids)
	s.logger.Info("batch archived", "kind", kind, "roots", len(ids))
	return result, nil
}

// DeleteBatch hard-deletes every id in one transaction. A single id with
// children fails the whole batch with its *ConflictError.
func (s *SQLiteStore) DeleteBatch(ctx context.Context, kind model.Kind, ids []string) (*BatchResult, error) {
	err := s.batch(ctx, "batch delete", kind, ids, func(tx *sqlx.Tx, now time.Time, id string) error {
		return deleteTx(ctx, tx, now, kind, id)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("batch deleted", "kind", kind, "rows", len(ids))
	return &BatchResult{Kind: kind, Affected: len(ids)}, nil
}

func (s *SQLiteStore) batch(ctx context.Context, op string, kind model.Kind, ids []string,
	fn func(tx *sqlx.Tx, now time.Time, id string) error) error {
	if _, ok := tables[kind]; !ok {
		return &validate.Error{Field: "kind", Message: fmt.Sprintf("unknown kind %q", kind)}
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return &validate.Error{Field: "ids", Message: fmt.Sprintf("%s is listed twice", id)}
		}
		seen[id] = true
	}
	if len(ids) == 0 {
		return nil
	}

	return s.inTx(ctx, op, func(tx *sqlx.Tx) error {
		now := s.now()
		for _, id := range ids {
			if err := fn(tx, now, id); err != nil {
				return err
			}
		}
		return nil
	})
}
