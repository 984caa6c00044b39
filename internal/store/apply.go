package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// Apply writes every adjustment inside one transaction, then re-reads each
// row inside the same transaction and compares the stored value to the
// intended one within verifyTolerance. Any mismatch, missing row, or failed
// statement rolls the whole batch back; no partial writes survive.
//
// The re-read guards against silent truncation or rounding by the storage
// engine. Writes are absolute values, so replaying the same adjustments is a
// no-op that still passes verification.
func (s *Store) Apply(ctx context.Context, adjustments []types.Adjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, adj := range adjustments {
		if _, err := tx.ExecContext(ctx,
			"UPDATE checkpoint_statistics SET time_played = ? WHERE run_id = ? AND cp_id = ?",
			adj.New, adj.RunID, adj.CPID); err != nil {
			return fmt.Errorf("update run %d cp %d: %w", adj.RunID, adj.CPID, err)
		}
	}

	for _, adj := range adjustments {
		var got float64
		err := tx.QueryRowContext(ctx,
			"SELECT time_played FROM checkpoint_statistics WHERE run_id = ? AND cp_id = ?",
			adj.RunID, adj.CPID).Scan(&got)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: statistic row for run %d cp %d no longer exists",
				types.ErrNotFound, adj.RunID, adj.CPID)
		}
		if err != nil {
			return fmt.Errorf("re-read run %d cp %d: %w", adj.RunID, adj.CPID, err)
		}
		if math.Abs(got-adj.New) > verifyTolerance {
			return fmt.Errorf("%w: verification failed for run %d cp %d: expected %v, stored %v",
				types.ErrConsistency, adj.RunID, adj.CPID, adj.New, got)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
