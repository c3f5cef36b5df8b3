package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/target/jobmatch/internal/data/pgxutil"
)

// Advisory lock namespace for reaper operations.
// Using two-arg pg_try_advisory_xact_lock(major, minor) for proper namespacing.
const (
	advisoryLockReaperMajor       = 1000
	advisoryLockReaperExpireStale = 1
)

// ExpireStale moves pending jobs whose expiry has passed to expired, using the same
// guard as the claim path. Processes up to batchSize jobs per call and skips rows a
// concurrent claim holds. Returns the number of jobs expired; 0 when another
// instance holds the reaper lock.
func (r *JobRepo) ExpireStale(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockReaperMajor, advisoryLockReaperExpireStale).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			now := r.now()
			res, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET status = 'expired',
					updated_at = $1
				WHERE status = 'pending'
				  AND expires_at <= $1
				  AND id IN (
					SELECT id FROM jobs
					WHERE status = 'pending'
					  AND expires_at <= $1
					ORDER BY expires_at
					LIMIT $2
					FOR UPDATE SKIP LOCKED
				)
			`, now, batchSize)
			if err != nil {
				return fmt.Errorf("expire stale jobs: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	if rowsAffected > 0 {
		r.logger.InfoContext(ctx, "expired stale jobs", "count", rowsAffected)
	}
	return rowsAffected, nil
}
