package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/data/pgxutil"
	"github.com/target/jobmatch/internal/domain/job"
	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
)

// Claim awards the job to the worker if it is still pending and unexpired.
//
// The job row is locked with FOR UPDATE so concurrent claims on the same job
// serialize; claims on different jobs never wait on each other. A claim that finds
// the job past its expiry moves it to expired and reports ClaimExpired. Losing a
// race is reported through the outcome, never as an error.
func (r *JobRepo) Claim(ctx context.Context, params core.ClaimParams) (*model.ClaimResult, error) {
	if params.JobID == "" || params.WorkerID == "" {
		return nil, apperrors.Validation("job id and worker id are required")
	}

	var result model.ClaimResult
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts:        pgxutil.ReadCommitted,
		LockTimeout: r.cfg.ClaimLockTimeout,
		Fn: func(tx pgx.Tx) error {
			res, err := r.claimInTx(ctx, tx, params)
			if err != nil {
				return err
			}
			result = res
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", apperrors.MapDBError(err))
	}
	return &result, nil
}

func (r *JobRepo) claimInTx(ctx context.Context, tx pgx.Tx, params core.ClaimParams) (model.ClaimResult, error) {
	var (
		status    model.JobStatus
		expiresAt time.Time
	)
	err := tx.QueryRow(ctx, `
      SELECT status, expires_at
      FROM jobs
      WHERE id = $1
      FOR UPDATE
    `, params.JobID).Scan(&status, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ClaimResult{Outcome: model.ClaimNotFound}, nil
	}
	if err != nil {
		return model.ClaimResult{}, fmt.Errorf("lock job: %w", err)
	}

	now := r.now()
	switch job.DecideClaim(status, expiresAt, now) {
	case job.DecisionReject:
		return model.ClaimResult{Outcome: model.ClaimNotPending}, nil

	case job.DecisionExpire:
		if err := setStatusInTx(ctx, tx, params.JobID, model.JobStatusExpired, now); err != nil {
			return model.ClaimResult{}, err
		}
		return model.ClaimResult{Outcome: model.ClaimExpired}, nil

	case job.DecisionAssign:
		a := &model.Assignment{}
		if err := tx.QueryRow(ctx, `
          INSERT INTO assignments (job_id, worker_id, accepted_at)
          VALUES ($1, $2, $3)
          RETURNING id, job_id, worker_id, accepted_at
        `, params.JobID, params.WorkerID, now).Scan(&a.ID, &a.JobID, &a.WorkerID, &a.AcceptedAt); err != nil {
			return model.ClaimResult{}, fmt.Errorf("insert assignment: %w", err)
		}
		if err := setStatusInTx(ctx, tx, params.JobID, model.JobStatusAssigned, now); err != nil {
			return model.ClaimResult{}, err
		}
		return model.ClaimResult{Outcome: model.ClaimAccepted, Assignment: a}, nil
	}

	return model.ClaimResult{}, fmt.Errorf("unhandled claim decision for job %s", params.JobID)
}

// setStatusInTx moves a locked pending job to its next state.
func setStatusInTx(ctx context.Context, tx pgx.Tx, id string, to model.JobStatus, now time.Time) error {
	if !job.CanTransition(model.JobStatusPending, to) {
		return fmt.Errorf("%w: pending -> %s", job.ErrInvalidTransition, to)
	}
	tag, err := tx.Exec(ctx, `
      UPDATE jobs
      SET status = $2, updated_at = $3
      WHERE id = $1 AND status = 'pending'
    `, id, to, now)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update job status: job %s no longer pending", id)
	}
	return nil
}
