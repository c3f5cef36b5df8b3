package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/observability/metrics"
	"github.com/target/jobmatch/internal/observability/statsd"
)

// ClaimServiceOptions groups dependencies for ClaimService.
type ClaimServiceOptions struct {
	Jobs    core.JobRepository    // Required: claim primitive
	Workers core.WorkerRepository // Required: worker existence check
	Logger  *slog.Logger          // Optional: structured logger
	Metrics statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// ClaimService awards a pending job to the first worker that accepts it.
type ClaimService struct {
	jobs    core.JobRepository
	workers core.WorkerRepository
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewClaimService constructs a new ClaimService.
func NewClaimService(opts ClaimServiceOptions) (*ClaimService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Workers == nil {
		return nil, errors.New("WorkerRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "claim_service")
	}

	return &ClaimService{
		jobs:    opts.Jobs,
		workers: opts.Workers,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// MustNewClaimService constructs a new ClaimService and panics on error.
func MustNewClaimService(opts ClaimServiceOptions) *ClaimService {
	svc, err := NewClaimService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ClaimService: %v", err))
	}
	return svc
}

// Accept attempts to claim jobID for workerID. It returns true only for the
// single winning claim. Missing, already assigned and expired jobs return false
// with a nil error; an expired job is moved to expired as a side effect.
// Errors are reserved for invalid input and store failures.
func (s *ClaimService) Accept(ctx context.Context, jobID, workerID string) (bool, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return false, apperrors.ValidationField("job_id", "job id must be a valid UUID")
	}
	if _, err := uuid.Parse(workerID); err != nil {
		return false, apperrors.ValidationField("worker_id", "worker id must be a valid UUID")
	}

	if _, err := s.workers.GetByID(ctx, workerID); err != nil {
		if apperrors.IsNotFound(err) {
			return false, apperrors.ValidationField("worker_id", "unknown worker")
		}
		return false, fmt.Errorf("load worker: %w", err)
	}

	start := time.Now()
	res, err := s.jobs.Claim(ctx, core.ClaimParams{JobID: jobID, WorkerID: workerID})
	elapsed := time.Since(start)
	if err != nil {
		metrics.EmitClaim(s.metrics, metrics.ClaimMetric{
			Outcome:  metrics.ResultError,
			Duration: elapsed,
			Err:      err,
		})
		return false, fmt.Errorf("claim job: %w", err)
	}

	metrics.EmitClaim(s.metrics, metrics.ClaimMetric{
		Outcome:  string(res.Outcome),
		Duration: elapsed,
	})
	s.logOutcome(ctx, jobID, workerID, res)

	return res.Accepted(), nil
}

func (s *ClaimService) logOutcome(ctx context.Context, jobID, workerID string, res *model.ClaimResult) {
	if s.logger == nil {
		return
	}
	switch res.Outcome {
	case model.ClaimAccepted:
		s.logger.InfoContext(ctx, "job accepted", "job_id", jobID, "worker_id", workerID)
	case model.ClaimExpired:
		s.logger.InfoContext(ctx, "claim found job expired", "job_id", jobID, "worker_id", workerID)
	default:
		s.logger.DebugContext(ctx, "claim lost", "job_id", jobID, "worker_id", workerID, "outcome", res.Outcome)
	}
}
