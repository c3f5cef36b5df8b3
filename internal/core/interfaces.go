// Package core defines the ports between the jobmatch services and their adapters.
package core

import (
	"context"

	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/geo"
)

// This file contains repository and collaborator interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not on concrete adapters.

// JobRepository defines the interface for job data operations.
type JobRepository interface {
	// CreateBatch inserts every job with its images in one transaction.
	CreateBatch(ctx context.Context, params []model.NewJobParams) ([]*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// ListByCustomer returns a page of a customer's jobs, newest first.
	ListByCustomer(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	// PendingIndex returns a radius index over claimable jobs whose type is in skills.
	PendingIndex(skills []model.JobType) geo.Index
	// ListClaimable loads the given jobs with their locations, dropping any that are
	// no longer pending or have expired.
	ListClaimable(ctx context.Context, ids []string) ([]*model.CandidateJob, error)
	// Claim locks the job row and applies the claim decision atomically.
	Claim(ctx context.Context, params ClaimParams) (*model.ClaimResult, error)
	Stats(ctx context.Context) (*model.JobStats, error)
}

// ClaimParams groups the inputs to JobRepository.Claim.
type ClaimParams struct {
	JobID    string
	WorkerID string
}

// ExpiryRepository is implemented by stores that can expire stale jobs in bulk.
type ExpiryRepository interface {
	// ExpireStale moves up to batchSize pending jobs past their expiry to expired.
	ExpireStale(ctx context.Context, batchSize int) (int64, error)
}

// LocationRepository defines the interface for location reads.
type LocationRepository interface {
	Create(ctx context.Context, req *model.CreateLocationRequest) (*model.Location, error)
	GetByID(ctx context.Context, id string) (*model.Location, error)
}

// WorkerRepository defines read access to workers for matching and supply estimation.
type WorkerRepository interface {
	GetByID(ctx context.Context, id string) (*model.Worker, error)
	// SupplyIndex returns a radius index over available, verified workers skilled in jobType.
	SupplyIndex(jobType model.JobType) geo.Index
}

// VisionEstimator estimates size and severity from a job photo.
type VisionEstimator interface {
	Analyze(ctx context.Context, imageURL string, jobType model.JobType) (model.VisionResult, error)
}

// JobParser splits free-form customer text into one or more jobs.
type JobParser interface {
	Parse(ctx context.Context, text string) ([]model.ParsedJob, error)
}

// WeatherProvider reports current conditions at a point.
type WeatherProvider interface {
	Current(ctx context.Context, point geo.Point) (*model.WeatherConditions, error)
}
