package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/domain/pricing"
	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/geo"
)

// Demand sources recorded on priced jobs and in metrics.
const (
	DemandSourceLive     = "live"
	DemandSourceDefault  = "default"
	DemandSourceFallback = "fallback"
)

// DemandConfig tunes supply lookups and the surge step function.
type DemandConfig struct {
	MaxSurge           float64
	RadiusKm           float64
	LiveDemand         bool
	LookupTimeout      time.Duration
	DefaultWorkerCount int
}

// DemandServiceOptions groups dependencies for DemandService.
type DemandServiceOptions struct {
	Workers core.WorkerRepository // Required: worker supply index
	Config  DemandConfig
	Logger  *slog.Logger // Optional: structured logger
}

// DemandService estimates local worker supply and the resulting surge multiplier.
type DemandService struct {
	workers core.WorkerRepository
	config  DemandConfig
	logger  *slog.Logger
}

// DemandQuote is the demand input resolved for one (location, job type) pair.
type DemandQuote struct {
	Workers    int
	Multiplier float64
	Source     string
	// Recipients are the eligible worker IDs ordered by distance. Empty when the
	// lookup was skipped or failed.
	Recipients []string
}

// NewDemandService constructs a new DemandService.
func NewDemandService(opts DemandServiceOptions) (*DemandService, error) {
	if opts.Workers == nil {
		return nil, errors.New("WorkerRepository is required")
	}

	cfg := opts.Config
	if cfg.MaxSurge < 1 {
		cfg.MaxSurge = pricing.DefaultMaxSurge
	}
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = 10
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 2 * time.Second
	}
	if cfg.DefaultWorkerCount < 0 {
		cfg.DefaultWorkerCount = 0
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "demand_service")
		logger.Debug("DemandService initialized",
			"max_surge", cfg.MaxSurge,
			"radius_km", cfg.RadiusKm,
			"live", cfg.LiveDemand,
		)
	}

	return &DemandService{workers: opts.Workers, config: cfg, logger: logger}, nil
}

// MustNewDemandService constructs a new DemandService and panics on error.
func MustNewDemandService(opts DemandServiceOptions) *DemandService {
	svc, err := NewDemandService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create DemandService: %v", err))
	}
	return svc
}

// CountAvailableWorkers counts available, verified workers skilled in jobType
// whose current location is within radiusKm of point.
func (s *DemandService) CountAvailableWorkers(
	ctx context.Context,
	point geo.Point,
	radiusKm float64,
	jobType model.JobType,
) (int, error) {
	ids, err := s.EligibleWorkerIDs(ctx, point, radiusKm, jobType)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// EligibleWorkerIDs returns the IDs counted by CountAvailableWorkers, nearest first.
func (s *DemandService) EligibleWorkerIDs(
	ctx context.Context,
	point geo.Point,
	radiusKm float64,
	jobType model.JobType,
) ([]string, error) {
	if !jobType.Valid() {
		return nil, apperrors.ValidationField("job_type", model.ErrInvalidJobType.Error())
	}
	if err := point.Validate(); err != nil {
		return nil, apperrors.ValidationField("point", err.Error())
	}
	if radiusKm <= 0 {
		radiusKm = s.config.RadiusKm
	}

	hits, err := s.workers.SupplyIndex(jobType).WithinRadius(ctx, point, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("count available workers: %w", err)
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids, nil
}

// DemandMultiplier counts nearby supply and maps it through the surge step function.
func (s *DemandService) DemandMultiplier(
	ctx context.Context,
	point geo.Point,
	radiusKm float64,
	jobType model.JobType,
) (float64, error) {
	n, err := s.CountAvailableWorkers(ctx, point, radiusKm, jobType)
	if err != nil {
		return 0, err
	}
	return pricing.DemandMultiplier(n, s.config.MaxSurge), nil
}

// DefaultQuote prices demand from the configured worker count.
func (s *DemandService) DefaultQuote() DemandQuote {
	return DemandQuote{
		Workers:    s.config.DefaultWorkerCount,
		Multiplier: pricing.DemandMultiplier(s.config.DefaultWorkerCount, s.config.MaxSurge),
		Source:     DemandSourceDefault,
	}
}

// Quote resolves creation-time demand for jobType at point. It never fails: a
// lookup error or timeout yields the default count with Source "fallback".
func (s *DemandService) Quote(ctx context.Context, point geo.Point, jobType model.JobType) DemandQuote {
	lookupCtx, cancel := context.WithTimeout(ctx, s.config.LookupTimeout)
	defer cancel()

	ids, err := s.EligibleWorkerIDs(lookupCtx, point, s.config.RadiusKm, jobType)
	if !s.config.LiveDemand {
		quote := s.DefaultQuote()
		if err == nil {
			quote.Recipients = ids
		}
		return quote
	}
	if err != nil {
		quote := s.DefaultQuote()
		quote.Source = DemandSourceFallback
		if s.logger != nil {
			s.logger.WarnContext(ctx, "demand lookup failed, using default worker count",
				"job_type", jobType,
				"default_workers", quote.Workers,
				"error", err,
			)
		}
		return quote
	}

	return DemandQuote{
		Workers:    len(ids),
		Multiplier: pricing.DemandMultiplier(len(ids), s.config.MaxSurge),
		Source:     DemandSourceLive,
		Recipients: ids,
	}
}
