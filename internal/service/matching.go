package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/target/jobmatch/internal/core"
	domainjob "github.com/target/jobmatch/internal/domain/job"
	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/geo"
)

// candidatePageSize bounds how many radius hits are hydrated per store round trip.
const (
	candidatePageSize       = 200
	defaultLongPollInterval = 5 * time.Second
)

// MatchingConfig tunes nearby-job lookups.
type MatchingConfig struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	DefaultLimit    int
	MaxLimit        int
	LongPollMax     time.Duration

	// LongPollInterval re-runs the search while waiting, in case a posting
	// signal was never delivered.
	LongPollInterval time.Duration
}

// MatchingServiceOptions groups dependencies for MatchingService.
type MatchingServiceOptions struct {
	Jobs     core.JobRepository    // Required: pending job index
	Workers  core.WorkerRepository // Required: worker lookup
	Config   MatchingConfig
	Notifier domainjob.Notifier // Optional: enables long-polling
	Logger   *slog.Logger       // Optional: structured logger
	Now      func() time.Time   // Optional: clock override for tests
}

// MatchingService finds claimable jobs near a worker.
type MatchingService struct {
	jobs     core.JobRepository
	workers  core.WorkerRepository
	config   MatchingConfig
	notifier domainjob.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NearbyRequest selects the worker and search area for NearbyJobs.
type NearbyRequest struct {
	WorkerID string
	// Point overrides the worker's current location when set.
	Point    *geo.Point
	RadiusKm float64
	Limit    int
	// Wait enables long-polling: when nothing matches, block up to Wait for a
	// matching job to be posted.
	Wait time.Duration
}

// NewMatchingService constructs a new MatchingService.
func NewMatchingService(opts MatchingServiceOptions) (*MatchingService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Workers == nil {
		return nil, errors.New("WorkerRepository is required")
	}

	cfg := opts.Config
	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = 10
	}
	if cfg.MaxRadiusKm < cfg.DefaultRadiusKm {
		cfg.MaxRadiusKm = cfg.DefaultRadiusKm
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = min(20, cfg.MaxLimit)
	}
	if cfg.LongPollInterval <= 0 {
		cfg.LongPollInterval = defaultLongPollInterval
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "matching_service")
	}

	return &MatchingService{
		jobs:     opts.Jobs,
		workers:  opts.Workers,
		config:   cfg,
		notifier: opts.Notifier,
		logger:   logger,
		now:      now,
	}, nil
}

// MustNewMatchingService constructs a new MatchingService and panics on error.
func MustNewMatchingService(opts MatchingServiceOptions) *MatchingService {
	svc, err := NewMatchingService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create MatchingService: %v", err))
	}
	return svc
}

// NearbyJobs returns pending, unexpired jobs whose type is one of the worker's
// skills, within the search radius, nearest first. Ties break on earlier expiry
// and then job ID. An unknown worker gets an empty slice.
func (s *MatchingService) NearbyJobs(ctx context.Context, req NearbyRequest) ([]model.JobCard, error) {
	worker, err := s.workers.GetByID(ctx, req.WorkerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return []model.JobCard{}, nil
		}
		return nil, fmt.Errorf("load worker: %w", err)
	}

	center, err := s.searchCenter(req, worker)
	if err != nil {
		return nil, err
	}
	if len(worker.Skills) == 0 {
		return []model.JobCard{}, nil
	}

	radius := s.radius(req.RadiusKm)
	limit := s.limit(req.Limit)

	if req.Wait <= 0 || s.notifier == nil {
		return s.search(ctx, worker, center, radius, limit)
	}

	wait := req.Wait
	if s.config.LongPollMax > 0 && wait > s.config.LongPollMax {
		wait = s.config.LongPollMax
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	// Subscribe returns once postings are being listened for, so anything posted
	// after the first search below is signalled.
	unsub, posted, err := s.notifier.Subscribe(waitCtx, worker.Skills...)
	defer unsub()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "job notifications unavailable, polling instead", "error", err)
		}
	}

	cards, err := s.search(ctx, worker, center, radius, limit)
	if err != nil || len(cards) > 0 {
		return cards, err
	}
	return s.waitForJobs(ctx, waitCtx, posted, worker, center, radius, limit)
}

func (s *MatchingService) searchCenter(req NearbyRequest, worker *model.Worker) (geo.Point, error) {
	switch {
	case req.Point != nil:
		if err := req.Point.Validate(); err != nil {
			return geo.Point{}, apperrors.ValidationField("point", err.Error())
		}
		return *req.Point, nil
	case worker.CurrentLocation != nil:
		return *worker.CurrentLocation, nil
	default:
		return geo.Point{}, apperrors.ValidationField("point", "lat and lng are required when the worker has no current location")
	}
}

func (s *MatchingService) radius(requested float64) float64 {
	if math.IsNaN(requested) || requested <= 0 {
		return s.config.DefaultRadiusKm
	}
	return math.Min(requested, s.config.MaxRadiusKm)
}

func (s *MatchingService) limit(requested int) int {
	if requested <= 0 {
		return s.config.DefaultLimit
	}
	return min(requested, s.config.MaxLimit)
}

// search hydrates radius hits page by page until the first limit cards are
// settled: a later page can only contribute cards at a greater distance.
func (s *MatchingService) search(
	ctx context.Context,
	worker *model.Worker,
	center geo.Point,
	radiusKm float64,
	limit int,
) ([]model.JobCard, error) {
	hits, err := s.jobs.PendingIndex(worker.Skills).WithinRadius(ctx, center, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("search pending jobs: %w", err)
	}

	now := s.now()
	cards := make([]cardWithExpiry, 0, min(len(hits), limit))
	for start := 0; start < len(hits); start += candidatePageSize {
		end := min(start+candidatePageSize, len(hits))
		page := hits[start:end]

		found, err := s.hydrate(ctx, worker, page, radiusKm, now)
		if err != nil {
			return nil, err
		}
		cards = append(cards, found...)

		if len(cards) >= limit && end < len(hits) {
			sortCards(cards)
			if hits[end].DistanceKm > cards[limit-1].distance {
				break
			}
		}
	}

	sortCards(cards)
	if len(cards) > limit {
		cards = cards[:limit]
	}
	out := make([]model.JobCard, len(cards))
	for i := range cards {
		out[i] = cards[i].card
	}
	return out, nil
}

type cardWithExpiry struct {
	card      model.JobCard
	distance  float64
	expiresAt time.Time
}

func (s *MatchingService) hydrate(
	ctx context.Context,
	worker *model.Worker,
	hits []geo.Hit,
	radiusKm float64,
	now time.Time,
) ([]cardWithExpiry, error) {
	ids := make([]string, len(hits))
	distance := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		distance[h.ID] = h.DistanceKm
	}

	candidates, err := s.jobs.ListClaimable(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load nearby jobs: %w", err)
	}

	out := make([]cardWithExpiry, 0, len(candidates))
	for _, c := range candidates {
		d, ok := distance[c.Job.ID]
		if !ok || d > radiusKm {
			continue
		}
		if !worker.HasSkill(c.Job.Type) || !domainjob.Claimable(c.Job.Status, c.Job.ExpiresAt, now) {
			continue
		}
		out = append(out, cardWithExpiry{
			card:      toJobCard(c, d, now),
			distance:  d,
			expiresAt: c.Job.ExpiresAt,
		})
	}
	return out, nil
}

func sortCards(cards []cardWithExpiry) {
	sort.Slice(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if !a.expiresAt.Equal(b.expiresAt) {
			return a.expiresAt.Before(b.expiresAt)
		}
		return a.card.ID < b.card.ID
	})
}

func toJobCard(c *model.CandidateJob, distanceKm float64, now time.Time) model.JobCard {
	minutes := int(math.Floor(c.Job.ExpiresAt.Sub(now).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	return model.JobCard{
		ID:                     c.Job.ID,
		Title:                  c.Job.Title,
		Type:                   c.Job.Type,
		FinalPrice:             c.Job.Price.FinalPrice,
		DistanceKm:             geo.RoundKm(distanceKm),
		ExpiresInMinutes:       minutes,
		Severity:               c.Job.Severity,
		EstimatedSquareFootage: c.Job.EstimatedSquareFootage,
		City:                   c.Location.City,
		State:                  c.Location.State,
		ImageURL:               c.Job.FirstImageURL(),
	}
}

// waitForJobs searches again whenever a job of one of the worker's types is
// posted, and every LongPollInterval regardless. It returns an empty slice when
// waitCtx ends or the notifier stops. A nil posted channel leaves only the
// interval.
func (s *MatchingService) waitForJobs(
	ctx context.Context,
	waitCtx context.Context,
	posted <-chan struct{},
	worker *model.Worker,
	center geo.Point,
	radiusKm float64,
	limit int,
) ([]model.JobCard, error) {
	ticker := time.NewTicker(s.config.LongPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return []model.JobCard{}, nil
		case _, ok := <-posted:
			if !ok {
				return []model.JobCard{}, nil
			}
		case <-ticker.C:
		}

		cards, err := s.search(ctx, worker, center, radiusKm, limit)
		if err != nil || len(cards) > 0 {
			return cards, err
		}
	}
}
