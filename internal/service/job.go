package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/target/jobmatch/internal/core"
	domainjob "github.com/target/jobmatch/internal/domain/job"
	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/domain/pricing"
	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/geo"
	"github.com/target/jobmatch/internal/observability/metrics"
	"github.com/target/jobmatch/internal/observability/statsd"
	"golang.org/x/sync/errgroup"
)

const (
	fallbackJobTitle = "Service Request"
	maxTitleRunes    = 100
	defaultMaxImages = 10
)

// JobServiceRepos groups the persistence ports JobService writes through.
type JobServiceRepos struct {
	Jobs      core.JobRepository      // Required
	Locations core.LocationRepository // Required
}

// JobCollaborators groups the pricing inputs. Only Demand is required; a nil
// parser, vision estimator or weather provider contributes no evidence.
type JobCollaborators struct {
	Demand  *DemandService
	Parser  core.JobParser
	Vision  core.VisionEstimator
	Weather core.WeatherProvider
	Engine  *pricing.Engine
}

// JobServiceConfig tunes job creation.
type JobServiceConfig struct {
	DefaultExpiry  time.Duration
	MaxExpiry      time.Duration
	WeatherTimeout time.Duration
	MaxImages      int
}

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repos         JobServiceRepos
	Collaborators JobCollaborators
	Config        JobServiceConfig
	Logger        *slog.Logger // Optional: structured logger
	Metrics       statsd.Sink  // Optional: metrics sink (StatsD-compatible)
}

// JobService creates and prices jobs.
//
// This service manages:
// - Splitting customer text into jobs through the parser, with a safe fallback.
// - Resolving vision, weather and demand evidence concurrently.
// - Pricing every job and committing the batch atomically.
// - Read-side lookups for single jobs and lifecycle counts.
type JobService struct {
	jobs      core.JobRepository
	locations core.LocationRepository
	demand    *DemandService
	parser    core.JobParser
	vision    core.VisionEstimator
	weather   core.WeatherProvider
	engine    *pricing.Engine
	expiry    *domainjob.ExpiryPolicy
	config    JobServiceConfig
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repos.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Repos.Locations == nil {
		return nil, errors.New("LocationRepository is required")
	}
	if opts.Collaborators.Demand == nil {
		return nil, errors.New("DemandService is required")
	}

	cfg := opts.Config
	if cfg.DefaultExpiry <= 0 {
		cfg.DefaultExpiry = time.Hour
	}
	if cfg.WeatherTimeout <= 0 {
		cfg.WeatherTimeout = 5 * time.Second
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = defaultMaxImages
	}
	expiry, err := domainjob.NewExpiryPolicy(cfg.DefaultExpiry, cfg.MaxExpiry)
	if err != nil {
		return nil, fmt.Errorf("create expiry policy: %w", err)
	}

	engine := opts.Collaborators.Engine
	if engine == nil {
		engine = pricing.NewEngine(pricing.DefaultTables())
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
		logger.Debug("JobService initialized",
			"default_expiry", expiry.Default(),
			"weather_timeout", cfg.WeatherTimeout,
			"parser", opts.Collaborators.Parser != nil,
			"vision", opts.Collaborators.Vision != nil,
			"weather", opts.Collaborators.Weather != nil,
		)
	}

	return &JobService{
		jobs:      opts.Repos.Jobs,
		locations: opts.Repos.Locations,
		demand:    opts.Collaborators.Demand,
		parser:    opts.Collaborators.Parser,
		vision:    opts.Collaborators.Vision,
		weather:   opts.Collaborators.Weather,
		engine:    engine,
		expiry:    expiry,
		config:    cfg,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// CreateJobBatchRequest describes a customer's posting.
type CreateJobBatchRequest struct {
	CustomerID string
	LocationID string
	// Text is the customer's request. It is split by the parser unless JobType is set.
	Text      string
	ImageURLs []string
	// JobType skips parsing and creates a single job of this type.
	JobType  model.JobType
	Title    string
	Priority model.JobPriority
	// ExpiresIn overrides the default claim window.
	ExpiresIn time.Duration
}

// CreatedJob is one committed job with the workers it should be broadcast to.
type CreatedJob struct {
	Job        *model.Job `json:"job"`
	Recipients []string   `json:"recipients"`
}

// CreateJobBatchResult lists the committed jobs in request order.
type CreateJobBatchResult struct {
	Jobs []CreatedJob `json:"jobs"`
}

// typeEvidence is the per-type pricing input gathered before the batch commits.
type typeEvidence struct {
	vision model.VisionResult
	demand DemandQuote
}

// CreateJobBatch parses the request into jobs, prices each from vision, weather
// and demand evidence, and commits all jobs with their images in one transaction.
func (s *JobService) CreateJobBatch(ctx context.Context, req CreateJobBatchRequest) (*CreateJobBatchResult, error) {
	req, err := s.normalizeCreateRequest(req)
	if err != nil {
		return nil, err
	}

	loc, err := s.loadLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}

	parsed := s.parseJobs(ctx, req)
	types := distinctTypes(parsed)

	var firstImage string
	if len(req.ImageURLs) > 0 {
		firstImage = req.ImageURLs[0]
	}

	conditions, evidence, err := s.gatherEvidence(ctx, loc.Point, types, firstImage)
	if err != nil {
		return nil, fmt.Errorf("resolve pricing inputs: %w", err)
	}

	decision := s.expiry.Resolve(req.ExpiresIn)
	params := make([]model.NewJobParams, len(parsed))
	for i, p := range parsed {
		ev := evidence[p.Type]
		price := s.engine.Compute(pricing.Input{
			JobType:           p.Type,
			SquareFootage:     ev.vision.SquareFootage,
			Severity:          ev.vision.Severity,
			WeatherMultiplier: pricing.WeatherMultiplier(p.Type, conditions),
			DemandMultiplier:  ev.demand.Multiplier,
		})
		params[i] = model.NewJobParams{
			CustomerID:  req.CustomerID,
			LocationID:  loc.ID,
			Type:        p.Type,
			Priority:    p.Priority,
			Title:       p.Title,
			Description: p.Description,
			Analysis:    ev.vision,
			Price:       price,
			Metadata:    jobMetadata(req.Text, price, ev, conditions, decision),
			ImageURLs:   req.ImageURLs,
			ExpiresIn:   decision.Window,
		}
	}

	jobs, err := s.jobs.CreateBatch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create jobs: %w", err)
	}

	result := &CreateJobBatchResult{Jobs: make([]CreatedJob, len(jobs))}
	created := make(map[model.JobType]int, len(types))
	for i, job := range jobs {
		ev := evidence[job.Type]
		recipients := ev.demand.Recipients
		if recipients == nil {
			recipients = []string{}
		}
		result.Jobs[i] = CreatedJob{Job: job, Recipients: recipients}
		created[job.Type]++

		metrics.EmitPricing(s.metrics, metrics.PricingMetric{
			JobType:           string(job.Type),
			FinalPrice:        job.Price.FinalPrice,
			DemandMultiplier:  job.Price.DemandMultiplier,
			WeatherMultiplier: job.Price.WeatherMultiplier,
			DemandSource:      ev.demand.Source,
		})
	}
	for jt, n := range created {
		metrics.EmitJobsCreated(s.metrics, string(jt), n)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job batch created",
			"location_id", loc.ID,
			"jobs", len(jobs),
			"types", types,
			"expiry", decision.Window,
			"expiry_source", decision.Source,
		)
	}

	return result, nil
}

func (s *JobService) normalizeCreateRequest(req CreateJobBatchRequest) (CreateJobBatchRequest, error) {
	if _, err := uuid.Parse(req.LocationID); err != nil {
		return req, apperrors.ValidationField("location_id", "location id must be a valid UUID")
	}
	if req.CustomerID != "" {
		if _, err := uuid.Parse(req.CustomerID); err != nil {
			return req, apperrors.ValidationField("customer_id", "customer id must be a valid UUID")
		}
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.JobType == "" && req.Text == "" {
		return req, apperrors.ValidationField("text", "text is required when job_type is not set")
	}
	if req.JobType != "" && !req.JobType.Valid() {
		return req, apperrors.ValidationField("job_type", model.ErrInvalidJobType.Error())
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return req, apperrors.ValidationField("priority", "invalid priority")
	}
	if req.ExpiresIn < 0 {
		return req, apperrors.ValidationField("expires_in", "expiry must not be negative")
	}

	urls := make([]string, 0, len(req.ImageURLs))
	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) > s.config.MaxImages {
		return req, apperrors.ValidationField("image_urls",
			fmt.Sprintf("at most %d images are allowed", s.config.MaxImages))
	}
	req.ImageURLs = urls
	return req, nil
}

func (s *JobService) loadLocation(ctx context.Context, id string) (*model.Location, error) {
	loc, err := s.locations.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ValidationField("location_id", "unknown location")
		}
		return nil, fmt.Errorf("load location: %w", err)
	}
	return loc, nil
}

// parseJobs never fails: parser errors and empty results fall back to a single
// generic job carrying the original text.
func (s *JobService) parseJobs(ctx context.Context, req CreateJobBatchRequest) []model.ParsedJob {
	if req.JobType != "" {
		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = defaultTitle(req.JobType)
		}
		return []model.ParsedJob{normalizeParsed(model.ParsedJob{
			Type:        req.JobType,
			Title:       title,
			Description: req.Text,
			Priority:    req.Priority,
		}, req.Text)}
	}

	fallback := []model.ParsedJob{{
		Type:        model.JobTypeOther,
		Title:       fallbackJobTitle,
		Description: req.Text,
		Priority:    model.JobPriorityMedium,
	}}
	if s.parser == nil {
		return fallback
	}

	parsed, err := s.parser.Parse(ctx, req.Text)
	if err != nil || len(parsed) == 0 {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "job parser returned no jobs, using fallback", "error", err)
		}
		return fallback
	}

	out := make([]model.ParsedJob, len(parsed))
	for i, p := range parsed {
		out[i] = normalizeParsed(p, req.Text)
	}
	return out
}

func normalizeParsed(p model.ParsedJob, text string) model.ParsedJob {
	if !p.Type.Valid() {
		p.Type = model.JobTypeOther
	}
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		p.Title = fallbackJobTitle
	}
	if utf8.RuneCountInString(p.Title) > maxTitleRunes {
		p.Title = string([]rune(p.Title)[:maxTitleRunes])
	}
	if strings.TrimSpace(p.Description) == "" {
		p.Description = text
	}
	if !p.Priority.Valid() {
		p.Priority = model.JobPriorityMedium
	}
	return p
}

func defaultTitle(jt model.JobType) string {
	words := strings.Split(string(jt), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func distinctTypes(parsed []model.ParsedJob) []model.JobType {
	seen := make(map[model.JobType]struct{}, len(parsed))
	types := make([]model.JobType, 0, len(parsed))
	for _, p := range parsed {
		if _, ok := seen[p.Type]; ok {
			continue
		}
		seen[p.Type] = struct{}{}
		types = append(types, p.Type)
	}
	return types
}

// gatherEvidence resolves weather once for the location and vision plus demand
// once per job type, all concurrently. Collaborator failures degrade to neutral
// evidence; only cancellation of ctx is returned as an error.
func (s *JobService) gatherEvidence(
	ctx context.Context,
	point geo.Point,
	types []model.JobType,
	imageURL string,
) (*model.WeatherConditions, map[model.JobType]typeEvidence, error) {
	var (
		g          errgroup.Group
		conditions *model.WeatherConditions
		results    = make([]typeEvidence, len(types))
	)

	g.Go(func() error {
		conditions = s.currentWeather(ctx, point)
		return ctx.Err()
	})
	for i, jt := range types {
		g.Go(func() error {
			results[i].vision = s.analyze(ctx, imageURL, jt)
			return ctx.Err()
		})
		g.Go(func() error {
			results[i].demand = s.demand.Quote(ctx, point, jt)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	evidence := make(map[model.JobType]typeEvidence, len(types))
	for i, jt := range types {
		evidence[jt] = results[i]
	}
	return conditions, evidence, nil
}

// currentWeather returns nil when no provider is configured or the lookup fails,
// which prices weather at 1.0.
func (s *JobService) currentWeather(ctx context.Context, point geo.Point) *model.WeatherConditions {
	if s.weather == nil {
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, s.config.WeatherTimeout)
	defer cancel()

	conditions, err := s.weather.Current(wctx, point)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "weather lookup failed, using neutral weather", "point", point.String(), "error", err)
		}
		return nil
	}
	return conditions
}

// analyze returns empty evidence when vision is unavailable or fails.
func (s *JobService) analyze(ctx context.Context, imageURL string, jt model.JobType) model.VisionResult {
	if s.vision == nil || imageURL == "" {
		return model.VisionResult{}
	}
	res, err := s.vision.Analyze(ctx, imageURL, jt)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "image analysis failed, pricing without it", "job_type", jt, "error", err)
		}
		return model.VisionResult{}
	}
	return sanitizeVision(res)
}

func sanitizeVision(v model.VisionResult) model.VisionResult {
	if v.SquareFootage != nil && (math.IsNaN(*v.SquareFootage) || math.IsInf(*v.SquareFootage, 0) || *v.SquareFootage <= 0) {
		v.SquareFootage = nil
	}
	if v.Severity != nil && !v.Severity.Valid() {
		v.Severity = nil
	}
	if v.Confidence != nil {
		c := *v.Confidence
		switch {
		case math.IsNaN(c):
			v.Confidence = nil
		case c < 0:
			c = 0
			v.Confidence = &c
		case c > 1:
			c = 1
			v.Confidence = &c
		}
	}
	return v
}

func jobMetadata(
	text string,
	price model.PriceBreakdown,
	ev typeEvidence,
	conditions *model.WeatherConditions,
	decision domainjob.ExpiryDecision,
) map[string]any {
	meta := map[string]any{
		"severity_multiplier": price.SeverityMultiplier,
		"weather_multiplier":  price.WeatherMultiplier,
		"demand_multiplier":   price.DemandMultiplier,
		"demand_source":       ev.demand.Source,
		"available_workers":   ev.demand.Workers,
		"expiry_source":       string(decision.Source),
	}
	if text != "" {
		meta["request_text"] = text
	}
	if conditions != nil {
		meta["weather_condition"] = conditions.Condition
		meta["temperature_f"] = conditions.TemperatureF
	}
	if len(ev.vision.Tags) > 0 {
		meta["detected_tags"] = ev.vision.Tags
	}
	return meta
}

// EstimateRequest asks for a price without creating a job. Explicit size and
// severity take precedence over image analysis.
type EstimateRequest struct {
	JobType       model.JobType
	LocationID    string
	Point         *geo.Point
	SquareFootage *float64
	Severity      *model.Severity
	ImageURL      string
}

// PriceEstimate is the priced breakdown together with the evidence behind it.
type PriceEstimate struct {
	JobType          model.JobType            `json:"job_type"`
	Price            model.PriceBreakdown     `json:"price"`
	Analysis         *model.VisionResult      `json:"analysis,omitempty"`
	Weather          *model.WeatherConditions `json:"weather,omitempty"`
	DemandSource     string                   `json:"demand_source"`
	AvailableWorkers int                      `json:"available_workers"`
}

// EstimatePrice runs the pricing pipeline without persistence. Without a location
// or point, weather is neutral and demand uses the configured default count.
func (s *JobService) EstimatePrice(ctx context.Context, req EstimateRequest) (*PriceEstimate, error) {
	if !req.JobType.Valid() {
		return nil, apperrors.ValidationField("job_type", model.ErrInvalidJobType.Error())
	}
	if sq := req.SquareFootage; sq != nil && (math.IsNaN(*sq) || math.IsInf(*sq, 0) || *sq <= 0) {
		return nil, apperrors.ValidationField("square_footage", "square footage must be positive")
	}
	if req.Severity != nil && !req.Severity.Valid() {
		return nil, apperrors.ValidationField("severity", "invalid severity")
	}

	point, err := s.estimatePoint(ctx, req)
	if err != nil {
		return nil, err
	}

	var (
		g          errgroup.Group
		conditions *model.WeatherConditions
		vision     model.VisionResult
		quote      = s.demand.DefaultQuote()
	)
	if point != nil {
		g.Go(func() error {
			conditions = s.currentWeather(ctx, *point)
			return ctx.Err()
		})
		g.Go(func() error {
			quote = s.demand.Quote(ctx, *point, req.JobType)
			return ctx.Err()
		})
	}
	if req.ImageURL != "" && (req.SquareFootage == nil || req.Severity == nil) {
		g.Go(func() error {
			vision = s.analyze(ctx, strings.TrimSpace(req.ImageURL), req.JobType)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve pricing inputs: %w", err)
	}

	size, severity := vision.SquareFootage, vision.Severity
	if req.SquareFootage != nil {
		size = req.SquareFootage
	}
	if req.Severity != nil {
		severity = req.Severity
	}

	estimate := &PriceEstimate{
		JobType: req.JobType,
		Price: s.engine.Compute(pricing.Input{
			JobType:           req.JobType,
			SquareFootage:     size,
			Severity:          severity,
			WeatherMultiplier: pricing.WeatherMultiplier(req.JobType, conditions),
			DemandMultiplier:  quote.Multiplier,
		}),
		Weather:          conditions,
		DemandSource:     quote.Source,
		AvailableWorkers: quote.Workers,
	}
	if !vision.Empty() {
		estimate.Analysis = &vision
	}
	return estimate, nil
}

func (s *JobService) estimatePoint(ctx context.Context, req EstimateRequest) (*geo.Point, error) {
	if req.LocationID != "" {
		if _, err := uuid.Parse(req.LocationID); err != nil {
			return nil, apperrors.ValidationField("location_id", "location id must be a valid UUID")
		}
		loc, err := s.loadLocation(ctx, req.LocationID)
		if err != nil {
			return nil, err
		}
		return &loc.Point, nil
	}
	if req.Point != nil {
		if err := req.Point.Validate(); err != nil {
			return nil, apperrors.ValidationField("point", err.Error())
		}
		p := *req.Point
		return &p, nil
	}
	return nil, nil
}

// GetByID returns a job with its images.
func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ValidationField("id", "job id must be a valid UUID")
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job by id: %w", err)
	}
	return job, nil
}

// ListJobs returns a page of the customer's jobs, newest first. Unknown status
// or type filters are validation errors rather than empty pages.
func (s *JobService) ListJobs(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	if _, err := uuid.Parse(opts.CustomerID); err != nil {
		return nil, apperrors.ValidationField("customer_id", "customer id must be a valid UUID")
	}
	if opts.Status != nil && !opts.Status.Valid() {
		return nil, apperrors.ValidationField("status", "unknown job status")
	}
	if opts.Type != nil && !opts.Type.Valid() {
		return nil, apperrors.ValidationField("job_type", model.ErrInvalidJobType.Error())
	}
	opts.Sanitize()

	jobs, err := s.jobs.ListByCustomer(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list customer jobs: %w", err)
	}
	return jobs, nil
}

// Stats counts jobs in each lifecycle state.
func (s *JobService) Stats(ctx context.Context) (*model.JobStats, error) {
	stats, err := s.jobs.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get job stats: %w", err)
	}
	return stats, nil
}
