package data

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/jobmatch/internal/domain/model"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
	// ClaimLockTimeout bounds how long a claim waits for another claim's row lock.
	ClaimLockTimeout time.Duration
}

// JobRepo provides database operations for posted jobs.
type JobRepo struct {
	DB           *sql.DB
	cfg          RepoConfig
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobRepo{
		DB:           db,
		cfg:          cfg,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

func (r *JobRepo) now() time.Time {
	return r.timeProvider.Now().UTC()
}

const jobColumns = `
  j.id,
  j.customer_id,
  j.location_id,
  j.job_type,
  j.status,
  j.priority,
  j.title,
  j.description,
  j.estimated_square_footage,
  j.severity,
  j.confidence,
  j.base_price,
  j.severity_multiplier,
  j.weather_multiplier,
  j.demand_multiplier,
  j.total_multiplier,
  j.final_price,
  j.metadata,
  j.created_at,
  j.expires_at,
  j.updated_at
`

const locationColumns = `
  l.id,
  l.owner_id,
  l.latitude,
  l.longitude,
  l.address,
  l.city,
  l.state,
  l.postal_code,
  l.created_at
`

// collectJobFromRows collects a single job from pgx rows.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	return job, nil
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	customerID *string
	severity   *string
	metadata   []byte
}

func (d *jobRowData) targets(job *model.Job) []any {
	return []any{
		&job.ID,
		&d.customerID,
		&job.LocationID,
		&job.Type,
		&job.Status,
		&job.Priority,
		&job.Title,
		&job.Description,
		&job.EstimatedSquareFootage,
		&d.severity,
		&job.Confidence,
		&job.Price.BasePrice,
		&job.Price.SeverityMultiplier,
		&job.Price.WeatherMultiplier,
		&job.Price.DemandMultiplier,
		&job.Price.TotalMultiplier,
		&job.Price.FinalPrice,
		&d.metadata,
		&job.CreatedAt,
		&job.ExpiresAt,
		&job.UpdatedAt,
	}
}

func (d *jobRowData) apply(job *model.Job) error {
	if d.customerID != nil {
		job.CustomerID = *d.customerID
	}
	if d.severity != nil {
		s := model.Severity(*d.severity)
		job.Severity = &s
	}
	if len(d.metadata) > 0 {
		if err := json.Unmarshal(d.metadata, &job.Metadata); err != nil {
			return err
		}
	}
	return nil
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var data jobRowData
	if err := scanner.Scan(data.targets(job)...); err != nil {
		return nil, err
	}
	if err := data.apply(job); err != nil {
		return nil, err
	}
	return job, nil
}

func locationTargets(loc *model.Location) []any {
	return []any{
		&loc.ID,
		&loc.OwnerID,
		&loc.Point.Lat,
		&loc.Point.Lng,
		&loc.Address,
		&loc.City,
		&loc.State,
		&loc.PostalCode,
		&loc.CreatedAt,
	}
}

// scanCandidateFromRow scans jobColumns followed by locationColumns.
func scanCandidateFromRow(scanner jobRowScanner) (*model.CandidateJob, error) {
	c := &model.CandidateJob{}
	var data jobRowData
	dest := append(data.targets(&c.Job), locationTargets(&c.Location)...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	if err := data.apply(&c.Job); err != nil {
		return nil, err
	}
	return c, nil
}

func nullableSeverity(s *model.Severity) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func nullableUUID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte(`{}`), nil
	}
	return json.Marshal(m)
}
