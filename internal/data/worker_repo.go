package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/jobmatch/internal/data/database"
	"github.com/target/jobmatch/internal/data/pgxutil"
	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/geo"
)

// WorkerRepo reads worker supply. Worker profiles are written by the worker-facing
// flows; Upsert exists for seeding and tests.
type WorkerRepo struct {
	DB *sql.DB
}

// NewWorkerRepo creates a new WorkerRepo instance.
func NewWorkerRepo(db *sql.DB) *WorkerRepo {
	return &WorkerRepo{DB: db}
}

const workerColumns = `id, name, skills, available, verification, current_latitude, current_longitude, updated_at`

func scanWorker(scanner jobRowScanner) (*model.Worker, error) {
	w := &model.Worker{}
	var (
		skills   []string
		lat, lng *float64
	)
	if err := scanner.Scan(&w.ID, &w.Name, &skills, &w.Available, &w.Verification, &lat, &lng, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Skills = make([]model.JobType, 0, len(skills))
	for _, s := range skills {
		w.Skills = append(w.Skills, model.JobType(s))
	}
	if lat != nil && lng != nil {
		w.CurrentLocation = &geo.Point{Lat: *lat, Lng: *lng}
	}
	return w, nil
}

// GetByID retrieves a worker by ID.
func (r *WorkerRepo) GetByID(ctx context.Context, id string) (*model.Worker, error) {
	var w *model.Worker
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var scanErr error
		w, scanErr = scanWorker(conn.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, id))
		return scanErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get worker: %w", apperrors.MapDBError(err))
	}
	return w, nil
}

// Upsert inserts or replaces a worker row and returns the stored worker.
func (r *WorkerRepo) Upsert(ctx context.Context, w *model.Worker) (*model.Worker, error) {
	if w == nil {
		return nil, apperrors.Validation("worker is required")
	}
	var lat, lng *float64
	if w.CurrentLocation != nil {
		if err := w.CurrentLocation.Validate(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid worker location")
		}
		lat, lng = &w.CurrentLocation.Lat, &w.CurrentLocation.Lng
	}
	verification := w.Verification
	if verification == "" {
		verification = model.VerificationPending
	}

	var out *model.Worker
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var scanErr error
		out, scanErr = scanWorker(conn.QueryRow(ctx, `
			INSERT INTO workers (id, name, skills, available, verification, current_latitude, current_longitude, updated_at)
			VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				skills = EXCLUDED.skills,
				available = EXCLUDED.available,
				verification = EXCLUDED.verification,
				current_latitude = EXCLUDED.current_latitude,
				current_longitude = EXCLUDED.current_longitude,
				updated_at = now()
			RETURNING `+workerColumns,
			w.ID, w.Name, jobTypeStrings(w.Skills), w.Available, string(verification), lat, lng,
		))
		return scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("upsert worker: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// SupplyIndex returns a radius index over workers eligible for jobType: available,
// verified, skilled, and with a known current location.
func (r *WorkerRepo) SupplyIndex(jobType model.JobType) geo.Index {
	return &sqlPointIndex{
		db: r.DB,
		src: pointSource{
			table:  "workers",
			alias:  "w",
			idCol:  "w.id",
			latCol: "w.current_latitude",
			lngCol: "w.current_longitude",
			filters: func() []database.Condition {
				return []database.Condition{
					database.WhereCond("w.available", database.Equal, true),
					database.WhereCond("w.verification", database.Equal, string(model.VerificationVerified)),
					database.WhereRawCond("? = ANY(w.skills)", string(jobType)),
				}
			},
		},
	}
}
