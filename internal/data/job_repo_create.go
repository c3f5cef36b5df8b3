package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/jobmatch/internal/data/pgxutil"
	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
)

// notifyChannel is the LISTEN/NOTIFY channel for newly posted jobs of a type.
func notifyChannel(jobType model.JobType) string {
	return "job_posted_" + string(jobType)
}

// CreateBatch inserts every job and its images in a single transaction. Either all
// jobs are visible afterwards or none are.
func (r *JobRepo) CreateBatch(ctx context.Context, params []model.NewJobParams) ([]*model.Job, error) {
	if len(params) == 0 {
		return nil, ErrEmptyBatch
	}
	for i := range params {
		if err := params[i].Validate(); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "job %d", i)
		}
	}

	jobs := make([]*model.Job, 0, len(params))
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: pgxutil.ReadCommitted,
		Fn: func(tx pgx.Tx) error {
			jobs = jobs[:0]
			now := r.now()
			notified := make(map[model.JobType]bool)
			for i := range params {
				job, err := r.insertJobInTx(ctx, tx, &params[i], now)
				if err != nil {
					return err
				}
				jobs = append(jobs, job)
				if notified[job.Type] {
					continue
				}
				notified[job.Type] = true
				if _, execErr := tx.Exec(ctx, `SELECT pg_notify($1::text, $2::text)`, notifyChannel(job.Type), job.ID); execErr != nil {
					return fmt.Errorf("send job notification: %w", execErr)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create job batch: %w", apperrors.MapDBError(err))
	}

	r.logger.DebugContext(ctx, "job batch created", "count", len(jobs))
	return jobs, nil
}

func (r *JobRepo) insertJobInTx(ctx context.Context, tx pgx.Tx, p *model.NewJobParams, now time.Time) (*model.Job, error) {
	meta, err := marshalMetadata(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	priority := p.Priority
	if priority == "" {
		priority = model.JobPriorityMedium
	}

	rows, err := tx.Query(ctx, `
      INSERT INTO jobs AS j (
        customer_id, location_id, job_type, status, priority, title, description,
        estimated_square_footage, severity, confidence,
        base_price, severity_multiplier, weather_multiplier, demand_multiplier,
        total_multiplier, final_price, metadata, created_at, expires_at, updated_at)
      VALUES ($1,$2,$3,'pending',$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$17)
      RETURNING `+jobColumns,
		nullableUUID(p.CustomerID),
		p.LocationID,
		p.Type,
		priority,
		p.Title,
		p.Description,
		p.Analysis.SquareFootage,
		nullableSeverity(p.Analysis.Severity),
		p.Analysis.Confidence,
		p.Price.BasePrice,
		p.Price.SeverityMultiplier,
		p.Price.WeatherMultiplier,
		p.Price.DemandMultiplier,
		p.Price.TotalMultiplier,
		p.Price.FinalPrice,
		meta,
		now,
		now.Add(p.ExpiresIn),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	job, collectErr := collectJobFromRows(rows)
	rows.Close()
	if collectErr != nil {
		return nil, fmt.Errorf("collect job: %w", collectErr)
	}

	images, err := insertImagesInTx(ctx, tx, job.ID, p)
	if err != nil {
		return nil, err
	}
	job.Images = images
	return job, nil
}

// insertImagesInTx stores the job's image references. The vision analysis was taken
// from the first image, so only that row carries it.
func insertImagesInTx(ctx context.Context, tx pgx.Tx, jobID string, p *model.NewJobParams) ([]model.JobImage, error) {
	if len(p.ImageURLs) == 0 {
		return nil, nil
	}
	images := make([]model.JobImage, 0, len(p.ImageURLs))
	for pos, url := range p.ImageURLs {
		var analysis []byte
		if pos == 0 && !p.Analysis.Empty() {
			b, err := json.Marshal(p.Analysis)
			if err != nil {
				return nil, fmt.Errorf("marshal image analysis: %w", err)
			}
			analysis = b
		}
		img := model.JobImage{JobID: jobID, URL: url, Position: pos}
		if err := tx.QueryRow(ctx, `
          INSERT INTO job_images (job_id, url, position, analysis)
          VALUES ($1, $2, $3, $4)
          RETURNING id, created_at`,
			jobID, url, pos, analysis,
		).Scan(&img.ID, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert job image: %w", err)
		}
		if analysis != nil {
			a := p.Analysis
			img.Analysis = &a
		}
		images = append(images, img)
	}
	return images, nil
}
