package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/target/jobmatch/internal/data/database"
	"github.com/target/jobmatch/internal/data/pgxutil"
	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
)

// GetByID retrieves a job and its images by ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs j
			WHERE j.id = $1
		`, id)
		if err != nil {
			return err
		}
		job, err = collectJobFromRows(rows)
		rows.Close()
		if err != nil {
			return err
		}
		images, err := queryImages(ctx, pgxConn, []string{job.ID})
		if err != nil {
			return err
		}
		job.Images = images
		return nil
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", apperrors.MapDBError(err))
	}
	return job, nil
}

// jobColumnList splits jobColumns for the query builder.
func jobColumnList() []string {
	parts := strings.Split(jobColumns, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func buildListByCustomerQuery(opts model.JobListOptions) (string, []any) {
	conds := []database.Condition{database.WhereCond("j.customer_id", database.Equal, opts.CustomerID)}
	if opts.Status != nil {
		conds = append(conds, database.WhereCond("j.status", database.Equal, string(*opts.Status)))
	}
	if opts.Type != nil {
		conds = append(conds, database.WhereCond("j.job_type", database.Equal, string(*opts.Type)))
	}
	return database.BuildListQuery(database.NewListQueryOptions("jobs",
		database.WithAlias("j"),
		database.WithColumns(jobColumnList()...),
		database.WithConditions(conds...),
		database.WithOrderBy("j.created_at", "desc"),
		database.WithOrderBy("j.id", "desc"),
		database.WithLimit(opts.Limit),
		database.WithOffset(opts.Offset),
	))
}

// ListByCustomer returns a page of the customer's jobs, newest first, with images.
func (r *JobRepo) ListByCustomer(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	if opts.CustomerID == "" {
		return nil, errors.New("customer id is required")
	}
	opts.Sanitize()
	query, args := buildListByCustomerQuery(opts)

	jobs := []*model.Job{}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		for rows.Next() {
			job, scanErr := scanJobFromRow(rows)
			if scanErr != nil {
				rows.Close()
				return scanErr
			}
			jobs = append(jobs, job)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		return attachJobImages(ctx, pgxConn, jobs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", apperrors.MapDBError(err))
	}
	return jobs, nil
}

// Stats returns job counts per lifecycle state.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')   AS pending,
    count(*) FILTER (WHERE status = 'assigned')  AS assigned,
    count(*) FILTER (WHERE status = 'expired')   AS expired,
    count(*) FILTER (WHERE status = 'completed') AS completed,
    count(*) FILTER (WHERE status = 'cancelled') AS cancelled
  FROM jobs
  `).Scan(
		&s.Pending,
		&s.Assigned,
		&s.Expired,
		&s.Completed,
		&s.Cancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	return &s, nil
}
