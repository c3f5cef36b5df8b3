package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/jobmatch/internal/data/database"
	"github.com/target/jobmatch/internal/data/pgxutil"
	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/geo"
)

func jobTypeStrings(types []model.JobType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

// PendingIndex returns a radius index over claimable jobs whose type is in skills.
// Jobs are positioned at their location's coordinate.
func (r *JobRepo) PendingIndex(skills []model.JobType) geo.Index {
	types := jobTypeStrings(skills)
	return &sqlPointIndex{
		db: r.DB,
		src: pointSource{
			table:  "jobs",
			alias:  "j",
			joins:  []string{"JOIN locations l ON l.id = j.location_id"},
			idCol:  "j.id",
			latCol: "l.latitude",
			lngCol: "l.longitude",
			filters: func() []database.Condition {
				return []database.Condition{
					database.WhereCond("j.status", database.Equal, string(model.JobStatusPending)),
					database.WhereCond("j.expires_at", database.GreaterThan, r.now()),
					database.WhereCond("j.job_type", database.Any, types),
				}
			},
		},
	}
}

// ListClaimable loads the jobs in ids that are still pending and unexpired, together
// with their locations and images. Rows that stopped being claimable since the index
// lookup are dropped. Order is unspecified.
func (r *JobRepo) ListClaimable(ctx context.Context, ids []string) ([]*model.CandidateJob, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var out []*model.CandidateJob
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+jobColumns+`, `+locationColumns+`
			FROM jobs j
			JOIN locations l ON l.id = j.location_id
			WHERE j.id = ANY($1::uuid[])
			  AND j.status = 'pending'
			  AND j.expires_at > $2
		`, ids, r.now())
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			c, scanErr := scanCandidateFromRow(rows)
			if scanErr != nil {
				return scanErr
			}
			out = append(out, c)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}
		rows.Close()

		return attachImages(ctx, conn, out)
	})
	if err != nil {
		return nil, fmt.Errorf("list claimable jobs: %w", err)
	}
	return out, nil
}

func attachImages(ctx context.Context, conn *pgx.Conn, candidates []*model.CandidateJob) error {
	jobs := make([]*model.Job, len(candidates))
	for i, c := range candidates {
		jobs[i] = &c.Job
	}
	return attachJobImages(ctx, conn, jobs)
}

func attachJobImages(ctx context.Context, conn *pgx.Conn, jobs []*model.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	byID := make(map[string]*model.Job, len(jobs))
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
		ids = append(ids, j.ID)
	}
	images, err := queryImages(ctx, conn, ids)
	if err != nil {
		return err
	}
	for _, img := range images {
		if j, ok := byID[img.JobID]; ok {
			j.Images = append(j.Images, img)
		}
	}
	return nil
}

func queryImages(ctx context.Context, conn *pgx.Conn, jobIDs []string) ([]model.JobImage, error) {
	rows, err := conn.Query(ctx, `
		SELECT id, job_id, url, position, analysis, created_at
		FROM job_images
		WHERE job_id = ANY($1::uuid[])
		ORDER BY job_id, position
	`, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("query job images: %w", err)
	}
	defer rows.Close()

	var images []model.JobImage
	for rows.Next() {
		var img model.JobImage
		if scanErr := rows.Scan(&img.ID, &img.JobID, &img.URL, &img.Position, &img.Analysis, &img.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("scan job image: %w", scanErr)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
