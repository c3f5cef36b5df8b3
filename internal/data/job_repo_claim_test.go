package data

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/testutil"
)

func claimParams(jobID, workerID string) core.ClaimParams {
	return core.ClaimParams{JobID: jobID, WorkerID: workerID}
}

func TestJobRepo_Claim_ConcurrentSingleWinner(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo, _ := newTestJobRepo(db, time.Now().UTC())
		locID := testutil.InsertLocation(t, db, testutil.MinneapolisPoint)

		jobs, err := repo.CreateBatch(ctx, []model.NewJobParams{testutil.NewJobParams(locID).Build()})
		require.NoError(t, err)
		jobID := jobs[0].ID

		const claimants = 5
		workers := make([]string, claimants)
		for i := range workers {
			workers[i] = testutil.InsertWorker(t, db, testutil.EligibleWorker(model.JobTypeSnowRemoval, testutil.MinneapolisPoint))
		}

		var (
			mu      sync.Mutex
			winners []string
		)
		runner := testutil.NewConcurrentTestRunner(t, db)
		funcs := make([]func() error, claimants)
		for i, w := range workers {
			funcs[i] = func() error {
				res, claimErr := repo.Claim(ctx, claimParams(jobID, w))
				if claimErr != nil {
					return claimErr
				}
				if res.Accepted() {
					mu.Lock()
					winners = append(winners, w)
					mu.Unlock()
				}
				return nil
			}
		}
		runner.AssertNoErrors(runner.RunConcurrent(funcs...))

		require.Len(t, winners, 1)
		assert.Equal(t, 1, testutil.CountAssignments(t, db, jobID))
		assert.Equal(t, string(model.JobStatusAssigned), testutil.JobStatus(t, db, jobID))

		var assigned string
		require.NoError(t, db.QueryRowContext(ctx, "SELECT worker_id FROM assignments WHERE job_id = $1", jobID).Scan(&assigned))
		assert.Equal(t, winners[0], assigned)
	})
}

func TestJobRepo_Claim_ExpiredJob(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		start := time.Now().UTC().Truncate(time.Second)
		repo, clock := newTestJobRepo(db, start)
		locID := testutil.InsertLocation(t, db, testutil.MinneapolisPoint)
		workerID := testutil.InsertWorker(t, db, testutil.EligibleWorker(model.JobTypeSnowRemoval, testutil.MinneapolisPoint))

		jobs, err := repo.CreateBatch(ctx, []model.NewJobParams{
			testutil.NewJobParams(locID).WithExpiresIn(time.Minute).Build(),
		})
		require.NoError(t, err)
		jobID := jobs[0].ID

		clock.AddTime(2 * time.Minute)

		res, err := repo.Claim(ctx, claimParams(jobID, workerID))
		require.NoError(t, err)
		assert.Equal(t, model.ClaimExpired, res.Outcome)
		assert.False(t, res.Accepted())
		assert.Equal(t, string(model.JobStatusExpired), testutil.JobStatus(t, db, jobID))

		res, err = repo.Claim(ctx, claimParams(jobID, workerID))
		require.NoError(t, err)
		assert.Equal(t, model.ClaimNotPending, res.Outcome)
		assert.Equal(t, 0, testutil.CountAssignments(t, db, jobID))
	})
}

func TestJobRepo_Claim_ExpiryBoundaryIsExpired(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		start := time.Now().UTC().Truncate(time.Second)
		repo, clock := newTestJobRepo(db, start)
		locID := testutil.InsertLocation(t, db, testutil.MinneapolisPoint)
		workerID := testutil.InsertWorker(t, db, testutil.EligibleWorker(model.JobTypeSnowRemoval, testutil.MinneapolisPoint))

		jobs, err := repo.CreateBatch(ctx, []model.NewJobParams{
			testutil.NewJobParams(locID).WithExpiresIn(time.Minute).Build(),
		})
		require.NoError(t, err)

		clock.SetTime(jobs[0].ExpiresAt)
		res, err := repo.Claim(ctx, claimParams(jobs[0].ID, workerID))
		require.NoError(t, err)
		assert.Equal(t, model.ClaimExpired, res.Outcome)
	})
}

func TestJobRepo_Claim_MissingAndAssigned(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo, _ := newTestJobRepo(db, time.Now().UTC())
		locID := testutil.InsertLocation(t, db, testutil.MinneapolisPoint)
		first := testutil.InsertWorker(t, db, testutil.EligibleWorker(model.JobTypeSnowRemoval, testutil.MinneapolisPoint))
		second := testutil.InsertWorker(t, db, testutil.EligibleWorker(model.JobTypeSnowRemoval, testutil.MinneapolisPoint))

		res, err := repo.Claim(ctx, claimParams("00000000-0000-4000-8000-000000000404", first))
		require.NoError(t, err)
		assert.Equal(t, model.ClaimNotFound, res.Outcome)

		jobs, err := repo.CreateBatch(ctx, []model.NewJobParams{testutil.NewJobParams(locID).Build()})
		require.NoError(t, err)

		res, err = repo.Claim(ctx, claimParams(jobs[0].ID, first))
		require.NoError(t, err)
		require.True(t, res.Accepted())
		require.NotNil(t, res.Assignment)
		assert.Equal(t, first, res.Assignment.WorkerID)

		res, err = repo.Claim(ctx, claimParams(jobs[0].ID, second))
		require.NoError(t, err)
		assert.Equal(t, model.ClaimNotPending, res.Outcome)
		assert.Nil(t, res.Assignment)
	})
}

func TestJobRepo_Claim_RequiresIDs(t *testing.T) {
	repo := NewJobRepo(nil, RepoConfig{})
	_, err := repo.Claim(context.Background(), core.ClaimParams{JobID: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
