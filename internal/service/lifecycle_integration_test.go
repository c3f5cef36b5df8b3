package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobmatch/config"
	"github.com/target/jobmatch/internal/data"
	"github.com/target/jobmatch/internal/data/testhelpers"
	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/observability/statsd"
	"github.com/target/jobmatch/internal/testutil"
)

// Claims and the reaper share one clock, so a job is either claimable or
// expired for both, never one of each.
func TestLifecycle_ClaimAndReaperAgreeOnExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		clock := data.NewFixedTimeProvider(time.Now().UTC().Truncate(time.Second))
		repos := testhelpers.NewRepos(db, clock)
		sink := statsd.NewMemorySink()

		claims := MustNewClaimService(ClaimServiceOptions{Jobs: repos.Jobs, Workers: repos.Workers, Metrics: sink})
		reaper := MustNewReaperService(ReaperServiceOptions{
			Repo:    repos.Jobs,
			Config:  config.ReaperConfig{Interval: time.Minute, BatchSize: 10},
			Metrics: sink,
		})

		locID := testutil.InsertLocation(t, db, testutil.MinneapolisPoint)
		workerID := testutil.InsertWorker(t, db, testutil.EligibleWorker(model.JobTypeSnowRemoval, testutil.MinneapolisPoint))
		jobs, err := repos.Jobs.CreateBatch(ctx, []model.NewJobParams{
			testutil.NewJobParams(locID).WithExpiresIn(10 * time.Minute).Build(),
			testutil.NewJobParams(locID).WithExpiresIn(10 * time.Minute).Build(),
			testutil.NewJobParams(locID).WithExpiresIn(time.Hour).Build(),
		})
		require.NoError(t, err)

		clock.AddTime(10 * time.Minute)

		ok, err := claims.Accept(ctx, jobs[0].ID, workerID)
		require.NoError(t, err)
		assert.False(t, ok, "a claim at the expiry instant loses")
		assert.Equal(t, string(model.JobStatusExpired), testutil.JobStatus(t, db, jobs[0].ID))

		expired, err := reaper.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), expired, "only the untouched short-lived job is left to sweep")

		ok, err = claims.Accept(ctx, jobs[2].ID, workerID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, testutil.CountAssignments(t, db, jobs[2].ID))

		stats, err := repos.Jobs.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.JobStats{Assigned: 1, Expired: 2}, *stats)
		assert.Equal(t, int64(1), sink.Total("jobmatch.reaper.expired", nil))
	})
}
