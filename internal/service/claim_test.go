package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/mocks"
	"github.com/target/jobmatch/internal/observability/statsd"
	"go.uber.org/mock/gomock"
)

const (
	testJobID    = "3d6f1b2a-7c8e-4f90-a1b2-c3d4e5f60718"
	testWorkerID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

type claimFixture struct {
	jobs    *mocks.MockJobRepository
	workers *mocks.MockWorkerRepository
	sink    *statsd.MemorySink
	svc     *ClaimService
}

func newClaimFixture(t *testing.T) *claimFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &claimFixture{
		jobs:    mocks.NewMockJobRepository(ctrl),
		workers: mocks.NewMockWorkerRepository(ctrl),
		sink:    statsd.NewMemorySink(),
	}
	f.svc = MustNewClaimService(ClaimServiceOptions{Jobs: f.jobs, Workers: f.workers, Metrics: f.sink})
	return f
}

func (f *claimFixture) expectWorker() {
	f.workers.EXPECT().GetByID(gomock.Any(), testWorkerID).Return(&model.Worker{ID: testWorkerID}, nil).AnyTimes()
}

func TestNewClaimService(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := NewClaimService(ClaimServiceOptions{Workers: mocks.NewMockWorkerRepository(ctrl)})
	require.Error(t, err)
	_, err = NewClaimService(ClaimServiceOptions{Jobs: mocks.NewMockJobRepository(ctrl)})
	require.Error(t, err)
	assert.Panics(t, func() { MustNewClaimService(ClaimServiceOptions{}) })
}

func TestClaimService_Accept(t *testing.T) {
	ctx := context.Background()

	t.Run("validates ids", func(t *testing.T) {
		f := newClaimFixture(t)

		_, err := f.svc.Accept(ctx, "not-a-uuid", testWorkerID)
		require.Error(t, err)
		assert.Equal(t, "job_id", apperrors.GetField(err))

		_, err = f.svc.Accept(ctx, testJobID, "")
		require.Error(t, err)
		assert.Equal(t, "worker_id", apperrors.GetField(err))
	})

	t.Run("unknown worker is a validation error", func(t *testing.T) {
		f := newClaimFixture(t)
		f.workers.EXPECT().GetByID(gomock.Any(), testWorkerID).Return(nil, apperrors.NotFound("worker not found"))

		_, err := f.svc.Accept(ctx, testJobID, testWorkerID)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "worker_id", apperrors.GetField(err))
	})

	outcomes := []struct {
		outcome model.ClaimOutcome
		want    bool
	}{
		{model.ClaimAccepted, true},
		{model.ClaimNotFound, false},
		{model.ClaimNotPending, false},
		{model.ClaimExpired, false},
	}
	for _, tc := range outcomes {
		t.Run(string(tc.outcome), func(t *testing.T) {
			f := newClaimFixture(t)
			f.expectWorker()
			f.jobs.EXPECT().
				Claim(gomock.Any(), core.ClaimParams{JobID: testJobID, WorkerID: testWorkerID}).
				Return(&model.ClaimResult{Outcome: tc.outcome}, nil)

			ok, err := f.svc.Accept(ctx, testJobID, testWorkerID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
			assert.Equal(t, int64(1), f.sink.Total("jobmatch.claim.attempt", map[string]string{"outcome": string(tc.outcome)}))
		})
	}

	t.Run("store error", func(t *testing.T) {
		f := newClaimFixture(t)
		f.expectWorker()
		f.jobs.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, errors.New("serialization failure"))

		ok, err := f.svc.Accept(ctx, testJobID, testWorkerID)
		require.Error(t, err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "claim job")
		assert.Equal(t, int64(1), f.sink.Total("jobmatch.claim.attempt", map[string]string{"outcome": "error"}))
	})

	t.Run("concurrent claims produce one winner", func(t *testing.T) {
		f := newClaimFixture(t)
		f.workers.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(&model.Worker{}, nil).AnyTimes()

		var taken atomic.Bool
		f.jobs.EXPECT().Claim(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, core.ClaimParams) (*model.ClaimResult, error) {
				if taken.CompareAndSwap(false, true) {
					return &model.ClaimResult{Outcome: model.ClaimAccepted}, nil
				}
				return &model.ClaimResult{Outcome: model.ClaimNotPending}, nil
			}).Times(10)

		workers := []string{
			"00000000-0000-4000-8000-000000000001", "00000000-0000-4000-8000-000000000002",
			"00000000-0000-4000-8000-000000000003", "00000000-0000-4000-8000-000000000004",
			"00000000-0000-4000-8000-000000000005", "00000000-0000-4000-8000-000000000006",
			"00000000-0000-4000-8000-000000000007", "00000000-0000-4000-8000-000000000008",
			"00000000-0000-4000-8000-000000000009", "00000000-0000-4000-8000-000000000010",
		}
		var wins atomic.Int32
		var wg sync.WaitGroup
		for _, w := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := f.svc.Accept(ctx, testJobID, w)
				assert.NoError(t, err)
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})
}
