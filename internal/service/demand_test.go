package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/geo"
	"github.com/target/jobmatch/internal/mocks"
	"go.uber.org/mock/gomock"
)

// failingIndex fails every lookup with err.
type failingIndex struct{ err error }

func (f failingIndex) WithinRadius(context.Context, geo.Point, float64) ([]geo.Hit, error) {
	return nil, f.err
}

func (failingIndex) Distance(a, b geo.Point) float64 { return geo.Haversine(a, b) }

// stalledIndex blocks until the lookup context ends.
type stalledIndex struct{}

func (stalledIndex) WithinRadius(ctx context.Context, _ geo.Point, _ float64) ([]geo.Hit, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledIndex) Distance(a, b geo.Point) float64 { return geo.Haversine(a, b) }

func newDemandService(t *testing.T, index geo.Index, cfg DemandConfig) *DemandService {
	t.Helper()
	workers := mocks.NewMockWorkerRepository(gomock.NewController(t))
	workers.EXPECT().SupplyIndex(gomock.Any()).Return(index).AnyTimes()
	return MustNewDemandService(DemandServiceOptions{Workers: workers, Config: cfg})
}

func liveDemandConfig() DemandConfig {
	return DemandConfig{
		MaxSurge:           2.0,
		RadiusKm:           10,
		LiveDemand:         true,
		LookupTimeout:      100 * time.Millisecond,
		DefaultWorkerCount: 10,
	}
}

// supplyOf places n workers a few hundred metres apart north of testLocationPoint.
func supplyOf(n int) *geo.MemoryIndex {
	idx := geo.NewMemoryIndex()
	for i := range n {
		idx.Put(fmt.Sprintf("w-%02d", i), geo.Point{
			Lat: testLocationPoint.Lat + float64(i+1)*0.003,
			Lng: testLocationPoint.Lng,
		})
	}
	return idx
}

func TestNewDemandService(t *testing.T) {
	t.Run("requires worker repository", func(t *testing.T) {
		_, err := NewDemandService(DemandServiceOptions{})
		require.Error(t, err)
		assert.Panics(t, func() { MustNewDemandService(DemandServiceOptions{}) })
	})

	t.Run("applies defaults", func(t *testing.T) {
		svc := newDemandService(t, geo.NewMemoryIndex(), DemandConfig{MaxSurge: 0.5, DefaultWorkerCount: -3})
		assert.InDelta(t, 2.0, svc.config.MaxSurge, 0.0001)
		assert.InDelta(t, 10.0, svc.config.RadiusKm, 0.0001)
		assert.Equal(t, 2*time.Second, svc.config.LookupTimeout)
		assert.Zero(t, svc.config.DefaultWorkerCount)
	})
}

func TestDemandService_EligibleWorkerIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("nearest first within radius", func(t *testing.T) {
		idx := supplyOf(3)
		idx.Put("w-far", geo.Point{Lat: testLocationPoint.Lat + 1, Lng: testLocationPoint.Lng})
		svc := newDemandService(t, idx, liveDemandConfig())

		ids, err := svc.EligibleWorkerIDs(ctx, testLocationPoint, 10, model.JobTypeSnowRemoval)
		require.NoError(t, err)
		assert.Equal(t, []string{"w-00", "w-01", "w-02"}, ids)

		n, err := svc.CountAvailableWorkers(ctx, testLocationPoint, 0, model.JobTypeSnowRemoval)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("validates input", func(t *testing.T) {
		svc := newDemandService(t, geo.NewMemoryIndex(), liveDemandConfig())

		_, err := svc.EligibleWorkerIDs(ctx, testLocationPoint, 10, model.JobType("gardening"))
		require.Error(t, err)
		assert.Equal(t, "job_type", apperrors.GetField(err))

		_, err = svc.EligibleWorkerIDs(ctx, geo.Point{Lat: 91}, 10, model.JobTypeLawnCare)
		require.Error(t, err)
		assert.Equal(t, "point", apperrors.GetField(err))
	})

	t.Run("wraps index errors", func(t *testing.T) {
		svc := newDemandService(t, failingIndex{err: errors.New("db down")}, liveDemandConfig())

		_, err := svc.EligibleWorkerIDs(ctx, testLocationPoint, 10, model.JobTypeLawnCare)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "count available workers")
	})
}

func TestDemandService_DemandMultiplier(t *testing.T) {
	cases := []struct {
		workers int
		want    float64
	}{
		{0, 2.0},
		{1, 1.8},
		{2, 1.8},
		{3, 1.5},
		{4, 1.5},
		{5, 1.2},
		{9, 1.2},
		{10, 1.0},
		{25, 1.0},
	}

	prev := 0.0
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d workers", tc.workers), func(t *testing.T) {
			svc := newDemandService(t, supplyOf(tc.workers), DemandConfig{MaxSurge: 2.0, RadiusKm: 50})

			got, err := svc.DemandMultiplier(context.Background(), testLocationPoint, 0, model.JobTypeHandyman)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 0.0001)
		})
	}

	// More supply never raises the multiplier.
	for i := len(cases) - 1; i >= 0; i-- {
		assert.GreaterOrEqual(t, cases[i].want, prev)
		prev = cases[i].want
	}
}

func TestDemandService_Quote(t *testing.T) {
	ctx := context.Background()

	t.Run("live count", func(t *testing.T) {
		svc := newDemandService(t, supplyOf(4), liveDemandConfig())

		q := svc.Quote(ctx, testLocationPoint, model.JobTypeSnowRemoval)
		assert.Equal(t, DemandSourceLive, q.Source)
		assert.Equal(t, 4, q.Workers)
		assert.InDelta(t, 1.5, q.Multiplier, 0.0001)
		assert.Len(t, q.Recipients, 4)
	})

	t.Run("lookup error falls back to default count", func(t *testing.T) {
		svc := newDemandService(t, failingIndex{err: errors.New("db down")}, liveDemandConfig())

		q := svc.Quote(ctx, testLocationPoint, model.JobTypeSnowRemoval)
		assert.Equal(t, DemandSourceFallback, q.Source)
		assert.Equal(t, 10, q.Workers)
		assert.InDelta(t, 1.0, q.Multiplier, 0.0001)
		assert.Empty(t, q.Recipients)
	})

	t.Run("lookup timeout falls back to default count", func(t *testing.T) {
		svc := newDemandService(t, stalledIndex{}, liveDemandConfig())

		start := time.Now()
		q := svc.Quote(ctx, testLocationPoint, model.JobTypeLawnCare)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, DemandSourceFallback, q.Source)
		assert.Equal(t, 10, q.Workers)
	})

	t.Run("live demand disabled uses default count but keeps recipients", func(t *testing.T) {
		cfg := liveDemandConfig()
		cfg.LiveDemand = false
		cfg.DefaultWorkerCount = 3
		svc := newDemandService(t, supplyOf(1), cfg)

		q := svc.Quote(ctx, testLocationPoint, model.JobTypeLawnCare)
		assert.Equal(t, DemandSourceDefault, q.Source)
		assert.Equal(t, 3, q.Workers)
		assert.InDelta(t, 1.5, q.Multiplier, 0.0001)
		assert.Equal(t, []string{"w-00"}, q.Recipients)
	})

	t.Run("live demand disabled still bounds the recipient lookup", func(t *testing.T) {
		cfg := liveDemandConfig()
		cfg.LiveDemand = false
		cfg.DefaultWorkerCount = 3

		stalled := newDemandService(t, stalledIndex{}, cfg)
		start := time.Now()
		q := stalled.Quote(ctx, testLocationPoint, model.JobTypeSnowRemoval)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, DemandSourceDefault, q.Source)
		assert.InDelta(t, 1.5, q.Multiplier, 0.0001)
		assert.Empty(t, q.Recipients)

		failing := newDemandService(t, failingIndex{err: errors.New("db down")}, cfg)
		q = failing.Quote(ctx, testLocationPoint, model.JobTypeSnowRemoval)
		assert.Equal(t, DemandSourceDefault, q.Source)
		assert.Equal(t, 3, q.Workers)
		assert.Empty(t, q.Recipients)
	})

	t.Run("default quote", func(t *testing.T) {
		cfg := liveDemandConfig()
		cfg.DefaultWorkerCount = 0
		svc := newDemandService(t, geo.NewMemoryIndex(), cfg)

		q := svc.DefaultQuote()
		assert.Equal(t, DemandSourceDefault, q.Source)
		assert.InDelta(t, 2.0, q.Multiplier, 0.0001)
	})
}
