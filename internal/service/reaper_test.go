package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobmatch/config"
	"github.com/target/jobmatch/internal/observability/statsd"
)

// mockExpiryRepo returns the queued batch counts in order, then 0.
type mockExpiryRepo struct {
	calls      int
	batchSizes []int
	counts     []int64
	err        error
}

func (m *mockExpiryRepo) ExpireStale(ctx context.Context, batchSize int) (int64, error) {
	m.calls++
	m.batchSizes = append(m.batchSizes, batchSize)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.err != nil {
		return 0, m.err
	}
	if len(m.counts) == 0 {
		return 0, nil
	}
	n := m.counts[0]
	m.counts = m.counts[1:]
	return n, nil
}

func testReaperConfig() config.ReaperConfig {
	return config.ReaperConfig{Interval: time.Minute, BatchSize: 100}
}

func TestNewReaperService(t *testing.T) {
	t.Run("creates service with valid options", func(t *testing.T) {
		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   &mockExpiryRepo{},
			Config: testReaperConfig(),
			Logger: slog.Default(),
		})

		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("sanitizes config", func(t *testing.T) {
		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   &mockExpiryRepo{},
			Config: config.ReaperConfig{Interval: time.Millisecond, BatchSize: 0},
		})

		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, svc.config.Interval)
		assert.Equal(t, 1, svc.config.BatchSize)
	})

	t.Run("returns error when repo is nil", func(t *testing.T) {
		_, err := NewReaperService(ReaperServiceOptions{Config: testReaperConfig()})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ExpiryRepository is required")
	})

	t.Run("must panics when repo is nil", func(t *testing.T) {
		assert.Panics(t, func() { MustNewReaperService(ReaperServiceOptions{}) })
	})
}

func TestReaperService_RunOnce(t *testing.T) {
	t.Run("loops until a short batch", func(t *testing.T) {
		repo := &mockExpiryRepo{counts: []int64{100, 100, 7}}
		sink := statsd.NewMemorySink()
		svc := MustNewReaperService(ReaperServiceOptions{
			Repo:    repo,
			Config:  testReaperConfig(),
			Metrics: sink,
		})

		total, err := svc.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(207), total)
		assert.Equal(t, 3, repo.calls)
		assert.Equal(t, []int{100, 100, 100}, repo.batchSizes)
		assert.Equal(t, int64(1), sink.Total("jobmatch.reaper.run", map[string]string{"result": "success"}))
		assert.Equal(t, int64(207), sink.Total("jobmatch.reaper.expired", nil))
	})

	t.Run("nothing to expire is a noop", func(t *testing.T) {
		repo := &mockExpiryRepo{}
		sink := statsd.NewMemorySink()
		svc := MustNewReaperService(ReaperServiceOptions{
			Repo:    repo,
			Config:  testReaperConfig(),
			Metrics: sink,
		})

		total, err := svc.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Equal(t, 1, repo.calls)
		assert.Equal(t, int64(1), sink.Total("jobmatch.reaper.run", map[string]string{"result": "noop"}))
	})

	t.Run("store error is returned and counted", func(t *testing.T) {
		repo := &mockExpiryRepo{err: errors.New("connection reset")}
		sink := statsd.NewMemorySink()
		svc := MustNewReaperService(ReaperServiceOptions{
			Repo:    repo,
			Config:  testReaperConfig(),
			Metrics: sink,
		})

		_, err := svc.RunOnce(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "expire stale jobs")
		assert.Equal(t, int64(1), sink.Total("jobmatch.reaper.run", map[string]string{"result": "error"}))
	})

	t.Run("cancelled context is not counted as an error", func(t *testing.T) {
		repo := &mockExpiryRepo{}
		sink := statsd.NewMemorySink()
		svc := MustNewReaperService(ReaperServiceOptions{
			Repo:    repo,
			Config:  testReaperConfig(),
			Metrics: sink,
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.RunOnce(ctx)

		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, sink.Total("jobmatch.reaper.run", map[string]string{"result": "error"}))
	})
}

func TestReaperService_RunStopsOnCancel(t *testing.T) {
	repo := &mockExpiryRepo{}
	svc := MustNewReaperService(ReaperServiceOptions{
		Repo:   repo,
		Config: testReaperConfig(),
		Logger: slog.Default(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after cancellation")
	}
}

func TestIsContextCancellation(t *testing.T) {
	assert.True(t, isContextCancellation(context.Canceled))
	assert.True(t, isContextCancellation(context.DeadlineExceeded))
	assert.False(t, isContextCancellation(errors.New("boom")))
	assert.False(t, isContextCancellation(nil))
	assert.NoError(t, suppressContextCancellation(context.Canceled))
}
