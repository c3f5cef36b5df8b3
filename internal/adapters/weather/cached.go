package weather

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/geo"
	"github.com/target/jobmatch/internal/observability/metrics"
	"github.com/target/jobmatch/internal/observability/statsd"
	"golang.org/x/sync/singleflight"
)

var _ core.WeatherProvider = (*Cached)(nil)

// Metric sources for weather lookups.
const (
	SourceCache    = "cache"
	SourceProvider = "provider"
	SourceDisabled = "disabled"
)

// CachedOptions groups dependencies for Cached.
type CachedOptions struct {
	Provider core.WeatherProvider      // Required
	Cache    *core.WeatherCacheService // Optional: without it every call reaches the provider
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// Cached serves conditions from the coordinate-cell cache and collapses
// concurrent misses for the same cell into one provider call.
type Cached struct {
	provider core.WeatherProvider
	cache    *core.WeatherCacheService
	group    singleflight.Group
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewCached wraps opts.Provider with caching.
func NewCached(opts CachedOptions) (*Cached, error) {
	if opts.Provider == nil {
		return nil, errors.New("weather provider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		provider: opts.Provider,
		cache:    opts.Cache,
		logger:   logger.With("component", "weather_cache"),
		metrics:  opts.Metrics,
	}, nil
}

// Current implements core.WeatherProvider. Cache failures degrade to a
// provider call; they never fail the lookup on their own.
func (c *Cached) Current(ctx context.Context, point geo.Point) (*model.WeatherConditions, error) {
	start := time.Now()
	if c.cache != nil {
		wc, err := c.cache.Get(ctx, point)
		if err != nil {
			c.logger.WarnContext(ctx, "weather cache read failed", "error", err)
		} else if wc != nil {
			metrics.EmitWeather(c.metrics, metrics.WeatherMetric{
				Source:   SourceCache,
				Result:   metrics.ResultSuccess,
				Duration: time.Since(start),
			})
			return wc, nil
		}
	}

	ch := c.group.DoChan(core.WeatherCellKey(point), func() (any, error) {
		// Detached from the first caller so its cancellation does not fail
		// the callers sharing this flight.
		fetchCtx := context.WithoutCancel(ctx)
		wc, err := c.provider.Current(fetchCtx, point)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := c.cache.Put(fetchCtx, point, wc); err != nil {
				c.logger.WarnContext(ctx, "weather cache write failed", "error", err)
			}
		}
		return wc, nil
	})

	select {
	case <-ctx.Done():
		metrics.EmitWeather(c.metrics, metrics.WeatherMetric{
			Source:   SourceProvider,
			Result:   metrics.ResultError,
			Duration: time.Since(start),
			Err:      ctx.Err(),
		})
		return nil, ctx.Err()
	case res := <-ch:
		result := metrics.ResultSuccess
		if res.Err != nil {
			result = metrics.ResultError
		}
		metrics.EmitWeather(c.metrics, metrics.WeatherMetric{
			Source:   SourceProvider,
			Result:   result,
			Duration: time.Since(start),
			Err:      res.Err,
		})
		if res.Err != nil {
			return nil, res.Err
		}
		wc, _ := res.Val.(*model.WeatherConditions)
		return wc, nil
	}
}
