package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/domain/pricing"
	"github.com/target/jobmatch/internal/geo"
	"github.com/target/jobmatch/internal/observability/statsd"
	"go.uber.org/mock/gomock"
)

const sampleResponse = `{
  "weather": [{"id": 601, "main": "Snow", "description": "snow"}],
  "main": {"temp": 28.4, "humidity": 90},
  "name": "Minneapolis"
}`

func TestNewOpenWeather(t *testing.T) {
	t.Run("requires url and key", func(t *testing.T) {
		_, err := NewOpenWeather(OpenWeatherConfig{APIKey: "k"})
		require.Error(t, err)
		_, err = NewOpenWeather(OpenWeatherConfig{URL: "http://example.test"})
		require.Error(t, err)
	})

	t.Run("rejects invalid field path", func(t *testing.T) {
		_, err := NewOpenWeather(OpenWeatherConfig{
			URL:           "http://example.test",
			APIKey:        "k",
			ConditionPath: "weather[0",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid weather field path")
	})
}

func TestOpenWeather_Current(t *testing.T) {
	t.Run("extracts condition and temperature", func(t *testing.T) {
		var gotQuery map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			gotQuery = map[string]string{
				"lat":   q.Get("lat"),
				"lon":   q.Get("lon"),
				"appid": q.Get("appid"),
				"units": q.Get("units"),
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(sampleResponse))
		}))
		defer srv.Close()

		client, err := NewOpenWeather(OpenWeatherConfig{URL: srv.URL, APIKey: "secret"})
		require.NoError(t, err)

		wc, err := client.Current(context.Background(), geo.Point{Lat: 44.98, Lng: -93.27})
		require.NoError(t, err)
		require.NotNil(t, wc)
		assert.Equal(t, "Snow", wc.Condition)
		assert.InDelta(t, 28.4, wc.TemperatureF, 0.001)
		assert.Equal(t, map[string]string{
			"lat":   "44.98",
			"lon":   "-93.27",
			"appid": "secret",
			"units": "imperial",
		}, gotQuery)
	})

	t.Run("custom paths", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"current":{"summary":"Rain","tempF":55}}`))
		}))
		defer srv.Close()

		client, err := NewOpenWeather(OpenWeatherConfig{
			URL:             srv.URL,
			APIKey:          "k",
			ConditionPath:   "current.summary",
			TemperaturePath: "current.tempF",
		})
		require.NoError(t, err)

		wc, err := client.Current(context.Background(), geo.Point{})
		require.NoError(t, err)
		assert.Equal(t, "Rain", wc.Condition)
		assert.InDelta(t, 55.0, wc.TemperatureF, 0.001)
	})

	t.Run("missing temperature defaults to mild", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"weather":[{"main":"Snow"}]}`))
		}))
		defer srv.Close()

		client, err := NewOpenWeather(OpenWeatherConfig{URL: srv.URL, APIKey: "k"})
		require.NoError(t, err)

		wc, err := client.Current(context.Background(), geo.Point{})
		require.NoError(t, err)
		assert.Equal(t, "Snow", wc.Condition)
		assert.InDelta(t, defaultTemperatureF, wc.TemperatureF, 0.001)
		assert.InDelta(t, 1.5, pricing.WeatherMultiplier(model.JobTypeSnowRemoval, wc), 0.001)
	})

	t.Run("non-numeric temperature defaults to mild", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"weather":[{"main":"Clear"}],"main":{"temp":"n/a"}}`))
		}))
		defer srv.Close()

		client, err := NewOpenWeather(OpenWeatherConfig{URL: srv.URL, APIKey: "k"})
		require.NoError(t, err)

		wc, err := client.Current(context.Background(), geo.Point{})
		require.NoError(t, err)
		assert.InDelta(t, 50.0, wc.TemperatureF, 0.001)
		assert.InDelta(t, 1.0, pricing.WeatherMultiplier(model.JobTypeSnowRemoval, wc), 0.001)
	})

	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
		}))
		defer srv.Close()

		client, err := NewOpenWeather(OpenWeatherConfig{URL: srv.URL, APIKey: "k"})
		require.NoError(t, err)

		_, err = client.Current(context.Background(), geo.Point{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

// memoryCache is a CacheRepository over a map.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string][]byte{}} }

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryCache) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	delete(m.data, key)
	return ok, nil
}

func (m *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *memoryCache) Health(context.Context) error { return nil }

// countingProvider returns a fixed report and counts calls.
type countingProvider struct {
	calls atomic.Int32
	delay time.Duration
	wc    *model.WeatherConditions
	err   error
}

func (p *countingProvider) Current(ctx context.Context, _ geo.Point) (*model.WeatherConditions, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.wc, p.err
}

func TestNewCached(t *testing.T) {
	_, err := NewCached(CachedOptions{})
	require.Error(t, err)
}

func TestCached_Current(t *testing.T) {
	point := geo.Point{Lat: 44.981, Lng: -93.268}

	t.Run("second lookup in the same cell hits the cache", func(t *testing.T) {
		provider := &countingProvider{wc: &model.WeatherConditions{Condition: "Snow", TemperatureF: 20}}
		sink := statsd.NewMemorySink()
		cached, err := NewCached(CachedOptions{
			Provider: provider,
			Cache:    core.NewWeatherCacheService(core.WeatherCacheServiceOptions{Cache: newMemoryCache()}),
			Metrics:  sink,
		})
		require.NoError(t, err)

		first, err := cached.Current(context.Background(), point)
		require.NoError(t, err)
		second, err := cached.Current(context.Background(), geo.Point{Lat: 44.979, Lng: -93.271})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), provider.calls.Load())
		assert.Equal(t, int64(1), sink.Total("jobmatch.weather.lookup", map[string]string{"source": "cache"}))
		assert.Equal(t, int64(1), sink.Total("jobmatch.weather.lookup", map[string]string{"source": "provider"}))
	})

	t.Run("concurrent misses share one provider call", func(t *testing.T) {
		provider := &countingProvider{
			delay: 50 * time.Millisecond,
			wc:    &model.WeatherConditions{Condition: "Clear", TemperatureF: 70},
		}
		cached, err := NewCached(CachedOptions{Provider: provider})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				wc, err := cached.Current(context.Background(), point)
				assert.NoError(t, err)
				assert.Equal(t, "Clear", wc.Condition)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), provider.calls.Load())
	})

	t.Run("cache read failure falls through to provider", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := core.NewMockCacheRepository(ctrl)
		cache.EXPECT().Get(gomock.Any(), core.WeatherCellKey(point)).Return(nil, errors.New("redis down"))
		cache.EXPECT().Set(gomock.Any(), core.WeatherCellKey(point), gomock.Any(), 10*time.Minute).Return(nil)

		provider := &countingProvider{wc: &model.WeatherConditions{Condition: "Rain", TemperatureF: 50}}
		cached, err := NewCached(CachedOptions{
			Provider: provider,
			Cache:    core.NewWeatherCacheService(core.WeatherCacheServiceOptions{Cache: cache}),
		})
		require.NoError(t, err)

		wc, err := cached.Current(context.Background(), point)
		require.NoError(t, err)
		assert.Equal(t, "Rain", wc.Condition)
	})

	t.Run("provider error is returned and not cached", func(t *testing.T) {
		store := newMemoryCache()
		provider := &countingProvider{err: errors.New("upstream 503")}
		sink := statsd.NewMemorySink()
		cached, err := NewCached(CachedOptions{
			Provider: provider,
			Cache:    core.NewWeatherCacheService(core.WeatherCacheServiceOptions{Cache: store}),
			Metrics:  sink,
		})
		require.NoError(t, err)

		_, err = cached.Current(context.Background(), point)
		require.Error(t, err)
		assert.Empty(t, store.data)
		assert.Equal(t, int64(1), sink.Total("jobmatch.weather.lookup", map[string]string{"result": "error"}))
	})

	t.Run("caller deadline wins over a slow provider", func(t *testing.T) {
		provider := &countingProvider{delay: time.Second, wc: &model.WeatherConditions{}}
		cached, err := NewCached(CachedOptions{Provider: provider})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err = cached.Current(ctx, point)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestDisabled_Current(t *testing.T) {
	sink := statsd.NewMemorySink()
	wc, err := Disabled{Metrics: sink}.Current(context.Background(), geo.Point{Lat: 1, Lng: 2})

	require.NoError(t, err)
	assert.Nil(t, wc)
	assert.Equal(t, int64(1), sink.Total("jobmatch.weather.lookup", map[string]string{"source": "disabled"}))
}
