// Package core defines the ports the jobmatch services depend on and the small
// orchestration helpers that sit directly on them.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/geo"
)

// CacheRepository defines the interface for caching operations.
// The core defines the port and the data layer provides implementations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// WeatherCacheService stores weather reports keyed by a coarse coordinate cell.
// Two-decimal rounding gives cells roughly one kilometre across, so nearby jobs
// share a report.
type WeatherCacheService struct {
	cache CacheRepository
	ttl   time.Duration
}

// WeatherCacheConfig holds configuration for weather caching.
type WeatherCacheConfig struct {
	TTL time.Duration `json:"ttl"`
}

// WeatherCacheServiceOptions bundles dependencies for NewWeatherCacheService.
type WeatherCacheServiceOptions struct {
	Cache  CacheRepository
	Config WeatherCacheConfig
}

// DefaultWeatherCacheConfig returns a WeatherCacheConfig with sensible defaults.
func DefaultWeatherCacheConfig() WeatherCacheConfig {
	return WeatherCacheConfig{TTL: 10 * time.Minute}
}

// NewWeatherCacheService creates a new WeatherCacheService.
func NewWeatherCacheService(opts WeatherCacheServiceOptions) *WeatherCacheService {
	ttl := opts.Config.TTL
	if ttl <= 0 {
		ttl = DefaultWeatherCacheConfig().TTL
	}
	return &WeatherCacheService{cache: opts.Cache, ttl: ttl}
}

// Get returns the cached report for point's cell, or nil on a miss.
func (s *WeatherCacheService) Get(ctx context.Context, point geo.Point) (*model.WeatherConditions, error) {
	raw, err := s.cache.Get(ctx, WeatherCellKey(point))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var wc model.WeatherConditions
	if err := json.Unmarshal(raw, &wc); err != nil {
		return nil, nil //nolint:nilerr // corrupt entries are misses and get overwritten
	}
	return &wc, nil
}

// Put stores the report for point's cell.
func (s *WeatherCacheService) Put(ctx context.Context, point geo.Point, wc *model.WeatherConditions) error {
	if wc == nil {
		return nil
	}
	raw, err := json.Marshal(wc)
	if err != nil {
		return fmt.Errorf("marshal weather: %w", err)
	}
	return s.cache.Set(ctx, WeatherCellKey(point), raw, s.ttl)
}

// Invalidate removes the cached report for point's cell.
func (s *WeatherCacheService) Invalidate(ctx context.Context, point geo.Point) error {
	_, err := s.cache.Delete(ctx, WeatherCellKey(point))
	return err
}

// WeatherCellKey generates a cache key for the cell containing point.
func WeatherCellKey(point geo.Point) string {
	lat := math.Round(point.Lat*100) / 100
	lng := math.Round(point.Lng*100) / 100
	// +0 folds -0.00 into 0.00 so both sides of the equator share a key.
	return fmt.Sprintf("weather:cell:%.2f,%.2f", lat+0, lng+0)
}
