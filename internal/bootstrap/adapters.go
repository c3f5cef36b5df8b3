package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/target/jobmatch/config"
	"github.com/target/jobmatch/internal/adapters/parser"
	"github.com/target/jobmatch/internal/adapters/reaper"
	"github.com/target/jobmatch/internal/adapters/vision"
	"github.com/target/jobmatch/internal/adapters/weather"
	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/observability/statsd"
	"github.com/target/jobmatch/internal/service"
)

// collaboratorDeps groups what the pricing collaborators are built from.
type collaboratorDeps struct {
	Config *config.AppConfig
	// WeatherCache may be nil; lookups then always reach the provider.
	WeatherCache *core.WeatherCacheService
	Logger       *slog.Logger
	Metrics      statsd.Sink
}

// buildCollaborators selects the vision, parser and weather backends from
// config. Demand is filled in by the caller.
func buildCollaborators(deps collaboratorDeps) (service.JobCollaborators, error) {
	var out service.JobCollaborators
	cfg := deps.Config

	switch cfg.Vision.Backend {
	case config.BackendHTTP:
		client, err := vision.NewHTTPClient(vision.HTTPConfig{URL: cfg.Vision.URL, Timeout: cfg.Vision.Timeout})
		if err != nil {
			return out, fmt.Errorf("create vision client: %w", err)
		}
		out.Vision = client
	default:
		out.Vision = vision.NewMock()
	}

	switch cfg.Parser.Backend {
	case config.BackendHTTP:
		client, err := parser.NewHTTPClient(parser.HTTPConfig{URL: cfg.Parser.URL, Timeout: cfg.Parser.Timeout})
		if err != nil {
			return out, fmt.Errorf("create parser client: %w", err)
		}
		out.Parser = client
	default:
		out.Parser = parser.NewKeyword()
	}

	provider, err := buildWeatherProvider(deps)
	if err != nil {
		return out, err
	}
	out.Weather = provider

	deps.Logger.Info("pricing collaborators configured",
		"vision", cfg.Vision.Backend,
		"parser", cfg.Parser.Backend,
		"weather", cfg.Weather.Enabled(),
		"weather_cache", deps.WeatherCache != nil,
	)
	return out, nil
}

//nolint:ireturn // the disabled provider and the cached provider share only the port.
func buildWeatherProvider(deps collaboratorDeps) (core.WeatherProvider, error) {
	cfg := deps.Config.Weather
	if !cfg.Enabled() {
		return weather.Disabled{Metrics: deps.Metrics}, nil
	}

	live, err := weather.NewOpenWeather(weather.OpenWeatherConfig{
		URL:             cfg.URL,
		APIKey:          cfg.APIKey,
		ConditionPath:   cfg.ConditionPath,
		TemperaturePath: cfg.TemperaturePath,
		Timeout:         cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create weather provider: %w", err)
	}

	cached, err := weather.NewCached(weather.CachedOptions{
		Provider: live,
		Cache:    deps.WeatherCache,
		Logger:   deps.Logger,
		Metrics:  deps.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create weather cache: %w", err)
	}
	return cached, nil
}

// ReaperConfig contains configuration for the expiry reaper.
type ReaperConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Config  config.ReaperConfig
	Metrics statsd.Sink
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}

// ExpireOnce runs a single reaper sweep and returns the number of jobs expired.
func ExpireOnce(ctx context.Context, cfg ReaperConfig) (int64, error) {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return 0, fmt.Errorf("create reaper runner: %w", err)
	}
	return runner.RunOnce(ctx)
}
