package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/jobmatch/config"
	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/data"
	domainjob "github.com/target/jobmatch/internal/domain/job"
	"github.com/target/jobmatch/internal/observability/statsd"
	"github.com/target/jobmatch/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs          *service.JobService
	Demand        *service.DemandService
	Matching      *service.MatchingService
	Claims        *service.ClaimService
	Notifier      domainjob.Notifier
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// sink returns the metrics sink as an interface, keeping a nil client nil.
//
//nolint:ireturn // callers take statsd.Sink.
func (o ObservabilityContainer) sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	JobRepo      *data.JobRepo
	LocationRepo *data.LocationRepo
	WorkerRepo   *data.WorkerRepo
	// CacheRepo is Redis when enabled, otherwise a process-local LRU.
	CacheRepo core.CacheRepository
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obs := ObservabilityContainer{MetricsConfig: cfg.Metrics}
	if !cfg.Metrics.IsEnabled() {
		return obs
	}

	client, err := statsd.NewClient(statsd.Config{
		Address:    cfg.Metrics.StatsdAddress,
		Prefix:     cfg.Metrics.Prefix,
		Logger:     logger,
		GlobalTags: cfg.Metrics.GlobalTags(),
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return obs
	}
	obs.MetricsSink = client
	return obs
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(deps *ServiceDeps, logger *slog.Logger) (*serviceRepositories, error) {
	repos := &serviceRepositories{
		JobRepo: data.NewJobRepo(deps.DB, data.RepoConfig{
			Logger:           logger,
			ClaimLockTimeout: deps.Config.Matching.ClaimLockTimeout,
		}),
		LocationRepo: data.NewLocationRepo(deps.DB),
		WorkerRepo:   data.NewWorkerRepo(deps.DB),
	}
	if deps.RedisClient != nil {
		repos.CacheRepo = data.NewRedisCacheRepo(deps.RedisClient, deps.Config.Redis.KeyPrefix)
		return repos, nil
	}
	memory, err := data.NewMemoryCacheRepo(data.MemoryCacheConfig{Capacity: deps.Config.Weather.CacheSize})
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	repos.CacheRepo = memory
	return repos, nil
}

// NewServices wires repositories, collaborators and services from config.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies and config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability)
	repos, err := buildRepositories(deps, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	weatherCache := core.NewWeatherCacheService(core.WeatherCacheServiceOptions{
		Cache:  repos.CacheRepo,
		Config: core.WeatherCacheConfig{TTL: cfg.Weather.CacheTTL},
	})

	collaborators, err := buildCollaborators(collaboratorDeps{
		Config:       cfg,
		WeatherCache: weatherCache,
		Logger:       logger,
		Metrics:      observability.sink(),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build collaborators: %w", err)
	}

	demand := service.MustNewDemandService(service.DemandServiceOptions{
		Workers: repos.WorkerRepo,
		Config: service.DemandConfig{
			MaxSurge:           cfg.Pricing.MaxSurge,
			RadiusKm:           cfg.Pricing.DemandRadiusKm,
			LiveDemand:         cfg.Pricing.LiveDemand,
			LookupTimeout:      cfg.Pricing.DemandLookupTimeout,
			DefaultWorkerCount: cfg.Pricing.DefaultWorkerCount,
		},
		Logger: logger,
	})
	collaborators.Demand = demand

	jobs := service.MustNewJobService(service.JobServiceOptions{
		Repos: service.JobServiceRepos{
			Jobs:      repos.JobRepo,
			Locations: repos.LocationRepo,
		},
		Collaborators: collaborators,
		Config: service.JobServiceConfig{
			DefaultExpiry:  cfg.JobExpiry,
			MaxExpiry:      cfg.JobExpiryMax,
			WeatherTimeout: cfg.Weather.Timeout,
		},
		Logger:  logger,
		Metrics: observability.sink(),
	})

	notifier, err := domainjob.NewNotifier(domainjob.NotifierOptions{Listener: repos.JobRepo})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create notifier: %w", err)
	}

	matching := service.MustNewMatchingService(service.MatchingServiceOptions{
		Jobs:    repos.JobRepo,
		Workers: repos.WorkerRepo,
		Config: service.MatchingConfig{
			DefaultRadiusKm:  cfg.Matching.DefaultRadiusKm,
			MaxRadiusKm:      cfg.Matching.MaxRadiusKm,
			DefaultLimit:     cfg.Matching.DefaultLimit,
			MaxLimit:         cfg.Matching.MaxLimit,
			LongPollMax:      cfg.Matching.LongPollMax,
			LongPollInterval: cfg.Matching.LongPollInterval,
		},
		Notifier: notifier,
		Logger:   logger,
	})

	claims := service.MustNewClaimService(service.ClaimServiceOptions{
		Jobs:    repos.JobRepo,
		Workers: repos.WorkerRepo,
		Logger:  logger,
		Metrics: observability.sink(),
	})

	return ServiceContainer{
		Jobs:          jobs,
		Demand:        demand,
		Matching:      matching,
		Claims:        claims,
		Notifier:      notifier,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
		ErrCh:    deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			var reaperCfg config.ReaperConfig
			if deps.cfg.Config != nil {
				reaperCfg = deps.cfg.Config.Reaper
			}
			return RunReaper(ctx, ReaperConfig{
				DB:      deps.cfg.DB,
				Logger:  deps.logger,
				Config:  reaperCfg,
				Metrics: deps.cfg.Services.Observability.sink(),
			})
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		ctx:             serviceCtx,
		cancel:          cancel,
		errCh:           errCh,
		httpServer:      result.HTTPServer,
		httpStopTimeout: cfg.Config.HTTP.ShutdownTimeout,
		notifier:        cfg.Services.Notifier,
		metrics:         cfg.Services.Observability.MetricsSink,
		logger:          logger,
		backgrounds:     result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx             context.Context
	cancel          context.CancelFunc
	errCh           <-chan error
	httpServer      *http.Server
	httpStopTimeout time.Duration
	notifier        domainjob.Notifier
	metrics         *statsd.Client
	logger          *slog.Logger
	backgrounds     []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services. The service context
// is already cancelled here, so shutdown deadlines are derived from a detached
// context.
func gracefulStop(cfg shutdownConfig) error {
	var stopErr error
	if cfg.httpServer != nil {
		stopErr = ShutdownHTTPServer(ShutdownConfig{
			Context:  context.WithoutCancel(cfg.ctx),
			Server:   cfg.httpServer,
			Timeout:  cfg.httpStopTimeout,
			Notifier: cfg.notifier,
			Logger:   cfg.logger,
		})
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.metrics != nil {
		if err := cfg.metrics.Close(); err != nil {
			cfg.logger.Warn("closing metrics client failed", "error", err)
		}
	}

	return stopErr
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
