package config

import (
	"os"
	"strings"
	"time"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Postgres and Redis connections
//   - http.go: HTTP server configuration
//   - services.go: Service mode and reaper configuration
//   - pricing.go: Pricing, matching and job expiry tuning
//   - collaborators.go: Weather, vision and parser backends
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, dev seeding).
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Services is a comma-delimited list of service modes to run.
	Services string `env:"SERVICES" envDefault:"http,reaper"`

	Pricing  PricingConfig
	Matching MatchingConfig

	// JobExpiry is the claim window given to new jobs when none is requested.
	JobExpiry time.Duration `env:"JOB_EXPIRY" envDefault:"60m"`
	// JobExpiryMax caps explicitly requested claim windows. Zero disables the cap.
	JobExpiryMax time.Duration `env:"JOB_EXPIRY_MAX" envDefault:"24h"`

	Weather WeatherConfig
	Vision  VisionConfig
	Parser  ParserConfig

	// Reaper configuration
	Reaper ReaperConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Postgres.Sanitize()
	c.HTTP.Sanitize()
	c.Pricing.Sanitize()
	c.Matching.Sanitize()
	c.Weather.Sanitize()
	c.Vision.Sanitize()
	c.Parser.Sanitize()
	c.Reaper.Sanitize()
	c.Observability.Sanitize()

	if c.JobExpiry < time.Minute {
		c.JobExpiry = time.Minute
	}
	if c.JobExpiryMax < 0 {
		c.JobExpiryMax = 0
	}
	if c.JobExpiryMax > 0 && c.JobExpiryMax < c.JobExpiry {
		c.JobExpiryMax = c.JobExpiry
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	c.detectDevMode()
}

// detectDevMode checks APP_ENV as a fallback for DEV.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsReaperEnabled returns true if the reaper service is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeReaper]
}
