package config

import (
	"strings"
	"time"
)

// Backend names accepted by VISION_BACKEND and PARSER_BACKEND.
const (
	BackendMock    = "mock"
	BackendKeyword = "keyword"
	BackendHTTP    = "http"
)

// WeatherConfig configures the current-conditions provider.
type WeatherConfig struct {
	// APIKey enables the provider. Without it weather is neutral (multiplier 1.0).
	APIKey  string        `env:"WEATHER_API_KEY"`
	URL     string        `env:"WEATHER_URL"     envDefault:"https://api.openweathermap.org/data/2.5/weather"`
	Timeout time.Duration `env:"WEATHER_TIMEOUT" envDefault:"5s"`

	// CacheTTL is how long conditions are cached per rounded coordinate cell.
	CacheTTL time.Duration `env:"WEATHER_CACHE_TTL" envDefault:"10m"`
	// CacheSize bounds the in-process cell cache used when Redis is disabled.
	CacheSize int `env:"WEATHER_CACHE_SIZE" envDefault:"4096"`

	// JMESPath expressions extracting fields from the provider response.
	ConditionPath   string `env:"WEATHER_CONDITION_PATH"   envDefault:"weather[0].main"`
	TemperaturePath string `env:"WEATHER_TEMPERATURE_PATH" envDefault:"main.temp"`
}

// Sanitize applies guardrails to weather configuration values.
func (w *WeatherConfig) Sanitize() {
	w.APIKey = strings.TrimSpace(w.APIKey)
	w.URL = strings.TrimSpace(w.URL)
	if w.Timeout <= 0 {
		w.Timeout = 5 * time.Second
	}
	if w.CacheTTL < 0 {
		w.CacheTTL = 0
	}
	if w.CacheSize <= 0 {
		w.CacheSize = 4096
	}
	if strings.TrimSpace(w.ConditionPath) == "" {
		w.ConditionPath = "weather[0].main"
	}
	if strings.TrimSpace(w.TemperaturePath) == "" {
		w.TemperaturePath = "main.temp"
	}
}

// Enabled reports whether a live weather provider should be used.
func (w *WeatherConfig) Enabled() bool {
	return w.APIKey != "" && w.URL != ""
}

// VisionConfig selects the image estimation backend.
type VisionConfig struct {
	Backend string        `env:"VISION_BACKEND" envDefault:"mock"`
	URL     string        `env:"VISION_URL"`
	Timeout time.Duration `env:"VISION_TIMEOUT" envDefault:"10s"`
}

// Sanitize falls back to the mock backend when the HTTP backend has no URL.
func (v *VisionConfig) Sanitize() {
	v.Backend = strings.ToLower(strings.TrimSpace(v.Backend))
	v.URL = strings.TrimSpace(v.URL)
	if v.Backend != BackendHTTP || v.URL == "" {
		v.Backend = BackendMock
	}
	if v.Timeout <= 0 {
		v.Timeout = 10 * time.Second
	}
}

// ParserConfig selects the natural-language job parser backend.
type ParserConfig struct {
	Backend string        `env:"PARSER_BACKEND" envDefault:"keyword"`
	URL     string        `env:"PARSER_URL"`
	Timeout time.Duration `env:"PARSER_TIMEOUT" envDefault:"10s"`
}

// Sanitize falls back to the keyword backend when the HTTP backend has no URL.
func (p *ParserConfig) Sanitize() {
	p.Backend = strings.ToLower(strings.TrimSpace(p.Backend))
	p.URL = strings.TrimSpace(p.URL)
	if p.Backend != BackendHTTP || p.URL == "" {
		p.Backend = BackendKeyword
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
}
