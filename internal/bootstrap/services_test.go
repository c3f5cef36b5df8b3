package bootstrap

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobmatch/config"
	"github.com/target/jobmatch/internal/adapters/parser"
	"github.com/target/jobmatch/internal/adapters/vision"
	"github.com/target/jobmatch/internal/adapters/weather"
)

func TestErrorChannelCapacity(t *testing.T) {
	tests := []struct {
		name  string
		modes []config.ServiceMode
		want  int
	}{
		{
			name: "no services enabled",
			want: 0,
		},
		{
			name:  "http only",
			modes: []config.ServiceMode{config.ServiceModeHTTP},
			want:  1,
		},
		{
			name:  "reaper only",
			modes: []config.ServiceMode{config.ServiceModeReaper},
			want:  1,
		},
		{
			name:  "all services enabled",
			modes: config.ValidServiceModes(),
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := make(map[config.ServiceMode]bool, len(tt.modes))
			for _, mode := range tt.modes {
				enabled[mode] = true
			}

			if got := errorChannelCapacity(enabled); got != tt.want {
				t.Fatalf("errorChannelCapacity(%v) = %d, want %d", tt.modes, got, tt.want)
			}
		})
	}
}

func TestErrorChannelBufferSize(t *testing.T) {
	tests := []struct {
		name  string
		modes []config.ServiceMode
		want  int
	}{
		{
			name: "no services enabled",
			want: 1,
		},
		{
			name:  "http only",
			modes: []config.ServiceMode{config.ServiceModeHTTP},
			want:  2,
		},
		{
			name:  "all services enabled",
			modes: []config.ServiceMode{config.ServiceModeHTTP, config.ServiceModeReaper},
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := make(map[config.ServiceMode]bool, len(tt.modes))
			for _, mode := range tt.modes {
				enabled[mode] = true
			}

			if got := errorChannelBufferSize(enabled); got != tt.want {
				t.Fatalf("errorChannelBufferSize(%v) = %d, want %d", tt.modes, got, tt.want)
			}
		})
	}
}

func TestBuildCollaborators(t *testing.T) {
	t.Run("defaults to local backends and neutral weather", func(t *testing.T) {
		cfg := &config.AppConfig{}
		cfg.Weather.Sanitize()

		got, err := buildCollaborators(collaboratorDeps{Config: cfg, Logger: slog.Default()})

		require.NoError(t, err)
		assert.IsType(t, &vision.Mock{}, got.Vision)
		assert.IsType(t, &parser.Keyword{}, got.Parser)
		assert.IsType(t, weather.Disabled{}, got.Weather)
	})

	t.Run("http backends and live weather", func(t *testing.T) {
		cfg := &config.AppConfig{
			Vision: config.VisionConfig{Backend: config.BackendHTTP, URL: "http://vision.internal/analyze", Timeout: time.Second},
			Parser: config.ParserConfig{Backend: config.BackendHTTP, URL: "http://parser.internal/parse", Timeout: time.Second},
			Weather: config.WeatherConfig{
				APIKey: "test-key",
				URL:    "http://weather.internal/current",
			},
		}
		cfg.Weather.Sanitize()

		got, err := buildCollaborators(collaboratorDeps{Config: cfg, Logger: slog.Default()})

		require.NoError(t, err)
		assert.IsType(t, &vision.HTTPClient{}, got.Vision)
		assert.IsType(t, &parser.HTTPClient{}, got.Parser)
		assert.IsType(t, &weather.Cached{}, got.Weather)
	})

	t.Run("invalid weather field path fails", func(t *testing.T) {
		cfg := &config.AppConfig{
			Weather: config.WeatherConfig{
				APIKey:        "test-key",
				URL:           "http://weather.internal/current",
				ConditionPath: "weather[",
			},
		}

		_, err := buildCollaborators(collaboratorDeps{Config: cfg, Logger: slog.Default()})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "create weather provider")
	})
}

func TestGetEnabledServices(t *testing.T) {
	assert.Empty(t, GetEnabledServices(nil))
	assert.Equal(t, []string{"http", "reaper"}, GetEnabledServices(&config.AppConfig{Services: "reaper, http"}))
	assert.Equal(t, []string{"reaper"}, GetEnabledServices(&config.AppConfig{Services: "reaper"}))
	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "rules"}))

	require.Error(t, ValidateServiceConfig(&config.AppConfig{Services: ""}))
	require.NoError(t, ValidateServiceConfig(&config.AppConfig{Services: "http"}))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel(" WARN "))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
}
