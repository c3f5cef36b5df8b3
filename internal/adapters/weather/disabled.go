package weather

import (
	"context"

	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/geo"
	"github.com/target/jobmatch/internal/observability/metrics"
	"github.com/target/jobmatch/internal/observability/statsd"
)

var _ core.WeatherProvider = (*Disabled)(nil)

// Disabled reports no conditions, which prices weather as neutral.
// It is wired when no API key is configured.
type Disabled struct {
	Metrics statsd.Sink
}

// Current implements core.WeatherProvider.
func (d Disabled) Current(context.Context, geo.Point) (*model.WeatherConditions, error) {
	metrics.EmitWeather(d.Metrics, metrics.WeatherMetric{Source: SourceDisabled, Result: metrics.ResultNoop})
	return nil, nil
}
