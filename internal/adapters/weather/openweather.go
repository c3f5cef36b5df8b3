// Package weather provides WeatherProvider implementations.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/target/jobmatch/internal/adapters/httpjson"
	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/geo"
)

var _ core.WeatherProvider = (*OpenWeather)(nil)

// defaultTemperatureF stands in when a response carries no usable temperature.
const defaultTemperatureF = 50.0

// OpenWeatherConfig configures the current-conditions client.
type OpenWeatherConfig struct {
	URL    string
	APIKey string
	// ConditionPath and TemperaturePath are JMESPath expressions evaluated
	// against the decoded response body.
	ConditionPath   string
	TemperaturePath string
	Timeout         time.Duration
	Client          *http.Client
}

// OpenWeather queries an OpenWeatherMap-compatible endpoint in imperial units.
type OpenWeather struct {
	url             string
	apiKey          string
	conditionPath   string
	temperaturePath string
	client          *http.Client
}

// NewOpenWeather validates cfg and compiles its field paths.
func NewOpenWeather(cfg OpenWeatherConfig) (*OpenWeather, error) {
	base := strings.TrimSpace(cfg.URL)
	if base == "" {
		return nil, errors.New("weather url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("weather api key is required")
	}
	conditionPath := strings.TrimSpace(cfg.ConditionPath)
	if conditionPath == "" {
		conditionPath = "weather[0].main"
	}
	temperaturePath := strings.TrimSpace(cfg.TemperaturePath)
	if temperaturePath == "" {
		temperaturePath = "main.temp"
	}
	for _, expr := range []string{conditionPath, temperaturePath} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("invalid weather field path %q: %w", expr, err)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &OpenWeather{
		url:             base,
		apiKey:          strings.TrimSpace(cfg.APIKey),
		conditionPath:   conditionPath,
		temperaturePath: temperaturePath,
		client:          hc,
	}, nil
}

// Current implements core.WeatherProvider.
func (o *OpenWeather) Current(ctx context.Context, point geo.Point) (*model.WeatherConditions, error) {
	u, err := url.Parse(o.url)
	if err != nil {
		return nil, fmt.Errorf("parse weather url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(point.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(point.Lng, 'f', -1, 64))
	q.Set("appid", o.apiKey)
	q.Set("units", "imperial")
	u.RawQuery = q.Encode()

	var body any
	if err := httpjson.GetJSON(ctx, o.client, "weather", u.String(), &body); err != nil {
		return nil, err
	}
	return o.extract(body)
}

func (o *OpenWeather) extract(body any) (*model.WeatherConditions, error) {
	rawCondition, err := jmespath.Search(o.conditionPath, body)
	if err != nil {
		return nil, fmt.Errorf("evaluate condition path: %w", err)
	}
	rawTemp, err := jmespath.Search(o.temperaturePath, body)
	if err != nil {
		return nil, fmt.Errorf("evaluate temperature path: %w", err)
	}

	condition, _ := rawCondition.(string)
	temp, ok := rawTemp.(float64)
	if !ok {
		// The condition alone still prices snow and rain.
		temp = defaultTemperatureF
	}
	return &model.WeatherConditions{Condition: condition, TemperatureF: temp}, nil
}
