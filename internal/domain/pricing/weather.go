package pricing

import (
	"strings"

	"github.com/target/jobmatch/internal/domain/model"
)

// FreezingF is the temperature below which snow work gets the cold-weather bump.
const FreezingF = 32.0

// WeatherMultiplier returns the weather adjustment for jt under c.
// A nil report is neutral.
func WeatherMultiplier(jt model.JobType, c *model.WeatherConditions) float64 {
	if c == nil {
		return 1.0
	}
	condition := strings.ToLower(c.Condition)

	switch jt {
	case model.JobTypeSnowRemoval:
		if strings.Contains(condition, "snow") {
			return 1.5
		}
		if c.TemperatureF < FreezingF {
			return 1.3
		}
	case model.JobTypeLawnCare:
		if strings.Contains(condition, "rain") {
			return 1.2
		}
	}
	return 1.0
}
