package model

import (
	"fmt"
	"strings"
)

// Severity is a coarse four-level assessment of job condition.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Severity string

const (
	SeverityLight    Severity = "light"
	SeverityModerate Severity = "moderate"
	SeverityHeavy    Severity = "heavy"
	SeveritySevere   Severity = "severe"
)

// Valid returns true if the severity is one of the four levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLight, SeverityModerate, SeverityHeavy, SeveritySevere:
		return true
	}
	return false
}

func (s Severity) String() string { return string(s) }

// UnmarshalText implements encoding.TextUnmarshaler for Severity.
func (s *Severity) UnmarshalText(text []byte) error {
	v := Severity(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid Severity: %q", string(text))
	}
	*s = v
	return nil
}

// PriceBreakdown is the full record of how a job's price was derived.
type PriceBreakdown struct {
	BasePrice          float64 `json:"base_price"          db:"base_price"`
	SeverityMultiplier float64 `json:"severity_multiplier" db:"severity_multiplier"`
	WeatherMultiplier  float64 `json:"weather_multiplier"  db:"weather_multiplier"`
	DemandMultiplier   float64 `json:"demand_multiplier"   db:"demand_multiplier"`
	TotalMultiplier    float64 `json:"total_multiplier"    db:"total_multiplier"`
	FinalPrice         float64 `json:"final_price"         db:"final_price"`
}

// WeatherConditions is the subset of a weather report that affects pricing.
type WeatherConditions struct {
	Condition    string  `json:"condition"`
	TemperatureF float64 `json:"temperature_f"`
}

// VisionResult is the optional evidence an image estimator produced.
// Every field may be absent; absence means "no evidence", not an error.
type VisionResult struct {
	SquareFootage *float64  `json:"estimated_square_footage,omitempty"`
	Severity      *Severity `json:"severity,omitempty"`
	Confidence    *float64  `json:"confidence,omitempty"`
	Tags          []string  `json:"detected_tags,omitempty"`
}

// Empty reports whether the result carries no usable evidence.
func (v VisionResult) Empty() bool {
	return v.SquareFootage == nil && v.Severity == nil && v.Confidence == nil && len(v.Tags) == 0
}

// ParsedJob is one job extracted from free-form customer text.
type ParsedJob struct {
	Type        JobType     `json:"job_type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    JobPriority `json:"priority"`
}

// JobCard is the read projection a worker sees in the nearby feed.
type JobCard struct {
	ID                     string    `json:"id"`
	Title                  string    `json:"title"`
	Type                   JobType   `json:"job_type"`
	FinalPrice             float64   `json:"final_price"`
	DistanceKm             float64   `json:"distance_km"`
	ExpiresInMinutes       int       `json:"expires_in_minutes"`
	Severity               *Severity `json:"severity,omitempty"`
	EstimatedSquareFootage *float64  `json:"estimated_square_footage,omitempty"`
	City                   string    `json:"location_city"`
	State                  string    `json:"location_state"`
	ImageURL               string    `json:"image_url,omitempty"`
}
