package pricing

import (
	"math"

	"github.com/target/jobmatch/internal/domain/model"
)

// Input is everything the engine needs to price one job.
type Input struct {
	JobType           model.JobType
	SquareFootage     *float64
	Severity          *model.Severity
	WeatherMultiplier float64
	DemandMultiplier  float64
}

// Engine prices jobs against a fixed set of tables.
type Engine struct {
	tables Tables
}

// NewEngine creates an Engine. A zero Tables value selects DefaultTables.
func NewEngine(tables Tables) *Engine {
	if tables.FlatRates == nil && tables.AreaRates == nil {
		tables = DefaultTables()
	}
	if tables.Severity == nil {
		tables.Severity = DefaultTables().Severity
	}
	return &Engine{tables: tables}
}

// Tables returns the engine's rate card.
func (e *Engine) Tables() Tables { return e.tables }

// Compute returns the full price breakdown for in.
// Final price is base × severity × weather × demand, floored at the type minimum
// and rounded to cents. Invalid multipliers count as 1.0.
func (e *Engine) Compute(in Input) model.PriceBreakdown {
	base := e.tables.base(in.JobType, in.SquareFootage)
	sev := e.tables.SeverityMultiplier(in.Severity)
	weather := sanitizeMultiplier(in.WeatherMultiplier)
	demand := sanitizeMultiplier(in.DemandMultiplier)

	total := sev * weather * demand
	final := math.Max(base*total, e.tables.Minimum(in.JobType))

	return model.PriceBreakdown{
		BasePrice:          Round2(base),
		SeverityMultiplier: Round2(sev),
		WeatherMultiplier:  Round2(weather),
		DemandMultiplier:   Round2(demand),
		TotalMultiplier:    Round2(total),
		FinalPrice:         Round2(final),
	}
}

// Round2 rounds v to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sanitizeMultiplier(m float64) float64 {
	if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		return 1.0
	}
	return m
}
