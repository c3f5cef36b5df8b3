// Package pricing computes job prices from size, severity, weather and demand.
// Everything here is pure: callers resolve weather and demand and pass the multipliers in.
package pricing

import "github.com/target/jobmatch/internal/domain/model"

// Tables holds the rate cards used by the engine.
type Tables struct {
	// AreaRates is the price per square foot for area-priced job types.
	AreaRates map[model.JobType]float64
	// FlatRates is the base price for types without a usable size estimate.
	FlatRates map[model.JobType]float64
	// Minimums is the floor applied to the final price.
	Minimums map[model.JobType]float64
	// Severity maps each severity level to its multiplier.
	Severity map[model.Severity]float64
	// DefaultFlatRate applies to types missing from FlatRates.
	DefaultFlatRate float64
	// DefaultMinimum applies to types missing from Minimums.
	DefaultMinimum float64
}

// DefaultTables returns the standard rate card.
func DefaultTables() Tables {
	return Tables{
		AreaRates: map[model.JobType]float64{
			model.JobTypeSnowRemoval: 0.20,
			model.JobTypeLawnCare:    0.15,
		},
		FlatRates: map[model.JobType]float64{
			model.JobTypeSnowRemoval: 40,
			model.JobTypeLawnCare:    35,
			model.JobTypeHandyman:    50,
			model.JobTypePlumbing:    75,
			model.JobTypeElectrical:  85,
			model.JobTypeCarpentry:   60,
			model.JobTypeOther:       50,
		},
		Minimums: map[model.JobType]float64{
			model.JobTypeSnowRemoval: 40,
			model.JobTypeLawnCare:    35,
			model.JobTypeHandyman:    50,
			model.JobTypePlumbing:    75,
			model.JobTypeElectrical:  85,
			model.JobTypeCarpentry:   60,
			model.JobTypeOther:       40,
		},
		Severity: map[model.Severity]float64{
			model.SeverityLight:    1.0,
			model.SeverityModerate: 1.3,
			model.SeverityHeavy:    1.7,
			model.SeveritySevere:   2.2,
		},
		DefaultFlatRate: 50,
		DefaultMinimum:  40,
	}
}

// IsAreaPriced reports whether t is priced per square foot.
func (t Tables) IsAreaPriced(jt model.JobType) bool {
	_, ok := t.AreaRates[jt]
	return ok
}

// Minimum returns the price floor for jt.
func (t Tables) Minimum(jt model.JobType) float64 {
	if v, ok := t.Minimums[jt]; ok {
		return v
	}
	return t.DefaultMinimum
}

// SeverityMultiplier returns the multiplier for s, or 1.0 when s is absent or unknown.
func (t Tables) SeverityMultiplier(s *model.Severity) float64 {
	if s == nil {
		return 1.0
	}
	if v, ok := t.Severity[*s]; ok && v > 0 {
		return v
	}
	return 1.0
}

func (t Tables) base(jt model.JobType, size *float64) float64 {
	if rate, ok := t.AreaRates[jt]; ok && size != nil && *size > 0 {
		return rate * *size
	}
	if v, ok := t.FlatRates[jt]; ok {
		return v
	}
	return t.DefaultFlatRate
}
