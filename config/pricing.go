package config

import (
	"math"
	"time"
)

// PricingConfig tunes the demand side of the price computation.
type PricingConfig struct {
	// MaxSurge is the demand multiplier applied when no eligible worker is nearby.
	MaxSurge float64 `env:"PRICING_MAX_SURGE" envDefault:"2.0"`

	// LiveDemand counts nearby workers at creation time. When false every job is
	// priced with DefaultWorkerCount.
	LiveDemand bool `env:"PRICING_LIVE_DEMAND" envDefault:"true"`

	// DemandLookupTimeout bounds the live worker count.
	DemandLookupTimeout time.Duration `env:"PRICING_DEMAND_LOOKUP_TIMEOUT" envDefault:"2s"`

	// DefaultWorkerCount is used when live demand is off or the lookup fails.
	DefaultWorkerCount int `env:"PRICING_DEFAULT_WORKER_COUNT" envDefault:"10"`

	// DemandRadiusKm is the supply search radius around a job's location.
	DemandRadiusKm float64 `env:"PRICING_DEMAND_RADIUS_KM" envDefault:"10"`
}

// Sanitize applies guardrails to pricing configuration values.
func (p *PricingConfig) Sanitize() {
	if math.IsNaN(p.MaxSurge) || p.MaxSurge < 1 {
		p.MaxSurge = 1
	}
	if p.DemandLookupTimeout <= 0 {
		p.DemandLookupTimeout = 2 * time.Second
	}
	if p.DefaultWorkerCount < 0 {
		p.DefaultWorkerCount = 0
	}
	if math.IsNaN(p.DemandRadiusKm) || p.DemandRadiusKm <= 0 {
		p.DemandRadiusKm = 10
	}
}

// MatchingConfig tunes nearby-job lookups and claims.
type MatchingConfig struct {
	DefaultRadiusKm float64 `env:"MATCHING_DEFAULT_RADIUS_KM" envDefault:"10"`
	MaxRadiusKm     float64 `env:"MATCHING_MAX_RADIUS_KM"     envDefault:"50"`
	DefaultLimit    int     `env:"MATCHING_DEFAULT_LIMIT"     envDefault:"20"`
	MaxLimit        int     `env:"MATCHING_MAX_LIMIT"         envDefault:"100"`

	// ClaimLockTimeout bounds how long a claim waits on another claim's row lock.
	ClaimLockTimeout time.Duration `env:"MATCHING_CLAIM_LOCK_TIMEOUT" envDefault:"5s"`

	// LongPollMax caps the wait parameter of nearby-jobs requests.
	LongPollMax time.Duration `env:"MATCHING_LONG_POLL_MAX" envDefault:"30s"`

	// LongPollInterval is how often a waiting nearby-jobs request searches again
	// without a posting signal.
	LongPollInterval time.Duration `env:"MATCHING_LONG_POLL_INTERVAL" envDefault:"5s"`
}

// Sanitize applies guardrails to matching configuration values.
func (m *MatchingConfig) Sanitize() {
	if math.IsNaN(m.DefaultRadiusKm) || m.DefaultRadiusKm <= 0 {
		m.DefaultRadiusKm = 10
	}
	if math.IsNaN(m.MaxRadiusKm) || m.MaxRadiusKm < m.DefaultRadiusKm {
		m.MaxRadiusKm = m.DefaultRadiusKm
	}
	if m.MaxLimit < 1 {
		m.MaxLimit = 100
	}
	if m.DefaultLimit < 1 {
		m.DefaultLimit = 20
	}
	if m.DefaultLimit > m.MaxLimit {
		m.DefaultLimit = m.MaxLimit
	}
	if m.ClaimLockTimeout < 0 {
		m.ClaimLockTimeout = 0
	}
	if m.LongPollMax < 0 {
		m.LongPollMax = 0
	}
	if m.LongPollInterval <= 0 {
		m.LongPollInterval = 5 * time.Second
	}
}
