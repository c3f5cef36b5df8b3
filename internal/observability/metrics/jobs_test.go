package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/observability/statsd"
)

func TestEmitClaim(t *testing.T) {
	sink := statsd.NewMemorySink()
	EmitClaim(sink, ClaimMetric{JobType: "snow_removal", Outcome: "accepted", Duration: 3 * time.Millisecond})
	EmitClaim(sink, ClaimMetric{Outcome: "error", Err: apperrors.Unavailable("db down")})

	assert.Equal(t, int64(1), sink.Total("jobmatch.claim.attempt", map[string]string{"outcome": "accepted", "job_type": "snow_removal"}))
	assert.Equal(t, int64(1), sink.Total("jobmatch.claim.attempt", map[string]string{"error_class": "unavailable"}))
	assert.Len(t, sink.Samples(), 3)
}

func TestEmitReaper(t *testing.T) {
	sink := statsd.NewMemorySink()
	EmitReaper(sink, ReaperMetric{Expired: 4})
	EmitReaper(sink, ReaperMetric{})
	EmitReaper(sink, ReaperMetric{Err: errors.New("boom")})

	assert.Equal(t, int64(4), sink.Total("jobmatch.reaper.expired", nil))
	assert.Equal(t, int64(1), sink.Total("jobmatch.reaper.run", map[string]string{"result": ResultSuccess}))
	assert.Equal(t, int64(1), sink.Total("jobmatch.reaper.run", map[string]string{"result": ResultNoop}))
	assert.Equal(t, int64(1), sink.Total("jobmatch.reaper.run", map[string]string{"result": ResultError}))
}

func TestEmitPricingAndJobsCreated(t *testing.T) {
	sink := statsd.NewMemorySink()
	EmitPricing(sink, PricingMetric{JobType: "lawn_care", FinalPrice: 112.5, DemandMultiplier: 1.2, WeatherMultiplier: 1, DemandSource: "fallback"})
	EmitJobsCreated(sink, "lawn_care", 2)
	EmitJobsCreated(sink, "lawn_care", 0)

	assert.Equal(t, int64(1), sink.Total("jobmatch.pricing.demand_source", map[string]string{"source": "fallback"}))
	assert.Equal(t, int64(2), sink.Total("jobmatch.jobs.created", map[string]string{"job_type": "lawn_care"}))
}

func TestEmitters_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitClaim(nil, ClaimMetric{})
		EmitPricing(nil, PricingMetric{})
		EmitJobsCreated(nil, "x", 1)
		EmitReaper(nil, ReaperMetric{})
		EmitWeather(nil, WeatherMetric{})
	})
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "1"}
	cp := CloneTags(src)
	cp["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
