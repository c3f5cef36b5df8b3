// Package metrics emits the service's StatsD metrics with consistent names and tags.
package metrics

import (
	"time"

	obserrors "github.com/target/jobmatch/internal/observability/errors"
	"github.com/target/jobmatch/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultNoop     = "noop"
	ResultFallback = "fallback"
)

// ClaimMetric captures the outcome of one accept attempt.
type ClaimMetric struct {
	JobType  string
	Outcome  string
	Duration time.Duration
	Err      error
}

// EmitClaim emits jobmatch.claim.attempt and jobmatch.claim.duration.
func EmitClaim(sink statsd.Sink, in ClaimMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"outcome": in.Outcome}
	if in.JobType != "" {
		tags["job_type"] = in.JobType
	}
	addErrorClass(tags, in.Err)

	sink.Count("jobmatch.claim.attempt", 1, tags)
	if in.Duration > 0 {
		sink.Timing("jobmatch.claim.duration", in.Duration, CloneTags(tags))
	}
}

// PricingMetric captures one priced job.
type PricingMetric struct {
	JobType           string
	FinalPrice        float64
	DemandMultiplier  float64
	WeatherMultiplier float64
	// DemandSource is "live", "default" or "fallback".
	DemandSource string
}

// EmitPricing emits jobmatch.pricing.* gauges and the demand source counter.
func EmitPricing(sink statsd.Sink, in PricingMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"job_type": in.JobType}
	sink.Gauge("jobmatch.pricing.final_price", in.FinalPrice, tags)
	sink.Gauge("jobmatch.pricing.demand_multiplier", in.DemandMultiplier, CloneTags(tags))
	sink.Gauge("jobmatch.pricing.weather_multiplier", in.WeatherMultiplier, CloneTags(tags))
	if in.DemandSource != "" {
		sink.Count("jobmatch.pricing.demand_source", 1, map[string]string{
			"job_type": in.JobType,
			"source":   in.DemandSource,
		})
	}
}

// EmitJobsCreated counts jobs committed by one batch.
func EmitJobsCreated(sink statsd.Sink, jobType string, count int) {
	if sink == nil || count <= 0 {
		return
	}
	sink.Count("jobmatch.jobs.created", int64(count), map[string]string{"job_type": jobType})
}

// ReaperMetric captures one expiry sweep.
type ReaperMetric struct {
	Expired  int64
	Duration time.Duration
	Err      error
}

// EmitReaper emits jobmatch.reaper.run and jobmatch.reaper.expired.
func EmitReaper(sink statsd.Sink, in ReaperMetric) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	switch {
	case in.Err != nil:
		result = ResultError
	case in.Expired == 0:
		result = ResultNoop
	}
	tags := map[string]string{"result": result}
	addErrorClass(tags, in.Err)

	sink.Count("jobmatch.reaper.run", 1, tags)
	if in.Expired > 0 {
		sink.Count("jobmatch.reaper.expired", in.Expired, nil)
	}
	if in.Duration > 0 {
		sink.Timing("jobmatch.reaper.duration", in.Duration, CloneTags(tags))
	}
}

// WeatherMetric captures one weather lookup.
type WeatherMetric struct {
	// Source is "cache", "provider" or "disabled".
	Source   string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitWeather emits jobmatch.weather.lookup and its timing.
func EmitWeather(sink statsd.Sink, in WeatherMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"source": in.Source, "result": in.Result}
	addErrorClass(tags, in.Err)

	sink.Count("jobmatch.weather.lookup", 1, tags)
	if in.Duration > 0 {
		sink.Timing("jobmatch.weather.duration", in.Duration, CloneTags(tags))
	}
}

func addErrorClass(tags map[string]string, err error) {
	if err == nil {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
