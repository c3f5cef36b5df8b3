package statsd_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobmatch/internal/observability/metrics"
	"github.com/target/jobmatch/internal/observability/statsd"
)

func listenUDP(t *testing.T) net.PacketConn {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	return pc
}

func readLines(t *testing.T, pc net.PacketConn, n int) []string {
	t.Helper()
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	lines := make([]string, 0, n)
	for range n {
		size, _, err := pc.ReadFrom(buf)
		require.NoError(t, err)
		lines = append(lines, string(buf[:size]))
	}
	return lines
}

func newWireClient(t *testing.T, pc net.PacketConn, prefix string) *statsd.Client {
	t.Helper()
	client, err := statsd.NewClient(statsd.Config{
		Address:    pc.LocalAddr().String(),
		Prefix:     prefix,
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_ClaimMetricsOnTheWire(t *testing.T) {
	pc := listenUDP(t)
	client := newWireClient(t, pc, "jobmatch")

	metrics.EmitClaim(client, metrics.ClaimMetric{
		JobType:  "snow_removal",
		Outcome:  "won",
		Duration: 4 * time.Millisecond,
	})

	assert.Equal(t, []string{
		"jobmatch.claim.attempt:1|c|#env:test,job_type:snow_removal,outcome:won",
		"jobmatch.claim.duration:4|ms|#env:test,job_type:snow_removal,outcome:won",
	}, readLines(t, pc, 2))
}

func TestClient_ReaperMetricsOnTheWire(t *testing.T) {
	pc := listenUDP(t)
	client := newWireClient(t, pc, "")

	metrics.EmitReaper(client, metrics.ReaperMetric{Expired: 3})
	metrics.EmitReaper(client, metrics.ReaperMetric{Err: context.DeadlineExceeded})

	lines := readLines(t, pc, 3)
	assert.Equal(t, "jobmatch.reaper.run:1|c|#env:test,result:success", lines[0])
	assert.Equal(t, "jobmatch.reaper.expired:3|c|#env:test", lines[1])
	assert.Contains(t, lines[2], "jobmatch.reaper.run:1|c|#env:test,error_class:")
	assert.Contains(t, lines[2], ",result:error")
}

func TestClient_PricingGaugesOnTheWire(t *testing.T) {
	pc := listenUDP(t)
	client := newWireClient(t, pc, "acme")

	metrics.EmitPricing(client, metrics.PricingMetric{
		JobType:           "lawn_care",
		FinalPrice:        918,
		DemandMultiplier:  1.8,
		WeatherMultiplier: 1.5,
		DemandSource:      "fallback",
	})

	assert.Equal(t, []string{
		"acme.jobmatch.pricing.final_price:918|g|#env:test,job_type:lawn_care",
		"acme.jobmatch.pricing.demand_multiplier:1.8|g|#env:test,job_type:lawn_care",
		"acme.jobmatch.pricing.weather_multiplier:1.5|g|#env:test,job_type:lawn_care",
		"acme.jobmatch.pricing.demand_source:1|c|#env:test,job_type:lawn_care,source:fallback",
	}, readLines(t, pc, 4))
}
