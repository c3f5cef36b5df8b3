package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemandMultiplier_Steps(t *testing.T) {
	tests := []struct {
		workers int
		want    float64
	}{
		{0, 2.0},
		{1, 1.8},
		{2, 1.8},
		{3, 1.5},
		{4, 1.5},
		{5, 1.2},
		{9, 1.2},
		{10, 1.0},
		{250, 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DemandMultiplier(tt.workers, DefaultMaxSurge), "workers=%d", tt.workers)
	}
}

func TestDemandMultiplier_NonIncreasing(t *testing.T) {
	for _, surge := range []float64{1.0, 2.0, 3.5} {
		prev := DemandMultiplier(0, surge)
		for n := 1; n <= 20; n++ {
			cur := DemandMultiplier(n, surge)
			assert.LessOrEqual(t, cur, prev, "surge=%v n=%d", surge, n)
			prev = cur
		}
	}
}

func TestDemandMultiplier_ConfiguredSurge(t *testing.T) {
	assert.Equal(t, 3.0, DemandMultiplier(0, 3.0))
	assert.Equal(t, 1.8, DemandMultiplier(0, 1.1), "surge below the one-worker step is raised")
}
