package pricing

// DefaultMaxSurge is the multiplier applied when no eligible workers are nearby.
const DefaultMaxSurge = 2.0

// demandSteps maps a minimum worker count to its multiplier, highest count first.
var demandSteps = []struct {
	minWorkers int
	multiplier float64
}{
	{10, 1.0},
	{5, 1.2},
	{3, 1.5},
	{1, 1.8},
}

// DemandMultiplier converts a count of available workers into a surge multiplier.
// It is non-increasing in count. maxSurge applies at zero workers and is raised
// to the one-worker step if configured lower, keeping the function monotonic.
func DemandMultiplier(workers int, maxSurge float64) float64 {
	for _, step := range demandSteps {
		if workers >= step.minWorkers {
			return step.multiplier
		}
	}
	floor := demandSteps[len(demandSteps)-1].multiplier
	if maxSurge < floor {
		return floor
	}
	return maxSurge
}
