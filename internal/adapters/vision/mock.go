// Package vision provides VisionEstimator implementations.
package vision

import (
	"context"
	"slices"

	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
)

var _ core.VisionEstimator = (*Mock)(nil)

const mockConfidence = 0.7

type mockEstimate struct {
	sqft     float64
	severity model.Severity
	tags     []string
}

var mockEstimates = map[model.JobType]mockEstimate{
	model.JobTypeSnowRemoval: {sqft: 500, severity: model.SeverityModerate, tags: []string{"driveway", "sidewalk"}},
	model.JobTypeLawnCare:    {sqft: 750, severity: model.SeverityLight, tags: []string{"lawn", "grass"}},
	model.JobTypeHandyman:    {sqft: 200, severity: model.SeverityModerate, tags: []string{"general"}},
}

var defaultMockEstimate = mockEstimate{sqft: 400, severity: model.SeverityModerate, tags: []string{"general"}}

// Mock returns a fixed estimate per job type without looking at the image.
// It keeps local development and demos deterministic.
type Mock struct{}

// NewMock creates a Mock estimator.
func NewMock() *Mock { return &Mock{} }

// Analyze implements core.VisionEstimator.
func (m *Mock) Analyze(ctx context.Context, _ string, jobType model.JobType) (model.VisionResult, error) {
	if err := ctx.Err(); err != nil {
		return model.VisionResult{}, err
	}
	est, ok := mockEstimates[jobType]
	if !ok {
		est = defaultMockEstimate
	}
	sqft, severity, confidence := est.sqft, est.severity, mockConfidence
	return model.VisionResult{
		SquareFootage: &sqft,
		Severity:      &severity,
		Confidence:    &confidence,
		Tags:          slices.Clone(est.tags),
	}, nil
}
