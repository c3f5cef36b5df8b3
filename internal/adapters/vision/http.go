package vision

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/target/jobmatch/internal/adapters/httpjson"
	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
)

var _ core.VisionEstimator = (*HTTPClient)(nil)

// HTTPConfig configures the remote estimator.
type HTTPConfig struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// HTTPClient posts the image reference to a remote estimation service.
//
// Request:  {"image_url": "...", "job_type": "snow_removal"}
// Response: {"estimated_square_footage": 820, "severity": "heavy", "confidence": 0.8, "detected_tags": [...]}
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient builds an HTTPClient. Callers should pass a validated config.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("vision url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{url: url, client: hc}, nil
}

type analyzeRequest struct {
	ImageURL string        `json:"image_url"`
	JobType  model.JobType `json:"job_type"`
}

type analyzeResponse struct {
	SquareFootage *float64 `json:"estimated_square_footage"`
	Severity      *string  `json:"severity"`
	Confidence    *float64 `json:"confidence"`
	Tags          []string `json:"detected_tags"`
}

// Analyze implements core.VisionEstimator. Unknown severities in the response
// are dropped rather than failing the whole estimate.
func (c *HTTPClient) Analyze(ctx context.Context, imageURL string, jobType model.JobType) (model.VisionResult, error) {
	var resp analyzeResponse
	err := httpjson.PostJSON(ctx, c.client, "vision", c.url, analyzeRequest{
		ImageURL: imageURL,
		JobType:  jobType,
	}, &resp)
	if err != nil {
		return model.VisionResult{}, err
	}

	out := model.VisionResult{
		SquareFootage: resp.SquareFootage,
		Confidence:    resp.Confidence,
		Tags:          resp.Tags,
	}
	if resp.Severity != nil {
		var sev model.Severity
		if sev.UnmarshalText([]byte(*resp.Severity)) == nil {
			out.Severity = &sev
		}
	}
	return out, nil
}
