package parser

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

var _ core.JobParser = (*HTTPClient)(nil)

// HTTPConfig configures the remote parser.
type HTTPConfig struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// HTTPClient delegates parsing to a remote service.
//
// Request:  {"text": "..."}
// Response: {"jobs": [{"job_type": "...", "title": "...", "description": "...", "priority": "..."}]}
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient builds an HTTPClient. Callers should pass a validated config.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("parser url is required")
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

type parseRequest struct {
	Text string `json:"text"`
}

type parsedJobWire struct {
	JobType     string `json:"job_type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type parseResponse struct {
	Jobs []parsedJobWire `json:"jobs"`
}

// Parse implements core.JobParser. Unknown job types map to "other" and
// unknown priorities are left empty for the caller to default.
func (c *HTTPClient) Parse(ctx context.Context, text string) ([]model.ParsedJob, error) {
	var resp parseResponse
	if err := httpjson.PostJSON(ctx, c.client, "parser", c.url, parseRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	out := make([]model.ParsedJob, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		jt, err := model.ParseJobType(j.JobType)
		if err != nil {
			jt = model.JobTypeOther
		}
		var p model.JobPriority
		if p.UnmarshalText([]byte(j.Priority)) != nil {
			p = ""
		}
		out = append(out, model.ParsedJob{
			Type:        jt,
			Title:       strings.TrimSpace(j.Title),
			Description: strings.TrimSpace(j.Description),
			Priority:    p,
		})
	}
	return out, nil
}
