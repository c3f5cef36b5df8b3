// Package workflowtest runs the jobmatch HTTP API over a real database for
// end-to-end tests: seeded locations and workers, the production service
// wiring, and a typed client for the public routes.
package workflowtest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/target/jobmatch/config"
	"github.com/target/jobmatch/internal/bootstrap"
	"github.com/target/jobmatch/internal/devseed"
	"github.com/target/jobmatch/internal/domain/model"
	httpx "github.com/target/jobmatch/internal/http"
	"github.com/target/jobmatch/internal/service"
	"github.com/target/jobmatch/internal/testutil"
)

// Harness owns a test server wired exactly like the http service mode.
type Harness struct {
	t        testutil.TestingTB
	DB       *sql.DB
	Config   config.AppConfig
	Services bootstrap.ServiceContainer
	Seed     *devseed.Result
	server   *httptest.Server
}

// Options tweaks the harness configuration. Environment holds env-style
// overrides applied on top of the declared defaults (e.g. "JOB_EXPIRY").
type Options struct {
	Environment map[string]string
	Logger      *slog.Logger
}

// NewHarness seeds db and starts the API. The caller owns db.
func NewHarness(t testutil.TestingTB, db *sql.DB, opts Options) *Harness {
	t.Helper()

	cfg := loadConfig(t, opts.Environment)
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	seed, err := devseed.Run(ctx, devseed.NewServices(db), logger)
	if err != nil {
		t.Fatalf("seed database: %v", err)
	}

	svcs, err := bootstrap.NewServices(&bootstrap.ServiceDeps{Config: &cfg, DB: db, Logger: logger})
	if err != nil {
		t.Fatalf("build services: %v", err)
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Jobs:         svcs.Jobs,
		Matching:     svcs.Matching,
		Claims:       svcs.Claims,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Logger:       logger,
	})

	return &Harness{
		t:        t,
		DB:       db,
		Config:   cfg,
		Services: svcs,
		Seed:     seed,
		server:   httptest.NewServer(router),
	}
}

func loadConfig(t testutil.TestingTB, overrides map[string]string) config.AppConfig {
	environment := map[string]string{
		"SERVICES":  "http",
		"LOG_LEVEL": "error",
	}
	for k, v := range overrides {
		environment[k] = v
	}
	var cfg config.AppConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		t.Fatalf("parse harness config: %v", err)
	}
	cfg.Sanitize()
	return cfg
}

// Close stops the server and wakes any parked long-polls.
func (h *Harness) Close() {
	if h.Services.Notifier != nil {
		h.Services.Notifier.StopAll()
	}
	h.server.Close()
}

// WorkerID returns the seeded worker ID for name.
func (h *Harness) WorkerID(name string) string { return devseed.SeedID("worker:" + name) }

// Client returns an API client bound to the harness server.
func (h *Harness) Client() *Client {
	return &Client{t: h.t, base: h.server.URL, http: h.server.Client()}
}

// WithHarness runs fn against a fresh harness on an auto-selected test database.
func WithHarness(t testutil.TestingTB, opts Options, fn func(*Harness)) {
	t.Helper()
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := NewHarness(t, db, opts)
		defer h.Close()
		fn(h)
	})
}

// Client calls the public API and fails the test on transport errors.
type Client struct {
	t    testutil.TestingTB
	base string
	http *http.Client
}

// CreateJobsPayload is the POST /api/jobs body.
type CreateJobsPayload struct {
	CustomerID       string   `json:"customer_id"`
	LocationID       string   `json:"location_id"`
	Text             string   `json:"text,omitempty"`
	ImageURLs        []string `json:"image_urls,omitempty"`
	JobType          string   `json:"job_type,omitempty"`
	Title            string   `json:"title,omitempty"`
	Priority         string   `json:"priority,omitempty"`
	ExpiresInMinutes *int     `json:"expires_in_minutes,omitempty"`
}

// EstimatePayload is the POST /api/jobs/estimate body.
type EstimatePayload struct {
	JobType       string   `json:"job_type"`
	LocationID    string   `json:"location_id,omitempty"`
	SquareFootage *float64 `json:"square_footage,omitempty"`
	Severity      string   `json:"severity,omitempty"`
}

// AcceptResult mirrors the accept response.
type AcceptResult struct {
	Status   int
	JobID    string `json:"job_id"`
	WorkerID string `json:"worker_id"`
	Accepted bool   `json:"accepted"`
}

// NearbyQuery holds the optional nearby-jobs query parameters.
type NearbyQuery struct {
	RadiusKm float64
	Limit    int
	Wait     time.Duration
}

// Do sends payload as JSON and returns the response; the caller closes the body.
func (c *Client) Do(method, path string, payload any) *http.Response {
	c.t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatalf("marshal %s %s: %v", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, c.base+path, body)
	if err != nil {
		c.t.Fatalf("build request %s %s: %v", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (c *Client) decode(resp *http.Response, wantStatus int, out any) {
	c.t.Helper()
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read response: %v", err)
	}
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s: status %d, want %d: %s",
			resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, wantStatus, raw)
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.t.Fatalf("decode response %s: %v", raw, err)
	}
}

// CreateJobs posts a batch and expects 201.
func (c *Client) CreateJobs(payload CreateJobsPayload) service.CreateJobBatchResult {
	c.t.Helper()
	var out service.CreateJobBatchResult
	c.decode(c.Do(http.MethodPost, "/api/jobs", payload), http.StatusCreated, &out)
	return out
}

// Estimate prices a hypothetical job and expects 200.
func (c *Client) Estimate(payload EstimatePayload) service.PriceEstimate {
	c.t.Helper()
	var out service.PriceEstimate
	c.decode(c.Do(http.MethodPost, "/api/jobs/estimate", payload), http.StatusOK, &out)
	return out
}

// GetJob fetches one job and expects 200.
func (c *Client) GetJob(id string) model.Job {
	c.t.Helper()
	var out model.Job
	c.decode(c.Do(http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil), http.StatusOK, &out)
	return out
}

// CustomerJobs lists a customer's jobs with the raw query string (e.g. "status=pending").
func (c *Client) CustomerJobs(customerID, rawQuery string) []model.Job {
	c.t.Helper()
	path := "/api/customers/" + url.PathEscape(customerID) + "/jobs"
	if rawQuery != "" {
		path += "?" + rawQuery
	}
	var out struct {
		Jobs []model.Job `json:"jobs"`
	}
	c.decode(c.Do(http.MethodGet, path, nil), http.StatusOK, &out)
	return out.Jobs
}

// Stats fetches the per-status counts.
func (c *Client) Stats() model.JobStats {
	c.t.Helper()
	var out model.JobStats
	c.decode(c.Do(http.MethodGet, "/api/jobs/stats", nil), http.StatusOK, &out)
	return out
}

// NearbyJobs lists claimable jobs around the worker's stored location.
func (c *Client) NearbyJobs(workerID string, q NearbyQuery) []model.JobCard {
	c.t.Helper()
	params := url.Values{}
	if q.RadiusKm > 0 {
		params.Set("radius_km", strconv.FormatFloat(q.RadiusKm, 'f', -1, 64))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Wait > 0 {
		params.Set("wait", strconv.Itoa(int(q.Wait/time.Second)))
	}
	path := fmt.Sprintf("/api/workers/%s/nearby-jobs", url.PathEscape(workerID))
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out struct {
		Jobs []model.JobCard `json:"jobs"`
	}
	c.decode(c.Do(http.MethodGet, path, nil), http.StatusOK, &out)
	return out.Jobs
}

// Accept claims jobID for workerID. Both 200 and 409 are valid outcomes.
func (c *Client) Accept(jobID, workerID string) AcceptResult {
	c.t.Helper()
	resp := c.Do(http.MethodPost, "/api/jobs/"+url.PathEscape(jobID)+"/accept", map[string]string{"worker_id": workerID})
	want := http.StatusOK
	if resp.StatusCode == http.StatusConflict {
		want = http.StatusConflict
	}
	out := AcceptResult{Status: resp.StatusCode}
	c.decode(resp, want, &out)
	return out
}
