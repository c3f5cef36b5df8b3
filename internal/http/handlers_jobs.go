// Package httpx exposes the jobmatch services over a JSON HTTP API.
package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/jobmatch/internal/domain/model"
	apperrors "github.com/target/jobmatch/internal/errors"
	"github.com/target/jobmatch/internal/geo"
	"github.com/target/jobmatch/internal/service"
)

// JobAPI is the job creation and pricing surface used by JobHandlers.
type JobAPI interface {
	CreateJobBatch(ctx context.Context, req service.CreateJobBatchRequest) (*service.CreateJobBatchResult, error)
	EstimatePrice(ctx context.Context, req service.EstimateRequest) (*service.PriceEstimate, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	Stats(ctx context.Context) (*model.JobStats, error)
}

// NearbyFinder lists claimable jobs near a worker.
type NearbyFinder interface {
	NearbyJobs(ctx context.Context, req service.NearbyRequest) ([]model.JobCard, error)
}

// ClaimAccepter awards a job to the first worker that accepts it.
type ClaimAccepter interface {
	Accept(ctx context.Context, jobID, workerID string) (bool, error)
}

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Jobs     JobAPI
	Matching NearbyFinder
	Claims   ClaimAccepter
	Logger   *slog.Logger
}

type createJobsRequest struct {
	CustomerID       string   `json:"customer_id"`
	LocationID       string   `json:"location_id"`
	Text             string   `json:"text"`
	ImageURLs        []string `json:"image_urls"`
	JobType          string   `json:"job_type"`
	Title            string   `json:"title"`
	Priority         string   `json:"priority"`
	ExpiresInMinutes *int     `json:"expires_in_minutes"`
}

// CreateJobs handles POST /api/jobs.
func (h *JobHandlers) CreateJobs(w http.ResponseWriter, r *http.Request) {
	var body createJobsRequest
	if !DecodeJSON(w, r, &body) {
		return
	}

	req := service.CreateJobBatchRequest{
		CustomerID: strings.TrimSpace(body.CustomerID),
		LocationID: strings.TrimSpace(body.LocationID),
		Text:       body.Text,
		ImageURLs:  body.ImageURLs,
		JobType:    model.JobType(strings.ToLower(strings.TrimSpace(body.JobType))),
		Title:      body.Title,
		Priority:   model.JobPriority(strings.ToLower(strings.TrimSpace(body.Priority))),
	}
	if body.ExpiresInMinutes != nil {
		req.ExpiresIn = time.Duration(*body.ExpiresInMinutes) * time.Minute
	}

	res, err := h.Jobs.CreateJobBatch(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, res)
}

type estimateRequest struct {
	JobType       string   `json:"job_type"`
	LocationID    string   `json:"location_id"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	SquareFootage *float64 `json:"square_footage"`
	Severity      string   `json:"severity"`
	ImageURL      string   `json:"image_url"`
}

// Estimate handles POST /api/jobs/estimate.
func (h *JobHandlers) Estimate(w http.ResponseWriter, r *http.Request) {
	var body estimateRequest
	if !DecodeJSON(w, r, &body) {
		return
	}
	if (body.Lat == nil) != (body.Lng == nil) {
		writeServiceError(w, r, h.Logger, apperrors.ValidationField("point", "lat and lng must be given together"))
		return
	}

	req := service.EstimateRequest{
		JobType:       model.JobType(strings.ToLower(strings.TrimSpace(body.JobType))),
		LocationID:    strings.TrimSpace(body.LocationID),
		SquareFootage: body.SquareFootage,
		ImageURL:      strings.TrimSpace(body.ImageURL),
	}
	if body.Lat != nil {
		req.Point = &geo.Point{Lat: *body.Lat, Lng: *body.Lng}
	}
	if s := strings.ToLower(strings.TrimSpace(body.Severity)); s != "" {
		sev := model.Severity(s)
		req.Severity = &sev
	}

	est, err := h.Jobs.EstimatePrice(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, est)
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

type listJobsResponse struct {
	Jobs   []*model.Job `json:"jobs"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// CustomerJobs handles GET /api/customers/{id}/jobs?status=&job_type=&limit=&offset=.
func (h *JobHandlers) CustomerJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := model.JobListOptions{
		CustomerID: strings.TrimSpace(r.PathValue("id")),
		Limit:      parseIntQuery(r, "limit", 0),
		Offset:     parseIntQuery(r, "offset", 0),
	}
	if v := strings.ToLower(strings.TrimSpace(q.Get("status"))); v != "" {
		status := model.JobStatus(v)
		opts.Status = &status
	}
	if v := strings.ToLower(strings.TrimSpace(q.Get("job_type"))); v != "" {
		jt := model.JobType(v)
		opts.Type = &jt
	}

	jobs, err := h.Jobs.ListJobs(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	opts.Sanitize()
	if jobs == nil {
		jobs = []*model.Job{}
	}
	WriteJSON(w, http.StatusOK, listJobsResponse{Jobs: jobs, Limit: opts.Limit, Offset: opts.Offset})
}

// Stats handles GET /api/jobs/stats.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Jobs.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

type nearbyResponse struct {
	Jobs []model.JobCard `json:"jobs"`
}

// NearbyJobs handles GET /api/workers/{id}/nearby-jobs.
//
// Query parameters: lat and lng override the worker's current location,
// radius_km and limit tune the search, and wait (seconds) long-polls when
// nothing matches yet.
func (h *JobHandlers) NearbyJobs(w http.ResponseWriter, r *http.Request) {
	req := service.NearbyRequest{
		WorkerID: r.PathValue("id"),
		Limit:    parseIntQuery(r, "limit", 0),
		Wait:     time.Duration(max(parseIntQuery(r, "wait", 0), 0)) * time.Second,
	}

	point, err := pointFromQuery(r)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	req.Point = point

	radius, ok, err := parseFloatQuery(r, "radius_km")
	if err != nil {
		writeServiceError(w, r, h.Logger, apperrors.ValidationField("radius_km", "radius_km must be a number"))
		return
	}
	if ok {
		req.RadiusKm = radius
	}

	cards, err := h.Matching.NearbyJobs(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nearbyResponse{Jobs: cards})
}

func pointFromQuery(r *http.Request) (*geo.Point, error) {
	lat, hasLat, latErr := parseFloatQuery(r, "lat")
	lng, hasLng, lngErr := parseFloatQuery(r, "lng")
	if latErr != nil || lngErr != nil {
		return nil, apperrors.ValidationField("point", "lat and lng must be numbers")
	}
	if hasLat != hasLng {
		return nil, apperrors.ValidationField("point", "lat and lng must be given together")
	}
	if !hasLat {
		return nil, nil
	}
	return &geo.Point{Lat: lat, Lng: lng}, nil
}

type acceptRequest struct {
	WorkerID string `json:"worker_id"`
}

type acceptResponse struct {
	JobID    string `json:"job_id"`
	WorkerID string `json:"worker_id"`
	Accepted bool   `json:"accepted"`
}

// Accept handles POST /api/jobs/{id}/accept. A lost claim is 409 with
// accepted=false; only the winning claim gets 200.
func (h *JobHandlers) Accept(w http.ResponseWriter, r *http.Request) {
	var body acceptRequest
	if !DecodeJSON(w, r, &body) {
		return
	}
	jobID := r.PathValue("id")
	workerID := strings.TrimSpace(body.WorkerID)
	if workerID == "" {
		writeServiceError(w, r, h.Logger, apperrors.ValidationField("worker_id", "worker_id is required"))
		return
	}

	ok, err := h.Claims.Accept(r.Context(), jobID, workerID)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusConflict
	}
	WriteJSON(w, status, acceptResponse{JobID: jobID, WorkerID: workerID, Accepted: ok})
}
