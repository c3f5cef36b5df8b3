package httpx

import (
	"log/slog"
	"net/http"
)

// defaultMaxBodyBytes bounds JSON request bodies when RouterServices leaves it unset.
const defaultMaxBodyBytes = 1 << 20

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs     JobAPI
	Matching NearbyFinder
	Claims   ClaimAccepter
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64
	Logger       *slog.Logger // Logger for request errors (optional)
}

// NewRouter creates and configures the API router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jobHandlers := &JobHandlers{
		Jobs:     services.Jobs,
		Matching: services.Matching,
		Claims:   services.Claims,
		Logger:   logger,
	}

	registerJobRoutes(mux, jobHandlers)
	// GET patterns also serve HEAD.
	mux.HandleFunc("GET /healthz", healthHandler)

	limit := services.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	return MaxBody(limit)(mux)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /api/jobs", h.CreateJobs)
	mux.HandleFunc("POST /api/jobs/estimate", h.Estimate)
	mux.HandleFunc("GET /api/jobs/stats", h.Stats)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetJob)
	mux.HandleFunc("POST /api/jobs/{id}/accept", h.Accept)
	mux.HandleFunc("GET /api/workers/{id}/nearby-jobs", h.NearbyJobs)
	mux.HandleFunc("GET /api/customers/{id}/jobs", h.CustomerJobs)
}
