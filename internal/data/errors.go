package data

import apperrors "github.com/target/jobmatch/internal/errors"

// Shared sentinel errors for data-layer repositories. They are AppErrors so callers
// can match them with errors.Is or classify them with the apperrors predicates.
var (
	ErrJobNotFound      = apperrors.NotFound("job not found")
	ErrLocationNotFound = apperrors.NotFound("location not found")
	ErrWorkerNotFound   = apperrors.NotFound("worker not found")
	ErrEmptyBatch       = apperrors.Validation("at least one job is required")
)
