package model

import (
	"slices"
	"time"

	"github.com/target/jobmatch/internal/geo"
)

// VerificationStatus is the outcome of worker document review.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Worker is a service provider as seen by matching. Availability and location
// are owned by the worker-facing flows; matching only reads them.
type Worker struct {
	ID              string             `json:"id"                         db:"id"`
	Name            string             `json:"name"                       db:"name"`
	Skills          []JobType          `json:"skills"                     db:"skills"`
	Available       bool               `json:"available"                  db:"available"`
	Verification    VerificationStatus `json:"verification"               db:"verification"`
	CurrentLocation *geo.Point         `json:"current_location,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"                 db:"updated_at"`
}

// HasSkill reports whether the worker can perform jobs of type t.
func (w *Worker) HasSkill(t JobType) bool {
	return slices.Contains(w.Skills, t)
}

// Eligible reports whether the worker counts toward supply for jobs of type t.
// Location filtering is left to the caller.
func (w *Worker) Eligible(t JobType) bool {
	return w.Available && w.Verification == VerificationVerified &&
		w.CurrentLocation != nil && w.HasSkill(t)
}

// SupplyQuery selects the eligible workers around a point.
type SupplyQuery struct {
	Point    geo.Point
	RadiusKm float64
	JobType  JobType
}
