// Package model defines the core data types shared by the jobmatch services.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobType represents the kind of service a job requests.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current lifecycle state of a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

// JobPriority is the customer-facing urgency of a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobPriority string

const (
	// JobTypeSnowRemoval is an area-priced snow clearing job.
	JobTypeSnowRemoval JobType = "snow_removal"
	// JobTypeLawnCare is an area-priced mowing or yard job.
	JobTypeLawnCare JobType = "lawn_care"
	// JobTypeHandyman is a flat-rate general repair job.
	JobTypeHandyman JobType = "handyman"
	// JobTypePlumbing is a flat-rate plumbing job.
	JobTypePlumbing JobType = "plumbing"
	// JobTypeElectrical is a flat-rate electrical job.
	JobTypeElectrical JobType = "electrical"
	// JobTypeCarpentry is a flat-rate carpentry job.
	JobTypeCarpentry JobType = "carpentry"
	// JobTypeOther is the catch-all for requests that fit no other type.
	JobTypeOther JobType = "other"

	// JobStatusPending indicates a job is open for claims.
	JobStatusPending JobStatus = "pending"
	// JobStatusAssigned indicates a worker won the claim.
	JobStatusAssigned JobStatus = "assigned"
	// JobStatusExpired indicates the job aged out before anyone claimed it.
	JobStatusExpired JobStatus = "expired"
	// JobStatusCompleted is set by the completion flow after assignment.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusCancelled is set by the cancellation flow.
	JobStatusCancelled JobStatus = "cancelled"

	JobPriorityLow    JobPriority = "low"
	JobPriorityMedium JobPriority = "medium"
	JobPriorityHigh   JobPriority = "high"
	JobPriorityUrgent JobPriority = "urgent"
)

// ErrInvalidJobType is returned when a job type string is not recognised.
var ErrInvalidJobType = errors.New("invalid job type")

// AllJobTypes returns every supported job type in display order.
func AllJobTypes() []JobType {
	return []JobType{
		JobTypeSnowRemoval,
		JobTypeLawnCare,
		JobTypeHandyman,
		JobTypePlumbing,
		JobTypeElectrical,
		JobTypeCarpentry,
		JobTypeOther,
	}
}

// Valid returns true if the JobType is one of the supported types.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeSnowRemoval, JobTypeLawnCare, JobTypeHandyman, JobTypePlumbing,
		JobTypeElectrical, JobTypeCarpentry, JobTypeOther:
		return true
	}
	return false
}

func (t JobType) String() string { return string(t) }

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env and JSON parsing.
// Hyphenated spellings such as "snow-removal" are accepted.
func (t *JobType) UnmarshalText(text []byte) error {
	jt, err := ParseJobType(string(text))
	if err != nil {
		return err
	}
	*t = jt
	return nil
}

// ParseJobType normalises s and returns the matching JobType.
func ParseJobType(s string) (JobType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "-", "_")
	jt := JobType(v)
	if !jt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidJobType, s)
	}
	return jt, nil
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusAssigned, JobStatusExpired, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

func (s JobStatus) String() string { return string(s) }

// UnmarshalText implements encoding.TextUnmarshaler for JobStatus.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobStatus: %q", string(text))
	}
	*s = v
	return nil
}

// Valid returns true if the priority is known.
func (p JobPriority) Valid() bool {
	switch p {
	case JobPriorityLow, JobPriorityMedium, JobPriorityHigh, JobPriorityUrgent:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler for JobPriority.
func (p *JobPriority) UnmarshalText(text []byte) error {
	v := JobPriority(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobPriority: %q", string(text))
	}
	*p = v
	return nil
}

// Job is a posted service request together with its computed price.
type Job struct {
	ID                     string         `json:"id"                                 db:"id"`
	CustomerID             string         `json:"customer_id"                        db:"customer_id"`
	LocationID             string         `json:"location_id"                        db:"location_id"`
	Type                   JobType        `json:"job_type"                           db:"job_type"`
	Status                 JobStatus      `json:"status"                             db:"status"`
	Priority               JobPriority    `json:"priority"                           db:"priority"`
	Title                  string         `json:"title"                              db:"title"`
	Description            string         `json:"description"                        db:"description"`
	EstimatedSquareFootage *float64       `json:"estimated_square_footage,omitempty" db:"estimated_square_footage"`
	Severity               *Severity      `json:"severity,omitempty"                 db:"severity"`
	Confidence             *float64       `json:"confidence,omitempty"               db:"confidence"`
	Price                  PriceBreakdown `json:"price"`
	Metadata               map[string]any `json:"metadata,omitempty"                 db:"metadata"`
	Images                 []JobImage     `json:"images,omitempty"`
	CreatedAt              time.Time      `json:"created_at"                         db:"created_at"`
	ExpiresAt              time.Time      `json:"expires_at"                         db:"expires_at"`
	UpdatedAt              time.Time      `json:"updated_at"                         db:"updated_at"`
}

// IsExpired reports whether the job's claim window has closed at now.
func (j *Job) IsExpired(now time.Time) bool {
	return !j.ExpiresAt.After(now)
}

// FirstImageURL returns the first attached image reference or "".
func (j *Job) FirstImageURL() string {
	if len(j.Images) == 0 {
		return ""
	}
	return j.Images[0].URL
}

// JobImage is a customer-supplied photo attached to a job.
type JobImage struct {
	ID        string        `json:"id"                 db:"id"`
	JobID     string        `json:"job_id"             db:"job_id"`
	URL       string        `json:"url"                db:"url"`
	Position  int           `json:"position"           db:"position"`
	Analysis  *VisionResult `json:"analysis,omitempty" db:"analysis"`
	CreatedAt time.Time     `json:"created_at"         db:"created_at"`
}

// NewJobParams carries everything the store needs to insert one job.
type NewJobParams struct {
	CustomerID  string
	LocationID  string
	Type        JobType
	Priority    JobPriority
	Title       string
	Description string
	Analysis    VisionResult
	Price       PriceBreakdown
	Metadata    map[string]any
	ImageURLs   []string
	ExpiresIn   time.Duration
}

// Validate validates the NewJobParams fields.
func (p *NewJobParams) Validate() error {
	if _, err := uuid.Parse(p.LocationID); err != nil {
		return errors.New("location id must be a valid UUID")
	}
	if p.CustomerID != "" {
		if _, err := uuid.Parse(p.CustomerID); err != nil {
			return errors.New("customer id must be a valid UUID")
		}
	}
	if !p.Type.Valid() {
		return ErrInvalidJobType
	}
	if p.Priority != "" && !p.Priority.Valid() {
		return errors.New("invalid priority")
	}
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	if p.ExpiresIn <= 0 {
		return errors.New("expiry must be positive")
	}
	if p.Price.FinalPrice <= 0 {
		return errors.New("final price must be positive")
	}
	return nil
}

// JobStats counts jobs in each lifecycle state.
type JobStats struct {
	Pending   int `json:"pending"`
	Assigned  int `json:"assigned"`
	Expired   int `json:"expired"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// Assignment records the worker that won the claim on a job.
type Assignment struct {
	ID         string    `json:"id"          db:"id"`
	JobID      string    `json:"job_id"      db:"job_id"`
	WorkerID   string    `json:"worker_id"   db:"worker_id"`
	AcceptedAt time.Time `json:"accepted_at" db:"accepted_at"`
}

// ClaimOutcome explains why a claim did or did not succeed.
type ClaimOutcome string

const (
	// ClaimAccepted means the caller now owns the job.
	ClaimAccepted ClaimOutcome = "accepted"
	// ClaimNotFound means no job has the requested id.
	ClaimNotFound ClaimOutcome = "not_found"
	// ClaimNotPending means another claim or flow already moved the job on.
	ClaimNotPending ClaimOutcome = "not_pending"
	// ClaimExpired means the claim discovered the job past its expiry and expired it.
	ClaimExpired ClaimOutcome = "expired"
)

// ClaimResult is returned by the store's claim primitive.
type ClaimResult struct {
	Outcome    ClaimOutcome `json:"outcome"`
	Assignment *Assignment  `json:"assignment,omitempty"`
}

// Accepted reports whether the claim won the job.
func (r ClaimResult) Accepted() bool {
	return r.Outcome == ClaimAccepted
}

// CandidateJob is a claimable job joined with its location, before distance is known.
type CandidateJob struct {
	Job      Job
	Location Location
}
