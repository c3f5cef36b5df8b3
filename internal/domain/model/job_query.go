package model

// Paging bounds for job listings.
const (
	DefaultJobListLimit = 50
	MaxJobListLimit     = 200
)

// JobListOptions filters a customer's jobs, newest first.
type JobListOptions struct {
	CustomerID string
	Status     *JobStatus // Optional
	Type       *JobType   // Optional
	Limit      int
	Offset     int
}

// Sanitize clamps paging to sane bounds.
func (o *JobListOptions) Sanitize() {
	if o.Limit <= 0 {
		o.Limit = DefaultJobListLimit
	}
	if o.Limit > MaxJobListLimit {
		o.Limit = MaxJobListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
