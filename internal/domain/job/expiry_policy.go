package job

import (
	"errors"
	"time"
)

// ErrInvalidDefaultExpiry indicates the configured default expiry window is not positive.
var ErrInvalidDefaultExpiry = errors.New("default expiry must be positive")

// ExpirySource identifies how an expiry window was resolved.
type ExpirySource string

const (
	// ExpirySourceExplicit indicates the caller supplied a usable window.
	ExpirySourceExplicit ExpirySource = "explicit"
	// ExpirySourceDefault indicates the default window was used.
	ExpirySourceDefault ExpirySource = "default"
	// ExpirySourceClamped indicates the request was clamped into [min, max].
	ExpirySourceClamped ExpirySource = "clamped"
)

// MinExpiry is the shortest claim window a job may be posted with.
const MinExpiry = time.Minute

// ExpiryPolicy normalises how long a new job stays open for claims.
type ExpiryPolicy struct {
	defaultWindow time.Duration
	maxWindow     time.Duration
}

// NewExpiryPolicy constructs an ExpiryPolicy. A non-positive max disables the upper bound.
func NewExpiryPolicy(defaultWindow, maxWindow time.Duration) (*ExpiryPolicy, error) {
	if defaultWindow <= 0 {
		return nil, ErrInvalidDefaultExpiry
	}
	if maxWindow > 0 && maxWindow < defaultWindow {
		maxWindow = defaultWindow
	}
	return &ExpiryPolicy{defaultWindow: defaultWindow, maxWindow: maxWindow}, nil
}

// Default returns the configured default window.
func (p *ExpiryPolicy) Default() time.Duration {
	if p == nil {
		return 0
	}
	return p.defaultWindow
}

// ExpiryDecision captures the outcome of resolving an expiry request.
type ExpiryDecision struct {
	Window    time.Duration
	Source    ExpirySource
	Requested time.Duration
}

// UsedDefault reports whether the policy fell back to the default window.
func (d ExpiryDecision) UsedDefault() bool {
	return d.Source == ExpirySourceDefault
}

// ExpiresAt returns the absolute expiry for a job created at createdAt.
func (d ExpiryDecision) ExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(d.Window)
}

// Resolve normalises the requested window. Zero selects the default.
func (p *ExpiryPolicy) Resolve(request time.Duration) ExpiryDecision {
	decision := ExpiryDecision{Requested: request}
	if p == nil {
		decision.Source = ExpirySourceDefault
		return decision
	}

	switch {
	case request == 0:
		decision.Window = p.defaultWindow
		decision.Source = ExpirySourceDefault
	case request < MinExpiry:
		decision.Window = MinExpiry
		decision.Source = ExpirySourceClamped
	case p.maxWindow > 0 && request > p.maxWindow:
		decision.Window = p.maxWindow
		decision.Source = ExpirySourceClamped
	default:
		decision.Window = request.Truncate(time.Second)
		decision.Source = ExpirySourceExplicit
	}
	return decision
}
