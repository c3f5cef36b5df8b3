// Package job holds the job lifecycle rules shared by matching, claiming and the expiry sweep.
package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/target/jobmatch/internal/domain/model"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid job status transition")

// transitions lists the allowed next states for each status. The matching core
// only performs the pending edges; the assigned edges belong to completion and
// cancellation flows.
var transitions = map[model.JobStatus][]model.JobStatus{
	model.JobStatusPending:  {model.JobStatusAssigned, model.JobStatusExpired},
	model.JobStatusAssigned: {model.JobStatusCompleted, model.JobStatusCancelled},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to model.JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a status change and returns the new status.
func Transition(from, to model.JobStatus) (model.JobStatus, error) {
	if !from.Valid() || !to.Valid() || !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// IsTerminal reports whether no further transitions are possible from s.
func IsTerminal(s model.JobStatus) bool {
	return len(transitions[s]) == 0
}

// ClaimDecision is the outcome of evaluating a locked job row for a claim.
type ClaimDecision int

const (
	// DecisionReject leaves the job untouched.
	DecisionReject ClaimDecision = iota
	// DecisionExpire moves the job to expired and rejects the claim.
	DecisionExpire
	// DecisionAssign moves the job to assigned and records the claimant.
	DecisionAssign
)

// DecideClaim evaluates a job already locked by the caller.
// It is the single guard shared by claims and the background sweep.
func DecideClaim(status model.JobStatus, expiresAt, now time.Time) ClaimDecision {
	if status != model.JobStatusPending {
		return DecisionReject
	}
	if !expiresAt.After(now) {
		return DecisionExpire
	}
	return DecisionAssign
}

// Claimable reports whether a job is visible to workers at now.
func Claimable(status model.JobStatus, expiresAt, now time.Time) bool {
	return DecideClaim(status, expiresAt, now) == DecisionAssign
}
