package model

import (
	"fmt"
	"time"

	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// Outcome is the binary result of a connectivity probe.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ErrorClass is the closed set of probe failure classes.
type ErrorClass = apperrors.Code

// Probe targets distinguish the primary endpoint from a read replica.
const (
	TargetPrimary = "primary"
	TargetReplica = "replica"
)

// ProbeResult is produced once per probe invocation and never mutated.
type ProbeResult struct {
	Backend    string
	Target     string
	Address    string
	Outcome    Outcome
	ErrorClass ErrorClass
	Message    string
	Duration   time.Duration
	// Replica holds the read-replica probe, when one is configured. It never
	// influences Outcome.
	Replica *ProbeResult
}

// Success builds a successful ProbeResult.
func Success(backend, target, address string, elapsed time.Duration) ProbeResult {
	return ProbeResult{
		Backend:  backend,
		Target:   target,
		Address:  address,
		Outcome:  OutcomeSuccess,
		Duration: elapsed,
	}
}

// Failure builds a failed ProbeResult.
func Failure(backend, target, address string, class ErrorClass, message string, elapsed time.Duration) ProbeResult {
	return ProbeResult{
		Backend:    backend,
		Target:     target,
		Address:    address,
		Outcome:    OutcomeFailure,
		ErrorClass: class,
		Message:    message,
		Duration:   elapsed,
	}
}

// OK reports whether the probe succeeded.
func (r ProbeResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// ReplicaFailed reports whether a configured replica could not be reached.
func (r ProbeResult) ReplicaFailed() bool {
	return r.Replica != nil && !r.Replica.OK()
}

func (r ProbeResult) String() string {
	if r.OK() {
		return fmt.Sprintf("%s %s (%s): ok", r.Backend, r.Target, r.Address)
	}
	return fmt.Sprintf("%s %s (%s): %s: %s", r.Backend, r.Target, r.Address, r.ErrorClass, r.Message)
}

// ValidationReport aggregates the database and cache probes of one attempt.
type ValidationReport struct {
	AllPassed bool
	Database  ProbeResult
	Cache     ProbeResult
}

// NewValidationReport combines both probe results.
func NewValidationReport(database, cache ProbeResult) ValidationReport {
	return ValidationReport{
		AllPassed: database.OK() && cache.OK(),
		Database:  database,
		Cache:     cache,
	}
}
