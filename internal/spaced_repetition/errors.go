package spaced_repetition

import "errors"

var (
	// ErrInvalidArgument is returned for ratings outside 1..4, malformed
	// item states and unusable parameter sets.
	ErrInvalidArgument = errors.New("spaced_repetition: invalid argument")

	// ErrPreconditionFailed signals that the stored state no longer matches
	// the snapshot the caller reviewed against.
	ErrPreconditionFailed = errors.New("spaced_repetition: precondition failed")

	// ErrComputationDegenerate is returned when a computation produces NaN or
	// Inf. The result must never be persisted.
	ErrComputationDegenerate = errors.New("spaced_repetition: degenerate computation")
)
