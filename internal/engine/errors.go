package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when the log has no registry-created
	// event yet.
	ErrNotInitialized = errors.New("registry not initialized")

	// ErrAlreadyInitialized is returned by Bootstrap on a non-empty log.
	ErrAlreadyInitialized = errors.New("registry already initialized")

	// ErrDiverged is returned once an event could not be recorded. The
	// in-memory registry is ahead of the log and must not be mutated again.
	ErrDiverged = errors.New("registry state diverged from event log")
)

// ReplayError reports a replay that did not reproduce the expected state.
type ReplayError struct {
	// Stage names the comparison that failed: "chain", "restore",
	// "determinism" or "live".
	Stage string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ReplayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("replay %s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("replay %s: %s", e.Stage, e.Message)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

// IsReplayError returns true if the error is a replay verification failure.
// Uses errors.As to handle wrapped errors.
func IsReplayError(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}
