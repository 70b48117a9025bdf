package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, unresolvable day selection).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when an actor attempts a mutation on a trip
// they do not own. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrQuotaExceeded is returned when a trip has used all of its free
// regenerations. Handlers should map this to HTTP 429.
var ErrQuotaExceeded = errors.New("regeneration quota exceeded")

// ErrGeneration is the sentinel for any AI collaborator failure.
// Match it with errors.Is; use errors.As with *GenerationError to tell a
// transport failure from an unusable response. Handlers map it to HTTP 502.
var ErrGeneration = errors.New("generation failure")

// GenerationError wraps an AI collaborator failure with its stage.
// A generation failure never leaves partial version state behind, so it is
// always safe to retry.
type GenerationError struct {
	// Stage is "transport" for call/timeout failures and "response" for
	// payloads that could not be parsed into the expected shape.
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failure (%s): %v", e.Stage, e.Err)
}

// Is makes errors.Is(err, ErrGeneration) succeed for any GenerationError.
func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

func (e *GenerationError) Unwrap() error { return e.Err }

// ConflictPair records one detected disagreement between two pending comments.
type ConflictPair struct {
	CommentA uuid.UUID `json:"comment_a"`
	CommentB uuid.UUID `json:"comment_b"`
	Reason   string    `json:"reason"`
}

// ConflictGateError blocks regeneration while pending comments disagree.
// It carries the structured conflict list so the caller can drive resolution;
// once every conflict clears the operation becomes eligible again.
// Handlers should map this to HTTP 409.
type ConflictGateError struct {
	Conflicts []ConflictPair
}

func (e *ConflictGateError) Error() string {
	return fmt.Sprintf("regeneration blocked by %d unresolved conflict(s)", len(e.Conflicts))
}

// VersionRaceError is returned when a version-advancing operation loses the
// optimistic active_version precondition to a concurrent writer. The caller
// can safely re-read and retry. Handlers should map this to HTTP 409.
type VersionRaceError struct {
	TripID          uuid.UUID
	ExpectedVersion int
}

func (e *VersionRaceError) Error() string {
	return fmt.Sprintf("trip %s: active version moved past %d during operation", e.TripID, e.ExpectedVersion)
}
