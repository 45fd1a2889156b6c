package apperrors

import "errors"

// Category sentinels. Every error returned across a port wraps one of these
// so callers can branch with errors.Is instead of string matching.
var (
	// ErrInvalidInput marks programmer/precondition errors: bad arguments,
	// operations invoked with no active session.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation marks user-correctable data problems detected before any
	// I/O. Never retried automatically.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence marks local draft-store read/write failures. The
	// in-memory session is preserved and the operation may be retried.
	ErrPersistence = errors.New("persistence failure")

	// ErrTransport marks remote upload/finalize failures. The local draft is
	// preserved and completion may be re-attempted.
	ErrTransport = errors.New("transport failure")

	// ErrTimeout marks a bounded remote call that ran out of time. Retryable,
	// surfaced distinctly from other transport failures.
	ErrTimeout = errors.New("request timed out")

	// ErrNoActiveSession is returned when a session operation runs before
	// Initialize.
	ErrNoActiveSession = errors.New("no active session")

	// ErrDraftNotFound distinguishes "no draft for this customer" from an
	// actual store failure.
	ErrDraftNotFound = errors.New("draft not found")
)
