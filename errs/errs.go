// Package errs defines the engine's error taxonomy: validation errors
// surfaced immediately at the API boundary, resource errors (lock timeout),
// worker errors propagated from the pool, and cancellation (a result, not
// an error). All are built on github.com/pingcap/errors so call sites keep
// stack traces the way the rest of the engine does.
package errs

import (
	"fmt"

	"github.com/pingcap/errors"
)

// Kind classifies an engine error for callers that need to branch on it
// (e.g. the CLI stub deciding on an exit code).
type Kind int

const (
	// KindValidation covers pre-fit schema/config problems.
	KindValidation Kind = iota
	// KindResource covers lock timeouts and allocation failures.
	KindResource
	// KindWorker covers errors raised inside a pool worker.
	KindWorker
)

// Error wraps a kind with a traced cause.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap lets errors.Is/As see through to the traced cause.
func (e *Error) Unwrap() error { return e.err }

// Validation builds a KindValidation error, e.g. an unknown peripheral name
// in a Placeholder, a role conflict, a missing target column.
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// LockTimeout is returned when a DataFrame read lock could not be acquired
// within the caller-supplied timeout.
var LockTimeout = &Error{Kind: KindResource, msg: "LockTimeout: could not acquire DataFrame lock in time"}

// WorkerFailure wraps the first error captured from a worker-pool
// goroutine, surfaced on the coordinating goroutine after the failed
// checkpoint.
func WorkerFailure(cause error) error {
	return &Error{Kind: KindWorker, msg: "WorkerFailure", err: errors.Trace(cause)}
}

// Canceled is the sentinel error for a user-requested abort. ensemble.Fit
// and model.FitWithComm do not return it: they report cancellation through
// the Canceled field of their result, because cancellation is a result,
// not an error condition for the caller to branch display logic on.
var Canceled = errors.New("canceled")

// Trace re-exports errors.Trace so callers outside this package don't need
// a second import for the common "wrap and keep going" case.
func Trace(err error) error { return errors.Trace(err) }

// Errorf re-exports errors.Errorf.
func Errorf(format string, args ...interface{}) error { return errors.Errorf(format, args...) }
