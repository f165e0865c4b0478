package request

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCalls is returned when a request would carry no invocations.
	ErrNoCalls = errors.New("jmap: request has no method calls")
	// ErrDuplicateCallID is returned when two invocations share an id.
	ErrDuplicateCallID = errors.New("jmap: duplicate call id")
	// ErrUnresolvedReference is returned when a shorthand reference has no target.
	ErrUnresolvedReference = errors.New("jmap: unresolved reference")
)

// BuildError reports a request that cannot be assembled.
type BuildError struct {
	CallID string
	Err    error
}

func (e *BuildError) Error() string {
	if e.CallID != "" {
		return fmt.Sprintf("%v: %q", e.Err, e.CallID)
	}
	return e.Err.Error()
}

func (e *BuildError) Unwrap() error { return e.Err }

// ReferenceError reports a reference that cannot be turned into its wire form.
type ReferenceError struct {
	// CallID is the invocation carrying the reference.
	CallID string
	// Key is the argument holding the reference.
	Key string
	// Target describes what the reference pointed at.
	Target string
	Reason string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("jmap: unresolved reference %q in %s to %s: %s", e.Key, e.CallID, e.Target, e.Reason)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrUnresolvedReference }
