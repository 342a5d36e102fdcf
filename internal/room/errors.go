package room

import (
	"errors"
	"fmt"
)

// ErrUnknownMessage is returned when a mutation targets a message id the
// local view does not hold.
var ErrUnknownMessage = errors.New("unknown message")

var errFeedClosed = errors.New("change feed closed")

// ValidationError rejects a mutation before it reaches the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthorizationError denies a mutation on a message the session does not own.
// The denial is explicit: callers get this error, not a silently hidden action.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// PersistenceError wraps a failed store call. The local set is left untouched
// when one of these is raised.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// TransportError wraps a change-feed failure. The periodic snapshot keeps the
// view converging while the feed is down.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
