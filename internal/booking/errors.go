// Package booking implements the reservation engine: availability
// checking, interval conflict detection and the transactional
// create/update/patch of reservation records.  It owns the only
// non-trivial correctness rules in the system and therefore returns
// typed errors so that the HTTP boundary can map every outcome to a
// distinct status code.
package booking

import (
    "errors"
    "fmt"
    "time"
)

// Kind is a stable machine-readable error category.  Handlers map
// kinds to HTTP status codes; messages are for humans only.
type Kind string

const (
    KindValidation       Kind = "validation_error"
    KindNotFound         Kind = "not_found"
    KindCapacityExceeded Kind = "capacity_exceeded"
    KindInvalidInterval  Kind = "invalid_interval"
    KindConflict         Kind = "conflict"
    KindInternal         Kind = "internal_error"
)

// ErrTableUnknown is the sentinel a Catalog implementation returns
// when no table matches the (table_id, restaurant_id) pair.  The
// engine translates it into a KindNotFound error.
var ErrTableUnknown = errors.New("table not found")

// ErrReservationUnknown is the sentinel a Store/Tx implementation
// returns when no reservation matches the requested id.
var ErrReservationUnknown = errors.New("reservation not found")

// Error is the failure type returned by every engine operation.
// Window is populated only for KindConflict and carries the existing
// reservation interval that blocked the request.
type Error struct {
    Kind    Kind
    Message string
    Window  *Window
    cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
    if e.cause != nil {
        return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
    }
    return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the Kind from an error returned by the engine.
// Unknown errors are reported as KindInternal.
func KindOf(err error) Kind {
    var e *Error
    if errors.As(err, &e) {
        return e.Kind
    }
    return KindInternal
}

// ConflictWindow returns the blocking interval carried by a conflict
// error, or nil when err is not a conflict.
func ConflictWindow(err error) *Window {
    var e *Error
    if errors.As(err, &e) && e.Kind == KindConflict {
        return e.Window
    }
    return nil
}

func newError(kind Kind, format string, args ...interface{}) *Error {
    return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func internalError(err error) *Error {
    return &Error{Kind: KindInternal, Message: "reservation store failure", cause: err}
}

func conflictError(w Window) *Error {
    win := w
    return &Error{
        Kind: KindConflict,
        Message: fmt.Sprintf("table already reserved from %s to %s on this day",
            w.Start.Format("15:04"), w.End.Format("15:04")),
        Window: &win,
    }
}

// Window is a half-open [Start, End) reservation interval.
type Window struct {
    Start time.Time `json:"start_time"`
    End   time.Time `json:"end_time"`
}
