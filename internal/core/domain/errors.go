package domain

import (
	"errors"
	"fmt"
)

// Reason is the closed set of outcomes every core operation reports.
// The zero value is ReasonSuccess.
type Reason int

const (
	ReasonSuccess Reason = iota
	ReasonNotFound
	ReasonForbidden
	ReasonUnauthenticated
	ReasonUserNotFound
	ReasonDuplicateEmail
	ReasonDuplicateUsername
	ReasonWeakPassword
	ReasonInvalidCredentials
	ReasonAccountLocked
	ReasonConcurrencyError
	ReasonDatabaseError

	reasonCount
)

var reasonNames = [reasonCount]string{
	ReasonSuccess:            "Success",
	ReasonNotFound:           "NotFound",
	ReasonForbidden:          "Forbidden",
	ReasonUnauthenticated:    "Unauthenticated",
	ReasonUserNotFound:       "UserNotFound",
	ReasonDuplicateEmail:     "DuplicateEmail",
	ReasonDuplicateUsername:  "DuplicateUsername",
	ReasonWeakPassword:       "WeakPassword",
	ReasonInvalidCredentials: "InvalidCredentials",
	ReasonAccountLocked:      "AccountLocked",
	ReasonConcurrencyError:   "ConcurrencyError",
	ReasonDatabaseError:      "DatabaseError",
}

// Reasons returns every defined reason in declaration order.
func Reasons() []Reason {
	out := make([]Reason, 0, reasonCount)
	for r := ReasonSuccess; r < reasonCount; r++ {
		out = append(out, r)
	}
	return out
}

func (r Reason) String() string {
	if r < 0 || r >= reasonCount {
		return fmt.Sprintf("Reason(%d)", int(r))
	}
	return reasonNames[r]
}

// Error is the error type returned by the core. Message is safe to show to
// callers; Details carries per-field messages such as password violations.
type Error struct {
	Reason  Reason
	Message string
	Details []string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error carrying the same reason and message, so sentinels
// keep matching after Details are attached with WithDetails.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == e.Reason && t.Message == e.Message
}

// WithDetails returns a copy of e carrying the given details.
func (e *Error) WithDetails(details ...string) *Error {
	clone := *e
	clone.Details = append([]string(nil), details...)
	return &clone
}

// NewError builds an *Error with the given reason and message.
func NewError(reason Reason, message string) *Error {
	return &Error{Reason: reason, Message: message}
}

var (
	ErrTaskNotFound       = NewError(ReasonNotFound, "task not found")
	ErrNoteNotFound       = NewError(ReasonNotFound, "note not found")
	ErrForbidden          = NewError(ReasonForbidden, "access forbidden")
	ErrUnauthenticated    = NewError(ReasonUnauthenticated, "authentication required")
	ErrUserNotFound       = NewError(ReasonUserNotFound, "user not found")
	ErrDuplicateEmail     = NewError(ReasonDuplicateEmail, "Email already exists.")
	ErrDuplicateUsername  = NewError(ReasonDuplicateUsername, "Username already exists.")
	ErrWeakPassword       = NewError(ReasonWeakPassword, "Password does not meet the policy requirements.")
	ErrInvalidCredentials = NewError(ReasonInvalidCredentials, "Invalid username/email or password.")
	ErrAccountLocked      = NewError(ReasonAccountLocked, "Account is locked. Try again later.")
	ErrConcurrency        = NewError(ReasonConcurrencyError, "the task was modified by another request; reload and try again")
	ErrDatabase           = NewError(ReasonDatabaseError, "an internal storage error occurred")
)

// ReasonOf extracts the reason carried by err. A nil error is ReasonSuccess;
// an error without a *Error in its chain is treated as ReasonDatabaseError.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonSuccess
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ReasonDatabaseError
}

// Storage wraps an opaque storage failure as ErrDatabase, keeping the cause
// reachable through errors.Unwrap for logging.
func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var de *Error
	if errors.As(cause, &de) {
		return cause
	}
	return &storageError{op: op, cause: cause}
}

type storageError struct {
	op    string
	cause error
}

func (e *storageError) Error() string { return ErrDatabase.Message }

// Cause describes the underlying failure. It is meant for logs only.
func (e *storageError) Cause() string { return e.op + ": " + e.cause.Error() }

func (e *storageError) Unwrap() []error { return []error{ErrDatabase, e.cause} }

// CauseOf returns the most detailed description available for err, including
// the wrapped storage cause. It is meant for logs only.
func CauseOf(err error) string {
	var se *storageError
	if errors.As(err, &se) {
		return se.Cause()
	}
	return err.Error()
}
