package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can tell a bad request from a
// forbidden state from an unreachable authority.
type Kind int

const (
	// KindValidation: malformed or out-of-range input.
	KindValidation Kind = iota + 1
	// KindState: the current state forbids the operation.
	KindState
	// KindIntegration: the authority failed, timed out or answered with
	// an absent or malformed response.
	KindIntegration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindIntegration:
		return "integration"
	}
	return "unknown"
}

// Error is the typed failure returned by every engine operation.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "hold" or "sell"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Op + ": " + e.Kind.String() + ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func validationErr(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func stateErr(op, format string, args ...any) error {
	return &Error{Kind: KindState, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func integrationErr(op string, err error, format string, args ...any) error {
	return &Error{Kind: KindIntegration, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsState reports whether err is a state conflict.
func IsState(err error) bool { return kindOf(err) == KindState }

// IsIntegration reports whether err is an authority failure.
func IsIntegration(err error) bool { return kindOf(err) == KindIntegration }

// ErrSyncInProgress is returned by CatalogSync.SyncAll when another run,
// local or on another instance, holds the sync lock.
var ErrSyncInProgress = errors.New("catalog sync already in progress")
