package domain

import (
	"fmt"
	"strings"
)

// ErrorKind enumerates the distinct, testable failure kinds of the engine.
type ErrorKind int

const (
	KindInvalidInput ErrorKind = iota
	KindInconsistentSchedule
	KindMissingCurve
	KindMissingMargin
	KindUnsupportedScenario
	KindMissingCurrencyShock
	KindDecomposition
	KindWorkerAggregated
)

// String returns the kind's canonical name.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindInconsistentSchedule:
		return "InconsistentSchedule"
	case KindMissingCurve:
		return "MissingCurve"
	case KindMissingMargin:
		return "MissingMargin"
	case KindUnsupportedScenario:
		return "UnsupportedScenario"
	case KindMissingCurrencyShock:
		return "MissingCurrencyShock"
	case KindDecomposition:
		return "DecompositionError"
	case KindWorkerAggregated:
		return "WorkerAggregatedError"
	}
	return "UnknownError"
}

// Error is the engine's typed error value. Consumers branch on Kind;
// the message carries the offending contract/scenario/index identifiers.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) an engine Error of the kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewInvalidInput builds an InvalidInput error.
func NewInvalidInput(format string, args ...interface{}) *Error {
	return newError(KindInvalidInput, format, args...)
}

// NewInconsistentSchedule builds an InconsistentSchedule error.
func NewInconsistentSchedule(format string, args ...interface{}) *Error {
	return newError(KindInconsistentSchedule, format, args...)
}

// NewMissingCurve builds a MissingCurve error.
func NewMissingCurve(format string, args ...interface{}) *Error {
	return newError(KindMissingCurve, format, args...)
}

// NewMissingMargin builds a MissingMargin error.
func NewMissingMargin(format string, args ...interface{}) *Error {
	return newError(KindMissingMargin, format, args...)
}

// NewUnsupportedScenario builds an UnsupportedScenario error.
func NewUnsupportedScenario(format string, args ...interface{}) *Error {
	return newError(KindUnsupportedScenario, format, args...)
}

// NewMissingCurrencyShock builds a MissingCurrencyShock error.
func NewMissingCurrencyShock(format string, args ...interface{}) *Error {
	return newError(KindMissingCurrencyShock, format, args...)
}

// NewDecomposition builds a DecompositionError.
func NewDecomposition(format string, args ...interface{}) *Error {
	return newError(KindDecomposition, format, args...)
}

// WorkerError tags a worker failure with the scenario it was computing.
type WorkerError struct {
	ScenarioID string
	Err        error
}

func (w WorkerError) Error() string {
	return fmt.Sprintf("scenario %s: %v", w.ScenarioID, w.Err)
}

func (w WorkerError) Unwrap() error { return w.Err }

// NewWorkerAggregated collects all worker failures of a calculation into a
// single error. No partial results accompany it.
func NewWorkerAggregated(failures []WorkerError) *Error {
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = f.Error()
	}
	e := newError(KindWorkerAggregated, "%d scenario worker(s) failed: %s",
		len(failures), strings.Join(parts, "; "))
	if len(failures) > 0 {
		e.Err = failures[0].Err
	}
	return e
}
