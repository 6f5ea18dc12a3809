package paper

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures
type Kind string

const (
	KindConfiguration Kind = "Configuration"
	KindValidation    Kind = "Validation"
	KindNetwork       Kind = "Network"
	KindExtraction    Kind = "Extraction"
	KindParsing       Kind = "Parsing"
	KindPersistence   Kind = "Persistence"
)

// Error is the error type surfaced by every pipeline stage
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error in %s: %s: %v", e.Kind, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches against the per-kind sentinels, so errors.Is(err, ErrParsing) works
// for any parsing failure regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrNetwork       = &Error{Kind: KindNetwork}
	ErrExtraction    = &Error{Kind: KindExtraction}
	ErrParsing       = &Error{Kind: KindParsing}
	ErrPersistence   = &Error{Kind: KindPersistence}
)

// ErrPageOutOfRange is wrapped when a page deletion targets a page the PDF does not have
var ErrPageOutOfRange = errors.New("page out of range")

// NewError creates a new Error
func NewError(kind Kind, op, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Wrap returns err unchanged when it already carries a Kind, otherwise wraps it
// with the given kind.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return NewError(kind, op, message, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
