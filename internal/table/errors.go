package table

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by a warehouse run. Each kind is a
// sentinel usable with errors.Is.
type ErrorKind string

func (k ErrorKind) Error() string { return string(k) }

const (
	// ErrSchemaMismatch: a required column is missing, or a rename collides.
	ErrSchemaMismatch ErrorKind = "schema mismatch"
	// ErrParse: a value could not be interpreted as its declared type.
	ErrParse ErrorKind = "parse error"
	// ErrIO: source or sink storage failed.
	ErrIO ErrorKind = "io error"
	// ErrNotFound: a named source extract does not exist.
	ErrNotFound ErrorKind = "not found"
	// ErrEmptyInput: an input has no header row.
	ErrEmptyInput ErrorKind = "empty input"
)

// Error carries a kind, the operation that failed, and the cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return string(e.Kind)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind. A nil err yields nil.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a tagged error from a format string.
func Errorf(kind ErrorKind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
