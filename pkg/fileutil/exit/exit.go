// Package exit defines the process result categories reported by fileutil
// and the error types that carry them.
//
// A command returns a *Error (or Errors, for collected validation failures)
// and main maps it to a process exit status with CodeOf.
package exit

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a process exit status.
type Code int

// Exit codes. The numeric values are part of the command-line contract.
const (
	Success Code = iota
	InvalidArgumentSyntax
	InvalidAction
	MissingRequiredOption
	BadOptionValue
	FileNotFound
	FileOpenFailed
	BadFile
	Internal
)

// String returns the category name.
func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case InvalidArgumentSyntax:
		return "invalid argument syntax"
	case InvalidAction:
		return "invalid action"
	case MissingRequiredOption:
		return "missing required option"
	case BadOptionValue:
		return "bad option value"
	case FileNotFound:
		return "file not found"
	case FileOpenFailed:
		return "file open failed"
	case BadFile:
		return "bad file"
	default:
		return "internal error"
	}
}

// Error is an error tagged with the exit category it should produce.
type Error struct {
	Code Code
	Err  error
}

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with code. It returns nil if err is nil.
func Wrap(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errors is a list of collected validation failures. Its message is the
// newline-joined message of every element.
type Errors []*Error

// Add appends a new categorized error to the list.
func (es *Errors) Add(code Code, format string, args ...any) {
	*es = append(*es, New(code, format, args...))
}

// Merge appends err to the list. The elements of an Errors are appended
// individually; an uncategorized error is recorded as Internal.
func (es *Errors) Merge(err error) {
	if err == nil {
		return
	}

	var list Errors
	if errors.As(err, &list) {
		*es = append(*es, list...)
		return
	}

	var e *Error
	if errors.As(err, &e) {
		*es = append(*es, e)
		return
	}
	*es = append(*es, &Error{Code: Internal, Err: err})
}

// Err returns nil for an empty list and the list itself otherwise.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// Error implements the error interface.
func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the elements to errors.Is and errors.As.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// Code returns the category of the first error, or Success for an empty list.
func (es Errors) Code() Code {
	if len(es) == 0 {
		return Success
	}
	return es[0].Code
}

// CodeOf returns the exit code for err. A nil error is Success, an
// uncategorized one Internal.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}

	var list Errors
	if errors.As(err, &list) {
		return list.Code()
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}
