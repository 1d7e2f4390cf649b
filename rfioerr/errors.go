/*******************************************************************************
*
* rfioerr collects the error taxonomy shared by every codec package in this
* module (align, eofread, mask, dds, rfits). It plays the role that
* errorcollector.go plays in the teacher repo: a small, dependency-free
* aggregation and tagging helper, not a retry or recovery mechanism.
*
*******************************************************************************/

package rfioerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way spec.md §7 names them. Kind is a closed
// taxonomy; callers branch on it with KindOf, not with errors.Is against
// package-level sentinels.
type Kind int

const (
	// KindNone is the zero value; KindOf returns it for errors that were not
	// produced by this package (including plain io.EOF/io.ErrUnexpectedEOF
	// from an underlying stream that never passed through New).
	KindNone Kind = iota
	KindIO
	KindUnexpectedEOF
	KindMalformed
	KindTypeMismatch
	KindShapeMismatch
	KindNotFound
	KindNameCollision
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindUnexpectedEOF:
		return "unexpected-eof"
	case KindMalformed:
		return "malformed"
	case KindTypeMismatch:
		return "type-mismatch"
	case KindShapeMismatch:
		return "shape-mismatch"
	case KindNotFound:
		return "not-found"
	case KindNameCollision:
		return "name-collision"
	case KindInvalidArgument:
		return "invalid-argument"
	default:
		return "none"
	}
}

// Error is the concrete error type returned by this module's codecs. Op
// names the component/operation that detected the problem (e.g.
// "dds.ReadHeader", "rfits.Decoder.Next"); Path carries whatever
// positional context is available (a file path, a byte offset, a record
// index) the way dumpRpmHeader attaches a section identifier to its errors.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error. Path may be empty.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Newf is New with an fmt.Errorf-style wrapped cause.
func Newf(kind Kind, op, path, format string, args ...interface{}) *Error {
	return New(kind, op, path, fmt.Errorf(format, args...))
}

// KindOf extracts the Kind from err, walking Unwrap chains. Returns KindNone
// if no *Error is found anywhere in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ErrorCollector aggregates errors encountered while validating or parsing
// a batch of independent items (header records, HDUs, archive entries) for
// collective reporting, exactly as errorcollector.go does for package
// validation errors.
type ErrorCollector struct {
	Errors []error
}

// Add appends err to the collector if it is non-nil. Safe to call with a nil
// error so callers can write c.Add(mayFail()) unconditionally.
func (c *ErrorCollector) Add(err error) {
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}

// Addf appends a new error built from a format string and optional args. If
// no args are given, format is used as a literal error string.
func (c *ErrorCollector) Addf(format string, args ...interface{}) {
	if len(args) > 0 {
		c.Errors = append(c.Errors, fmt.Errorf(format, args...))
	} else {
		c.Errors = append(c.Errors, errors.New(format))
	}
}

// Err returns nil if the collector is empty, the sole error if there is
// exactly one, or a combined error listing all of them otherwise.
func (c *ErrorCollector) Err() error {
	switch len(c.Errors) {
	case 0:
		return nil
	case 1:
		return c.Errors[0]
	default:
		return errors.Join(c.Errors...)
	}
}
