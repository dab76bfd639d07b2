// Package kerrors defines the error-kind taxonomy shared by every layer of
// the runtime, from the asset-bundle reader up through the session façade.
//
// The source discipline this mirrors is result-types, not exceptions: every
// fallible call returns an error, and callers that need to branch on the
// failure mode check its Kind rather than pattern-matching strings.
package kerrors

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Other covers errors that don't need a specific kind, such as an
	// underlying I/O failure surfaced verbatim.
	Other Kind = iota
	InvalidArgument
	NotFound
	IncompleteBPE
	Internal
	DataLoss
	Unimplemented
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case NotFound:
		return "not found"
	case IncompleteBPE:
		return "incomplete bpe sequence"
	case Internal:
		return "internal"
	case DataLoss:
		return "data loss"
	case Unimplemented:
		return "unimplemented"
	default:
		return "error"
	}
}

// Error is a tagged-variant error: a Kind plus the operation that failed and
// the underlying cause (which may itself be a *Error, forming a chain).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a *Error from a message.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Newf builds a *Error from a formatted message.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap tags an existing error with a kind and the operation (typically a
// pipeline stage name) that observed it.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether the first *Error found in err's chain (err itself or
// the outermost *Error it wraps) carries the given Kind. Kinds of *Errors
// wrapped further down that chain are not consulted.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or Other if err isn't a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
