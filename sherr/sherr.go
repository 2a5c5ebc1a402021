// Package sherr defines the typed error taxonomy the engine and its
// components surface to callers, following the shape of
// sheetcore/interpreter's RuntimeError/RecoverableError: a small comparable
// struct carrying a Kind tag plus a human Message, rather than a forest of
// distinct error types or panics.
package sherr

import "fmt"

// Kind tags the class of failure a caller can branch on with errors.Is
// against the package-level sentinel values below.
type Kind string

const (
	InvalidArgument  Kind = "InvalidArgument"
	NotFound         Kind = "NotFound"
	Conflict         Kind = "Conflict"
	GridOverflow     Kind = "GridOverflow"
	UnsupportedFormat Kind = "UnsupportedFormat"
)

// Error is the concrete error value every component returns for a
// validation or state failure. Formula evaluation failures are not
// Errors — they are ErrorValue results living inside a cell, per the
// engine's "formula errors are never thrown" policy.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is(err, sherr.InvalidArgument) work by comparing Kind
// tags; callers may also match with errors.As(&sherr.Error{}).
func (e *Error) Is(target error) bool {
	k, ok := target.(interface{ sentinelKind() Kind })
	if !ok {
		return false
	}
	return e.Kind == k.sentinelKind()
}

type sentinel Kind

func (s sentinel) Error() string    { return string(s) }
func (s sentinel) sentinelKind() Kind { return Kind(s) }

// Sentinels usable with errors.Is(err, sherr.ErrNotFound) etc.
var (
	ErrInvalidArgument  error = sentinel(InvalidArgument)
	ErrNotFound         error = sentinel(NotFound)
	ErrConflict         error = sentinel(Conflict)
	ErrGridOverflow     error = sentinel(GridOverflow)
	ErrUnsupportedFormat error = sentinel(UnsupportedFormat)
)

// New constructs an *Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
