// Package utils provides shared low-level helpers for the compio storage
// engine: buffer pooling, endianness, overflow-checked arithmetic, and the
// error taxonomy used across every component.
package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a compio failure into one of the public error
// kinds. Callers compare against the exported sentinels with errors.Is
// rather than switching on this type directly.
type ErrorKind string

// The eight error kinds of the public error taxonomy.
const (
	KindInvalidArgument ErrorKind = "invalid-argument"
	KindNameTooLong     ErrorKind = "name-too-long"
	KindTooManyFiles    ErrorKind = "too-many-files"
	KindReadOnly        ErrorKind = "read-only"
	KindNoSuchFile      ErrorKind = "no-such-file"
	KindIOError         ErrorKind = "io-error"
	KindCorruptArchive  ErrorKind = "corrupt-archive"
	KindOutOfMemory     ErrorKind = "out-of-memory"
)

// ArchiveError is a structured compio error: an ErrorKind, the operation
// that failed, and the underlying cause — a single wrapper every
// component returns through.
type ArchiveError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap provides compatibility with errors.Is / errors.As.
func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an ArchiveError of the same Kind, so that
// errors.Is(err, utils.NewError(utils.KindNoSuchFile, "", nil)) comparisons
// work without pinning Op or the wrapped cause.
func (e *ArchiveError) Is(target error) bool {
	t, ok := target.(*ArchiveError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError constructs an ArchiveError. cause may be nil.
func NewError(kind ErrorKind, op string, cause error) *ArchiveError {
	return &ArchiveError{Kind: kind, Op: op, Err: cause}
}

// WrapError wraps cause as an io-error ArchiveError tagged with op. It
// returns nil when cause is nil, so call sites can return WrapError(op,
// err) unconditionally.
func WrapError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &ArchiveError{Kind: KindIOError, Op: op, Err: cause}
}

// KindOf extracts the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var ae *ArchiveError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}
