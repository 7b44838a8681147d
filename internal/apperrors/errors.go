package apperrors

import "fmt"

// Error is the structured error type used across the core. It carries
// enough context for the crawl pipeline's per-error propagation policy
// without callers needing to string-match messages.
type Error struct {
	Kind    Kind
	Op      string // the operation that failed, e.g. "crawl.enumerate"
	Path    string // the file or root path involved, if any
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %s", e.Op, e.Message, e.Path, e.errString())
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Message, e.errString())
}

func (e *Error) errString() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Severity returns the propagation severity for this error's Kind.
func (e *Error) Severity() Severity {
	return severityFor(e.Kind)
}

// New constructs an Error of the given kind.
func New(kind Kind, op, path, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Message: message, Cause: cause}
}

// TransientIO wraps a per-file error that should be skipped and logged
// at debug level (a file that vanished mid-stat, an interrupted read).
func TransientIO(op, path string, cause error) *Error {
	return New(KindTransientIO, op, path, "transient I/O error", cause)
}

// PermanentIO wraps a per-root error that should abandon that root for
// the current crawl (e.g. the root fails to open).
func PermanentIO(op, path string, cause error) *Error {
	return New(KindPermanentIO, op, path, "permanent I/O error", cause)
}

// IndexCorruption wraps an unrecoverable on-disk index error. The only
// recovery is Reset() followed by a rebuild.
func IndexCorruption(op, path string, cause error) *Error {
	return New(KindIndexCorruption, op, path, "index corrupted", cause)
}

// Is supports errors.Is comparisons against a Kind sentinel created via
// New with a nil cause, e.g. errors.Is(err, apperrors.New(apperrors.KindIndexCorruption, "", "", "", nil)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
