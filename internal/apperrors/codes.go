// Package apperrors provides the structured error type used across the
// core: five kinds (TransientIO, PermanentIO, Decoding, IndexCorruption,
// Cancellation), each with a propagation policy the crawl pipeline and
// index store consult before deciding whether to skip, abandon, or
// surface.
package apperrors

// Kind is one of the five error kinds a crawl or index operation can fail with.
type Kind string

const (
	// KindTransientIO covers read-interrupted or file-vanished-mid-stat
	// errors: logged at debug, the file is skipped, the crawl continues.
	KindTransientIO Kind = "TRANSIENT_IO"

	// KindPermanentIO covers e.g. a root that fails to open: logged at
	// warn, that root is abandoned for the current crawl, others continue.
	KindPermanentIO Kind = "PERMANENT_IO"

	// KindDecoding covers non-UTF-8/ill-formed byte sequences: never
	// fatal, decoded with replacement upstream of this error type ever
	// being constructed for that case specifically.
	KindDecoding Kind = "DECODING"

	// KindIndexCorruption is surfaced to the caller at init; the only
	// recovery is Reset() then rebuild.
	KindIndexCorruption Kind = "INDEX_CORRUPTION"

	// KindCancellation is not really an error condition; it exists so
	// callers can use errors.As uniformly, but a cancelled crawl reports
	// through its observable status, never through a returned error.
	KindCancellation Kind = "CANCELLATION"
)

// Severity mirrors the propagation policy each Kind carries.
type Severity string

const (
	SeverityDebug Severity = "DEBUG" // TransientIO
	SeverityWarn  Severity = "WARN"  // PermanentIO
	SeverityNone  Severity = "NONE"  // Decoding (never fatal, no propagation)
	SeverityFatal Severity = "FATAL" // IndexCorruption
	SeverityInfo  Severity = "INFO"  // Cancellation
)

func severityFor(k Kind) Severity {
	switch k {
	case KindTransientIO:
		return SeverityDebug
	case KindPermanentIO:
		return SeverityWarn
	case KindDecoding:
		return SeverityNone
	case KindIndexCorruption:
		return SeverityFatal
	case KindCancellation:
		return SeverityInfo
	default:
		return SeverityWarn
	}
}
