package crawl

import (
	"log/slog"

	"github.com/DrDavidL/my-search-buddy/internal/apperrors"
)

// logAppError logs err at the level its Severity dictates: TransientIO at
// debug, PermanentIO at warn, IndexCorruption at error, everything else
// (Decoding, Cancellation) at info.
func logAppError(err *apperrors.Error) {
	attrs := []any{slog.String("op", err.Op), slog.String("error", err.Error())}
	if err.Path != "" {
		attrs = append(attrs, slog.String("path", err.Path))
	}
	switch err.Severity() {
	case apperrors.SeverityDebug:
		slog.Debug("crawl_error", attrs...)
	case apperrors.SeverityWarn:
		slog.Warn("crawl_error", attrs...)
	case apperrors.SeverityFatal:
		slog.Error("crawl_error", attrs...)
	default:
		slog.Info("crawl_error", attrs...)
	}
}
