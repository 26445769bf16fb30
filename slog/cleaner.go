package slog

import (
	"log/slog"
	"time"

	"github.com/pagesift/pagesift"
)

// Ensure LoggingCleaner implements pagesift.Cleaner.
var _ pagesift.Cleaner = (*LoggingCleaner)(nil)

// LoggingCleaner wraps a Cleaner with debug logging.
type LoggingCleaner struct {
	next   pagesift.Cleaner
	logger *slog.Logger
}

// NewLoggingCleaner creates a new LoggingCleaner.
func NewLoggingCleaner(next pagesift.Cleaner, logger *slog.Logger) *LoggingCleaner {
	return &LoggingCleaner{next: next, logger: logger}
}

// Clean delegates to the wrapped cleaner and logs the operation.
func (c *LoggingCleaner) Clean(html string, url string) (cleaned string, report *pagesift.CleaningReport, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		}
		if report != nil {
			attrs = append(attrs,
				"removed", len(report.Removed),
				"rules", report.AppliedRules,
				"reduction_pct", report.ReductionPercent,
			)
		}
		c.logger.Info("clean", attrs...)
	}(time.Now())
	return c.next.Clean(html, url)
}
