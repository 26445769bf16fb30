package pagesift

import "time"

// MetricsRecorder observes rule engine and scorer invocations. It is purely
// observational and never affects pipeline outcomes. Implementations must be
// safe for concurrent use; the pipeline records from concurrently running
// item workers.
type MetricsRecorder interface {
	// RecordCleaning records one rule engine invocation for a hostname.
	// The report may be nil when the engine failed before producing one.
	RecordCleaning(hostname string, report *CleaningReport, d time.Duration, err error)

	// RecordScore records one scorer invocation for a hostname.
	RecordScore(hostname string, score *QualityScore, d time.Duration)
}

// NopMetrics is a MetricsRecorder that discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordCleaning(string, *CleaningReport, time.Duration, error) {}
func (NopMetrics) RecordScore(string, *QualityScore, time.Duration)             {}
