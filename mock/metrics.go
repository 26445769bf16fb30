package mock

import (
	"time"

	"github.com/pagesift/pagesift"
)

var _ pagesift.MetricsRecorder = (*MetricsRecorder)(nil)

// MetricsRecorder is a mock implementation of pagesift.MetricsRecorder.
type MetricsRecorder struct {
	RecordCleaningFn func(hostname string, report *pagesift.CleaningReport, d time.Duration, err error)
	RecordScoreFn    func(hostname string, score *pagesift.QualityScore, d time.Duration)
}

func (m *MetricsRecorder) RecordCleaning(hostname string, report *pagesift.CleaningReport, d time.Duration, err error) {
	if m.RecordCleaningFn != nil {
		m.RecordCleaningFn(hostname, report, d, err)
	}
}

func (m *MetricsRecorder) RecordScore(hostname string, score *pagesift.QualityScore, d time.Duration) {
	if m.RecordScoreFn != nil {
		m.RecordScoreFn(hostname, score, d)
	}
}
