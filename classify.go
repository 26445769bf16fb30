package pagesift

import "context"

// Classifier resolves the content type of a page before a cleaning and
// extraction strategy is chosen.
type Classifier interface {
	// Classify returns the content type for a URL. The raw HTML, when
	// available, may be consulted for a fallback remote classification;
	// it may be empty. Classify never fails: anything unclassifiable
	// resolves to ContentTypeOther.
	Classify(ctx context.Context, url string, html string) ContentType
}

// LabelService submits a page snippet to a remote classification service
// constrained to the fixed label vocabulary.
type LabelService interface {
	// ClassifySnippet returns a single label token for the snippet.
	// Returns EUNAVAILABLE if the service cannot be reached.
	ClassifySnippet(ctx context.Context, url string, snippet string) (string, error)
}
