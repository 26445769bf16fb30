package pagesift

// NormalizedContent is structured text produced from extracted HTML,
// plus the log of transformation steps that were applied.
type NormalizedContent struct {
	Text  string
	Steps []string
}

// Normalizer converts extracted main-content HTML into normalized
// structured text (markdown-style headings, lists, tables, links).
type Normalizer interface {
	// Normalize converts HTML to structured text. It never fails: on an
	// internal error it returns the input untouched with a step recording
	// the failure.
	Normalize(html string) *NormalizedContent
}
