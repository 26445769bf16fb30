package pagesift

import "context"

// ExtractResult holds the readable content isolated from a page.
type ExtractResult struct {
	// Title is the candidate title from page metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	ContentHTML string

	// Text is the plain-text rendering of the main content.
	Text string

	// Byline is the author attribution, when detected.
	Byline string

	// SiteName is the publishing site name, when detected.
	SiteName string
}

// Extractor isolates the main readable content of a cleaned HTML page.
// Only the article path goes through an Extractor.
type Extractor interface {
	// Extract processes cleaned HTML and returns the main content.
	// Returns ENOTFOUND when no confident extraction is possible; that is
	// terminal for the item, with no fallback to unprocessed HTML.
	Extract(html string, url string) (*ExtractResult, error)
}

// PageMetadata holds fields read directly from markup for content that
// skips the extraction boundary.
type PageMetadata struct {
	Title       string
	Description string

	// Fields holds type-specific metadata (price, author, duration, ...).
	Fields map[string]string
}

// MetadataExtractor reads display metadata from page markup. It serves the
// non-article path, where pages are stored as metadata plus lightly
// cleaned markup instead of going through an Extractor.
type MetadataExtractor interface {
	ExtractMetadata(html string, url string, contentType ContentType) (*PageMetadata, error)
}

// PDFResult holds text extracted from a PDF by the remote collaborator.
type PDFResult struct {
	Title string
	Text  string
	Pages int
	Bytes int
}

// PDFService extracts text from PDFs via a remote collaborator.
type PDFService interface {
	// ExtractText downloads and extracts the PDF at the URL.
	// Returns EUNAVAILABLE if the collaborator cannot be reached.
	ExtractText(ctx context.Context, url string) (*PDFResult, error)
}
