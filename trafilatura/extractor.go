// Package trafilatura implements the readable-content extraction boundary
// using go-trafilatura.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"github.com/pagesift/pagesift"
	"golang.org/x/net/html"
)

// Ensure Extractor implements pagesift.Extractor at compile time.
var _ pagesift.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to isolate main content from cleaned HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes cleaned HTML and returns the main content.
// Returns ENOTFOUND when no confident extraction is possible; that signal
// is terminal for the item, there is no fallback to unprocessed HTML.
func (e *Extractor) Extract(rawHTML string, rawURL string) (*pagesift.ExtractResult, error) {
	if rawHTML == "" {
		return nil, pagesift.Errorf(pagesift.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	if u, err := url.Parse(rawURL); err == nil {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, pagesift.Errorf(pagesift.ENOTFOUND, "no readable content: %v", err)
	}
	if result == nil || strings.TrimSpace(result.ContentText) == "" {
		return nil, pagesift.Errorf(pagesift.ENOTFOUND, "no readable content extracted")
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &pagesift.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
		Text:        result.ContentText,
		Byline:      result.Metadata.Author,
		SiteName:    result.Metadata.Sitename,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
