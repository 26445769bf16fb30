// Package readability implements the readable-content extraction boundary
// using go-readability.
package readability

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/pagesift/pagesift"
)

// Ensure Extractor implements pagesift.Extractor at compile time.
var _ pagesift.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to isolate main content from cleaned HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes cleaned HTML and returns the main content.
// Returns ENOTFOUND when no confident extraction is possible.
func (e *Extractor) Extract(rawHTML string, rawURL string) (*pagesift.ExtractResult, error) {
	if rawHTML == "" {
		return nil, pagesift.Errorf(pagesift.EINVALID, "empty HTML input")
	}

	pageURL, _ := url.Parse(rawURL)

	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, pagesift.Errorf(pagesift.ENOTFOUND, "no readable content: %v", err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, pagesift.Errorf(pagesift.ENOTFOUND, "no readable content extracted")
	}

	return &pagesift.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
		Text:        article.TextContent,
		Byline:      article.Byline,
		SiteName:    article.SiteName,
	}, nil
}
