// Package classify resolves content types for submitted URLs. Curated
// hostname and path tables answer most pages without any remote work; only
// inconclusive pages are sent to a remote label service.
package classify

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pagesift/pagesift"
)

// DefaultSnippetLimit caps the body-text prefix sent to the remote
// label service.
const DefaultSnippetLimit = 1500

// Ensure Classifier implements pagesift.Classifier at compile time.
var _ pagesift.Classifier = (*Classifier)(nil)

// Curated hostname tables. Matching any of these short-circuits
// classification before any remote call is made.
var (
	socialHosts = []string{
		"twitter.com", "x.com", "facebook.com", "instagram.com",
		"reddit.com", "linkedin.com", "tiktok.com", "threads.net",
		"mastodon.social", "bsky.app", "news.ycombinator.com",
	}
	videoHosts = []string{
		"youtube.com", "youtu.be", "vimeo.com", "twitch.tv",
		"dailymotion.com",
	}
	productHosts = []string{
		"amazon.com", "ebay.com", "etsy.com", "aliexpress.com",
		"walmart.com", "bestbuy.com", "allegro.pl",
	}
	articleHosts = []string{
		"medium.com", "substack.com", "wordpress.com", "blogspot.com",
		"dev.to", "theguardian.com", "nytimes.com", "bbc.com", "bbc.co.uk",
		"reuters.com", "arstechnica.com", "wired.com",
	}
)

// Path patterns consulted after the hostname tables.
var (
	productPathRe = regexp.MustCompile(`(?i)/(product|products|dp|item|itm|listing|shop)(/|$)`)
	articlePathRe = regexp.MustCompile(`(?i)/(blog|article|articles|news|post|posts|story|stories)(/|$)|/20\d{2}/\d{1,2}/`)
	videoPathRe   = regexp.MustCompile(`(?i)/(watch|video|videos)(/|$)`)
)

// pdfPathRe detects PDFs by extension, including versioned query-less paths.
var pdfPathRe = regexp.MustCompile(`(?i)\.pdf$`)

// Classifier resolves content types via URL heuristics with an optional
// remote fallback.
type Classifier struct {
	// Labels is the remote classification service consulted when the URL
	// heuristics are inconclusive. Nil disables the fallback.
	Labels pagesift.LabelService

	// SnippetLimit caps the body-text prefix included in the remote
	// snippet. Defaults to DefaultSnippetLimit.
	SnippetLimit int
}

// Classify returns the content type for the URL. The heuristics run first
// and return immediately on a match; the remote service only sees pages
// the tables cannot place. Anything unclassifiable, including a remote
// failure or an invalid label, resolves to ContentTypeOther.
func (c *Classifier) Classify(ctx context.Context, rawURL string, rawHTML string) pagesift.ContentType {
	if ct, ok := ClassifyURL(rawURL); ok {
		return ct
	}

	if c.Labels == nil || rawHTML == "" {
		return pagesift.ContentTypeOther
	}

	limit := c.SnippetLimit
	if limit <= 0 {
		limit = DefaultSnippetLimit
	}
	snippet := Snippet(rawHTML, limit)
	if snippet == "" {
		return pagesift.ContentTypeOther
	}

	label, err := c.Labels.ClassifySnippet(ctx, rawURL, snippet)
	if err != nil {
		return pagesift.ContentTypeOther
	}
	label = strings.ToLower(strings.TrimSpace(label))
	if !pagesift.ValidContentType(label) || label == string(pagesift.ContentTypePDF) {
		return pagesift.ContentTypeOther
	}
	return pagesift.ContentType(label)
}

// ClassifyURL applies the curated hostname and path tables.
// The second return value reports whether the tables were conclusive.
func ClassifyURL(rawURL string) (pagesift.ContentType, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return pagesift.ContentTypeOther, false
	}
	host := u.Hostname()

	switch {
	case pagesift.HostMatches(host, socialHosts):
		return pagesift.ContentTypeSocial, true
	case pagesift.HostMatches(host, videoHosts):
		return pagesift.ContentTypeVideo, true
	case pagesift.HostMatches(host, productHosts):
		return pagesift.ContentTypeProduct, true
	case pagesift.HostMatches(host, articleHosts):
		return pagesift.ContentTypeArticle, true
	}

	switch {
	case videoPathRe.MatchString(u.Path):
		return pagesift.ContentTypeVideo, true
	case productPathRe.MatchString(u.Path):
		return pagesift.ContentTypeProduct, true
	case articlePathRe.MatchString(u.Path):
		return pagesift.ContentTypeArticle, true
	}

	return pagesift.ContentTypeOther, false
}

// IsPDF detects PDFs independently of the classifier, by URL extension or
// response content type. PDF items bypass classification entirely.
func IsPDF(rawURL string, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return pdfPathRe.MatchString(u.Path)
}

// Snippet extracts the bounded region submitted to the remote label
// service: the header metadata (title, meta description, open graph type)
// plus a fixed prefix of the body text.
func Snippet(rawHTML string, limit int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		sb.WriteString("title: " + title + "\n")
	}
	if desc := strings.TrimSpace(doc.Find(`meta[name="description"]`).First().AttrOr("content", "")); desc != "" {
		sb.WriteString("description: " + desc + "\n")
	}
	if ogType := strings.TrimSpace(doc.Find(`meta[property="og:type"]`).First().AttrOr("content", "")); ogType != "" {
		sb.WriteString("og:type: " + ogType + "\n")
	}

	body := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(body) > limit {
		body = body[:limit]
	}
	if body != "" {
		sb.WriteString("body: " + body)
	}

	return strings.TrimSpace(sb.String())
}
