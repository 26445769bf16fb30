package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pagesift/pagesift"
)

// priceRe matches a currency amount in visible price text.
var priceRe = regexp.MustCompile(`[$€£¥]\s?\d[\d.,]*|\d[\d.,]*\s?(?:USD|EUR|GBP|PLN)`)

// Ensure MetadataExtractor implements pagesift.MetadataExtractor at
// compile time.
var _ pagesift.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor implements pagesift.MetadataExtractor over goquery.
type MetadataExtractor struct{}

// NewMetadataExtractor creates a new MetadataExtractor.
func NewMetadataExtractor() *MetadataExtractor {
	return &MetadataExtractor{}
}

func (MetadataExtractor) ExtractMetadata(rawHTML string, rawURL string, ct pagesift.ContentType) (*pagesift.PageMetadata, error) {
	return ExtractMetadata(rawHTML, rawURL, ct)
}

// ExtractMetadata reads title, description, image, and type-specific fields
// from the page markup. It is used on the non-article path, where content
// is stored as lightly cleaned HTML instead of going through the
// extraction boundary.
func ExtractMetadata(rawHTML string, rawURL string, ct pagesift.ContentType) (*pagesift.PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, pagesift.Errorf(pagesift.EINTERNAL, "failed to parse HTML: %v", err)
	}

	md := &pagesift.PageMetadata{Fields: make(map[string]string)}

	md.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[name="twitter:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	md.Description = firstNonEmpty(
		metaContent(doc, `meta[property="og:description"]`),
		metaContent(doc, `meta[name="description"]`),
	)
	if img := firstNonEmpty(
		metaContent(doc, `meta[property="og:image"]`),
		metaContent(doc, `meta[name="twitter:image"]`),
	); img != "" {
		md.Fields["image"] = img
	}

	switch ct {
	case pagesift.ContentTypeProduct:
		extractProductFields(doc, md.Fields)
	case pagesift.ContentTypeSocial:
		extractSocialFields(doc, rawURL, md.Fields)
	case pagesift.ContentTypeVideo:
		extractVideoFields(doc, md.Fields)
	}

	return md, nil
}

func extractProductFields(doc *goquery.Document, fields map[string]string) {
	price := firstNonEmpty(
		metaContent(doc, `meta[property="product:price:amount"]`),
		metaContent(doc, `meta[property="og:price:amount"]`),
		itempropValue(doc, "price"),
	)
	if price == "" {
		// Visible price text as a last resort.
		doc.Find(`[class*="price"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := priceRe.FindString(s.Text()); m != "" {
				price = strings.TrimSpace(m)
				return false
			}
			return true
		})
	}
	if price != "" {
		fields["price"] = price
	}

	availability := firstNonEmpty(
		metaContent(doc, `meta[property="product:availability"]`),
		metaContent(doc, `meta[property="og:availability"]`),
		itempropValue(doc, "availability"),
	)
	if availability == "" {
		body := strings.ToLower(doc.Find("body").Text())
		switch {
		case strings.Contains(body, "out of stock"):
			availability = "out of stock"
		case strings.Contains(body, "in stock"):
			availability = "in stock"
		}
	}
	if availability != "" {
		// Schema.org values come as URLs (https://schema.org/InStock).
		if i := strings.LastIndex(availability, "/"); i >= 0 {
			availability = availability[i+1:]
		}
		fields["availability"] = availability
	}
}

func extractSocialFields(doc *goquery.Document, rawURL string, fields map[string]string) {
	author := firstNonEmpty(
		metaContent(doc, `meta[name="author"]`),
		metaContent(doc, `meta[property="article:author"]`),
		metaContent(doc, `meta[name="twitter:creator"]`),
	)
	if author != "" {
		fields["author"] = author
	}
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		fields["platform"] = u.Hostname()
	}
}

func extractVideoFields(doc *goquery.Document, fields map[string]string) {
	duration := firstNonEmpty(
		metaContent(doc, `meta[property="og:video:duration"]`),
		metaContent(doc, `meta[itemprop="duration"]`),
		itempropValue(doc, "duration"),
	)
	if duration != "" {
		fields["duration"] = duration
	}

	channel := firstNonEmpty(
		metaContent(doc, `meta[itemprop="channelId"]`),
		doc.Find(`[itemprop="author"] [itemprop="name"]`).First().AttrOr("content", ""),
		strings.TrimSpace(doc.Find(`[itemprop="author"] [itemprop="name"]`).First().Text()),
	)
	if channel != "" {
		fields["channel"] = channel
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

// itempropValue reads a microdata value from content attribute or text.
func itempropValue(doc *goquery.Document, prop string) string {
	sel := doc.Find(`[itemprop="` + prop + `"]`).First()
	if v := strings.TrimSpace(sel.AttrOr("content", "")); v != "" {
		return v
	}
	if v := strings.TrimSpace(sel.AttrOr("href", "")); v != "" {
		return v
	}
	return strings.TrimSpace(sel.Text())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
