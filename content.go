package pagesift

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// ContentType labels the kind of page an item points at. The label decides
// the processing strategy: articles go through the extraction boundary and
// normalization, every other label takes the metadata-only path.
type ContentType string

// Content type labels. ContentTypeOther is the fallback for anything the
// classifier cannot place.
const (
	ContentTypeArticle ContentType = "article"
	ContentTypeProduct ContentType = "product"
	ContentTypeSocial  ContentType = "social"
	ContentTypeVideo   ContentType = "video"
	ContentTypeOther   ContentType = "other"
	ContentTypePDF     ContentType = "pdf"
)

// ContentTypes is the fixed label vocabulary the classifier is constrained
// to. PDF is detected separately and never returned by the classifier.
var ContentTypes = []ContentType{
	ContentTypeArticle,
	ContentTypeProduct,
	ContentTypeSocial,
	ContentTypeVideo,
	ContentTypeOther,
	ContentTypePDF,
}

// ValidContentType reports whether s is a known label.
func ValidContentType(s string) bool {
	for _, ct := range ContentTypes {
		if string(ct) == s {
			return true
		}
	}
	return false
}

// ContentRecord represents the persisted result of ingesting one item.
type ContentRecord struct {
	ID          string            `json:"id"`
	ItemID      string            `json:"itemId"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	ContentHash string            `json:"contentHash"`
	Preview     string            `json:"preview"`
	ContentType ContentType       `json:"contentType"`
	SourceURL   string            `json:"sourceUrl"`
	Hostname    string            `json:"hostname"`
	Byline      string            `json:"byline,omitempty"`
	SiteName    string            `json:"siteName,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Score       float64           `json:"score"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Validate returns an error if the content record contains invalid fields.
func (c *ContentRecord) Validate() error {
	if c.ItemID == "" {
		return Errorf(EINVALID, "content item ID required")
	}
	if c.SourceURL == "" {
		return Errorf(EINVALID, "content source URL required")
	}
	if c.ContentType == "" {
		return Errorf(EINVALID, "content type required")
	}
	return nil
}

// ContentService represents a service for managing content records.
type ContentService interface {
	// CreateContent creates a new content record.
	CreateContent(ctx context.Context, record *ContentRecord) error

	// FindContentByID retrieves a content record by ID.
	// Returns ENOTFOUND if the record does not exist.
	FindContentByID(ctx context.Context, id string) (*ContentRecord, error)

	// FindContents retrieves content records matching the filter.
	FindContents(ctx context.Context, filter ContentFilter) ([]*ContentRecord, error)
}

// ContentFilter represents a filter for FindContents.
type ContentFilter struct {
	ID          *string      `json:"id"`
	ItemID      *string      `json:"itemId"`
	Hostname    *string      `json:"hostname"`
	ContentType *ContentType `json:"contentType"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// DefaultPreviewLength is the rune budget for content previews.
const DefaultPreviewLength = 300

// MakePreview returns the first n runes of text with collapsed whitespace,
// suitable for list views. An ellipsis marks truncation.
func MakePreview(text string, n int) string {
	if n <= 0 {
		n = DefaultPreviewLength
	}
	collapsed := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(collapsed) <= n {
		return collapsed
	}
	runes := []rune(collapsed)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
