package mock

import "github.com/pagesift/pagesift"

var _ pagesift.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor is a mock implementation of pagesift.MetadataExtractor.
type MetadataExtractor struct {
	ExtractMetadataFn func(html string, url string, contentType pagesift.ContentType) (*pagesift.PageMetadata, error)
}

func (m *MetadataExtractor) ExtractMetadata(html string, url string, contentType pagesift.ContentType) (*pagesift.PageMetadata, error) {
	return m.ExtractMetadataFn(html, url, contentType)
}
