package mock

import (
	"context"

	"github.com/pagesift/pagesift"
)

var _ pagesift.LabelService = (*LabelService)(nil)

// LabelService is a mock implementation of pagesift.LabelService.
type LabelService struct {
	ClassifySnippetFn func(ctx context.Context, url string, snippet string) (string, error)
}

func (s *LabelService) ClassifySnippet(ctx context.Context, url string, snippet string) (string, error) {
	return s.ClassifySnippetFn(ctx, url, snippet)
}
