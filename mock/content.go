package mock

import (
	"context"

	"github.com/pagesift/pagesift"
)

var _ pagesift.ContentService = (*ContentService)(nil)

// ContentService is a mock implementation of pagesift.ContentService.
type ContentService struct {
	CreateContentFn   func(ctx context.Context, record *pagesift.ContentRecord) error
	FindContentByIDFn func(ctx context.Context, id string) (*pagesift.ContentRecord, error)
	FindContentsFn    func(ctx context.Context, filter pagesift.ContentFilter) ([]*pagesift.ContentRecord, error)
}

func (s *ContentService) CreateContent(ctx context.Context, record *pagesift.ContentRecord) error {
	return s.CreateContentFn(ctx, record)
}

func (s *ContentService) FindContentByID(ctx context.Context, id string) (*pagesift.ContentRecord, error) {
	return s.FindContentByIDFn(ctx, id)
}

func (s *ContentService) FindContents(ctx context.Context, filter pagesift.ContentFilter) ([]*pagesift.ContentRecord, error) {
	return s.FindContentsFn(ctx, filter)
}
