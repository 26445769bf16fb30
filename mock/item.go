package mock

import (
	"context"

	"github.com/pagesift/pagesift"
)

var _ pagesift.ItemService = (*ItemService)(nil)

// ItemService is a mock implementation of pagesift.ItemService.
type ItemService struct {
	CreateItemsFn   func(ctx context.Context, batchID string, items []pagesift.NewItem) (int, error)
	FindItemByIDFn  func(ctx context.Context, id string) (*pagesift.Item, error)
	FindItemsFn     func(ctx context.Context, filter pagesift.ItemFilter) ([]*pagesift.Item, error)
	MarkFetchingFn  func(ctx context.Context, id string) error
	MarkCompletedFn func(ctx context.Context, id string, contentID string) error
	MarkFailedFn    func(ctx context.Context, id string, errText string) error
	ResetFailedFn   func(ctx context.Context, batchID string) (int, error)
}

func (s *ItemService) CreateItems(ctx context.Context, batchID string, items []pagesift.NewItem) (int, error) {
	return s.CreateItemsFn(ctx, batchID, items)
}

func (s *ItemService) FindItemByID(ctx context.Context, id string) (*pagesift.Item, error) {
	return s.FindItemByIDFn(ctx, id)
}

func (s *ItemService) FindItems(ctx context.Context, filter pagesift.ItemFilter) ([]*pagesift.Item, error) {
	return s.FindItemsFn(ctx, filter)
}

func (s *ItemService) MarkFetching(ctx context.Context, id string) error {
	return s.MarkFetchingFn(ctx, id)
}

func (s *ItemService) MarkCompleted(ctx context.Context, id string, contentID string) error {
	return s.MarkCompletedFn(ctx, id, contentID)
}

func (s *ItemService) MarkFailed(ctx context.Context, id string, errText string) error {
	return s.MarkFailedFn(ctx, id, errText)
}

func (s *ItemService) ResetFailed(ctx context.Context, batchID string) (int, error) {
	return s.ResetFailedFn(ctx, batchID)
}
