package mock

import (
	"context"

	"github.com/pagesift/pagesift"
)

var _ pagesift.BatchService = (*BatchService)(nil)

// BatchService is a mock implementation of pagesift.BatchService.
type BatchService struct {
	CreateBatchFn   func(ctx context.Context, batch *pagesift.Batch) error
	FindBatchByIDFn func(ctx context.Context, id string) (*pagesift.Batch, error)
	CompleteBatchFn func(ctx context.Context, id string) error
	MarkBatchDoneFn func(ctx context.Context, id string) error
	ProgressFn      func(ctx context.Context, id string) (*pagesift.BatchProgress, error)
}

func (s *BatchService) CreateBatch(ctx context.Context, batch *pagesift.Batch) error {
	return s.CreateBatchFn(ctx, batch)
}

func (s *BatchService) FindBatchByID(ctx context.Context, id string) (*pagesift.Batch, error) {
	return s.FindBatchByIDFn(ctx, id)
}

func (s *BatchService) CompleteBatch(ctx context.Context, id string) error {
	return s.CompleteBatchFn(ctx, id)
}

func (s *BatchService) MarkBatchDone(ctx context.Context, id string) error {
	return s.MarkBatchDoneFn(ctx, id)
}

func (s *BatchService) Progress(ctx context.Context, id string) (*pagesift.BatchProgress, error) {
	return s.ProgressFn(ctx, id)
}
