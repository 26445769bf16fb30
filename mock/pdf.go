package mock

import (
	"context"

	"github.com/pagesift/pagesift"
)

var _ pagesift.PDFService = (*PDFService)(nil)

// PDFService is a mock implementation of pagesift.PDFService.
type PDFService struct {
	ExtractTextFn func(ctx context.Context, url string) (*pagesift.PDFResult, error)
}

func (s *PDFService) ExtractText(ctx context.Context, url string) (*pagesift.PDFResult, error) {
	return s.ExtractTextFn(ctx, url)
}
