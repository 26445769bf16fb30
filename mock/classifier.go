package mock

import (
	"context"

	"github.com/pagesift/pagesift"
)

var _ pagesift.Classifier = (*Classifier)(nil)

// Classifier is a mock implementation of pagesift.Classifier.
type Classifier struct {
	ClassifyFn func(ctx context.Context, url string, html string) pagesift.ContentType
}

func (c *Classifier) Classify(ctx context.Context, url string, html string) pagesift.ContentType {
	return c.ClassifyFn(ctx, url, html)
}
