package mock

import "github.com/pagesift/pagesift"

var _ pagesift.Normalizer = (*Normalizer)(nil)

// Normalizer is a mock implementation of pagesift.Normalizer.
type Normalizer struct {
	NormalizeFn func(html string) *pagesift.NormalizedContent
}

func (n *Normalizer) Normalize(html string) *pagesift.NormalizedContent {
	return n.NormalizeFn(html)
}
