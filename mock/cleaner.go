package mock

import "github.com/pagesift/pagesift"

var _ pagesift.Cleaner = (*Cleaner)(nil)

// Cleaner is a mock implementation of pagesift.Cleaner.
type Cleaner struct {
	CleanFn func(html string, url string) (string, *pagesift.CleaningReport, error)
}

func (c *Cleaner) Clean(html string, url string) (string, *pagesift.CleaningReport, error) {
	return c.CleanFn(html, url)
}
