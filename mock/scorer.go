package mock

import "github.com/pagesift/pagesift"

var _ pagesift.Scorer = (*Scorer)(nil)

// Scorer is a mock implementation of pagesift.Scorer.
type Scorer struct {
	ScoreFn func(text string) *pagesift.QualityScore
}

func (s *Scorer) Score(text string) *pagesift.QualityScore {
	return s.ScoreFn(text)
}
