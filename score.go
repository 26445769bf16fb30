package pagesift

import "math"

// Quality dimensions scored by a Scorer. Each contributes a weighted
// sub-score to the overall quality estimate.
const (
	DimLength      = "length"
	DimStructure   = "structure"
	DimReadability = "readability"
	DimUniqueness  = "uniqueness"
	DimFormatting  = "formatting"
)

// Dimensions lists the score dimensions in report order.
var Dimensions = []string{DimLength, DimStructure, DimReadability, DimUniqueness, DimFormatting}

// ScoreWeights assigns a weight to each quality dimension.
// Weights must sum to 1.0.
type ScoreWeights struct {
	Length      float64 `yaml:"length"`
	Structure   float64 `yaml:"structure"`
	Readability float64 `yaml:"readability"`
	Uniqueness  float64 `yaml:"uniqueness"`
	Formatting  float64 `yaml:"formatting"`
}

// DefaultScoreWeights returns the standard dimension weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Length:      0.20,
		Structure:   0.25,
		Readability: 0.25,
		Uniqueness:  0.15,
		Formatting:  0.15,
	}
}

// Validate returns an error unless the weights sum to 1.0.
func (w ScoreWeights) Validate() error {
	sum := w.Length + w.Structure + w.Readability + w.Uniqueness + w.Formatting
	if math.Abs(sum-1.0) > 1e-9 {
		return Errorf(EINVALID, "score weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

// QualityScore is a composite 0-100 estimate of how clean and substantive
// normalized content is.
type QualityScore struct {
	// Overall is the weighted sum of the dimension sub-scores, in [0,100].
	Overall float64 `json:"overall"`

	// Breakdown holds the sub-score for each dimension, in [0,100].
	Breakdown map[string]float64 `json:"breakdown"`

	// Indicators are raw counts backing the sub-scores
	// (words, sentences, paragraphs, headings, links, ...).
	Indicators map[string]int `json:"indicators"`

	// Recommendations describe how to improve any dimension scoring
	// below 50.
	Recommendations []string `json:"recommendations,omitempty"`

	// Degraded is set when scoring failed internally and the score is the
	// neutral default.
	Degraded bool `json:"degraded,omitempty"`
}

// Scorer evaluates normalized text. Implementations never fail: internal
// errors yield a neutral default score with Degraded set.
type Scorer interface {
	Score(text string) *QualityScore
}
