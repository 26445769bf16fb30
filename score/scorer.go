// Package score estimates the quality of normalized text across five
// dimensions: length, structure, readability, uniqueness, and formatting.
package score

import (
	"regexp"
	"strings"

	"github.com/pagesift/pagesift"
)

// Ensure Scorer implements pagesift.Scorer at compile time.
var _ pagesift.Scorer = (*Scorer)(nil)

// Scorer computes composite quality scores for markdown-style text.
type Scorer struct {
	weights pagesift.ScoreWeights
}

// NewScorer creates a Scorer with the given dimension weights.
// Returns EINVALID if the weights do not sum to 1.0.
func NewScorer(weights pagesift.ScoreWeights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights}, nil
}

// NewDefaultScorer creates a Scorer with the standard weights.
func NewDefaultScorer() *Scorer {
	return &Scorer{weights: pagesift.DefaultScoreWeights()}
}

// Score evaluates text and returns a composite quality estimate. It never
// fails: an internal error yields a neutral score with Degraded set.
func (s *Scorer) Score(text string) (result *pagesift.QualityScore) {
	defer func() {
		if r := recover(); r != nil {
			result = neutralScore()
		}
	}()

	a := analyze(text)

	breakdown := map[string]float64{
		pagesift.DimLength:      scoreLength(a),
		pagesift.DimStructure:   scoreStructure(a),
		pagesift.DimReadability: scoreReadability(a),
		pagesift.DimUniqueness:  scoreUniqueness(a),
		pagesift.DimFormatting:  scoreFormatting(a),
	}

	overall := s.weights.Length*breakdown[pagesift.DimLength] +
		s.weights.Structure*breakdown[pagesift.DimStructure] +
		s.weights.Readability*breakdown[pagesift.DimReadability] +
		s.weights.Uniqueness*breakdown[pagesift.DimUniqueness] +
		s.weights.Formatting*breakdown[pagesift.DimFormatting]

	return &pagesift.QualityScore{
		Overall:         clamp(overall),
		Breakdown:       breakdown,
		Indicators:      a.indicators(),
		Recommendations: recommendations(breakdown),
	}
}

func neutralScore() *pagesift.QualityScore {
	breakdown := make(map[string]float64, len(pagesift.Dimensions))
	for _, dim := range pagesift.Dimensions {
		breakdown[dim] = 50
	}
	return &pagesift.QualityScore{
		Overall:    50,
		Breakdown:  breakdown,
		Indicators: map[string]int{},
		Degraded:   true,
	}
}

var (
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}\s`)
	listItemRe    = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s`)
	tableRowRe    = regexp.MustCompile(`(?m)^\|.*\|$`)
	boldItalicRe  = regexp.MustCompile(`\*\*[^*]+\*\*|\*[^*\s][^*]*\*|_[^_\s][^_]*_`)
	linkRe        = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	sentenceEndRe = regexp.MustCompile(`[.!?]+[\s"')\]]|[.!?]+$`)
	wordRe        = regexp.MustCompile(`[\p{L}\p{N}'-]+`)
	markupRuneSet = "#*_|[]()>`"
)

// analysis holds the raw measurements one Score call is computed from.
type analysis struct {
	words            []string
	sentences        []string
	paragraphs       []string
	headings         int
	listItems        int
	tableRows        int
	inlineFormatting int
	links            int
	markupRunes      int
	totalRunes       int
	dupParagraphs    int
	dupSentences     int
	repeatedWords    int
}

func analyze(text string) analysis {
	a := analysis{
		headings:         len(headingRe.FindAllString(text, -1)),
		listItems:        len(listItemRe.FindAllString(text, -1)),
		tableRows:        len(tableRowRe.FindAllString(text, -1)),
		inlineFormatting: len(boldItalicRe.FindAllString(text, -1)),
		links:            len(linkRe.FindAllString(text, -1)),
	}

	for _, r := range text {
		a.totalRunes++
		if strings.ContainsRune(markupRuneSet, r) {
			a.markupRunes++
		}
	}

	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		a.paragraphs = append(a.paragraphs, block)
	}

	a.words = wordRe.FindAllString(strings.ToLower(text), -1)
	a.sentences = splitSentences(text)
	a.dupParagraphs = countDuplicates(a.paragraphs)
	a.dupSentences = countDuplicateSentences(a.sentences)
	a.repeatedWords = countRepeatedWords(a.words)

	return a
}

func (a analysis) indicators() map[string]int {
	return map[string]int{
		"words":               len(a.words),
		"sentences":           len(a.sentences),
		"paragraphs":          len(a.paragraphs),
		"headings":            a.headings,
		"listItems":           a.listItems,
		"tableRows":           a.tableRows,
		"links":               a.links,
		"inlineFormatting":    a.inlineFormatting,
		"duplicateParagraphs": a.dupParagraphs,
		"duplicateSentences":  a.dupSentences,
		"overusedWords":       a.repeatedWords,
	}
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[start:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// countDuplicates counts entries seen more than once after case and
// whitespace normalization.
func countDuplicates(entries []string) int {
	seen := make(map[string]bool, len(entries))
	dups := 0
	for _, e := range entries {
		key := normalizeKey(e)
		if key == "" {
			continue
		}
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	return dups
}

// countDuplicateSentences counts short sentences that repeat. Long
// sentences repeating is unusual enough to count as well.
func countDuplicateSentences(sentences []string) int {
	seen := make(map[string]bool, len(sentences))
	dups := 0
	for _, s := range sentences {
		key := normalizeKey(s)
		if key == "" {
			continue
		}
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	return dups
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// countRepeatedWords counts distinct words longer than three characters
// that appear more than five times.
func countRepeatedWords(words []string) int {
	counts := make(map[string]int, len(words))
	for _, w := range words {
		if len(w) > 3 {
			counts[w]++
		}
	}
	over := 0
	for _, c := range counts {
		if c > 5 {
			over++
		}
	}
	return over
}

// scoreLength follows a bucket curve peaking in the 500-2000 word range.
func scoreLength(a analysis) float64 {
	n := len(a.words)
	switch {
	case n == 0:
		return 0
	case n < 50:
		return float64(n) // up to 49
	case n < 300:
		return 50 + float64(n-50)*20/250 // 50..70
	case n < 500:
		return 70 + float64(n-300)*30/200 // 70..100
	case n <= 2000:
		return 100
	case n <= 5000:
		return 100 - float64(n-2000)*20/3000 // 100..80
	case n <= 10000:
		return 80 - float64(n-5000)*20/5000 // 80..60
	default:
		return 40
	}
}

func scoreStructure(a analysis) float64 {
	score := 20.0

	if a.headings > 0 {
		score += 20
		if a.headings >= 3 {
			score += 10
		}
	}

	if len(a.paragraphs) >= 3 {
		score += 20
		if paragraphLengthVariance(a.paragraphs) {
			score += 15
		}
	} else if len(a.paragraphs) == 2 {
		score += 10
	}

	if a.listItems > 0 {
		score += 15
	}

	return clamp(score)
}

// paragraphLengthVariance reports whether paragraph lengths vary enough to
// look like prose rather than a repeated template.
func paragraphLengthVariance(paragraphs []string) bool {
	shortest, longest := -1, 0
	for _, p := range paragraphs {
		n := len(p)
		if shortest < 0 || n < shortest {
			shortest = n
		}
		if n > longest {
			longest = n
		}
	}
	return shortest > 0 && longest >= shortest*2
}

func scoreReadability(a analysis) float64 {
	if len(a.sentences) == 0 || len(a.words) == 0 {
		return 0
	}

	score := 30.0

	mean := float64(len(a.words)) / float64(len(a.sentences))
	switch {
	case mean >= 15 && mean <= 25:
		score += 30
	case mean >= 10 && mean <= 30:
		score += 20
	case mean >= 5 && mean <= 40:
		score += 10
	}

	if len(a.sentences) >= 5 {
		score += 15
	}

	if punctuationDensityHealthy(a) {
		score += 15
	}

	if initialWordVariety(a.sentences) >= 0.5 {
		score += 10
	}

	score -= float64(a.repeatedWords) * 10

	return clamp(score)
}

// punctuationDensityHealthy checks that sentence-ending punctuation occurs
// at a plausible rate relative to word count.
func punctuationDensityHealthy(a analysis) bool {
	if len(a.words) == 0 {
		return false
	}
	rate := float64(len(a.sentences)) / float64(len(a.words))
	return rate >= 1.0/60 && rate <= 1.0/4
}

// initialWordVariety returns the ratio of distinct sentence-initial words
// to sentence count.
func initialWordVariety(sentences []string) float64 {
	if len(sentences) == 0 {
		return 0
	}
	initials := make(map[string]bool, len(sentences))
	for _, s := range sentences {
		fields := strings.Fields(strings.ToLower(s))
		if len(fields) > 0 {
			initials[strings.Trim(fields[0], "#*>-")] = true
		}
	}
	return float64(len(initials)) / float64(len(sentences))
}

func scoreUniqueness(a analysis) float64 {
	score := 100.0

	if n := len(a.paragraphs); n > 0 {
		score -= 100 * float64(a.dupParagraphs) / float64(n)
	}
	if n := len(a.sentences); n > 0 {
		score -= 50 * float64(a.dupSentences) / float64(n)
	}

	return clamp(score)
}

func scoreFormatting(a analysis) float64 {
	score := 30.0

	if a.headings > 0 {
		score += 20
	}
	if a.inlineFormatting > 0 {
		score += 15
	}
	if a.links > 0 {
		score += 10
	}
	if a.listItems > 0 {
		score += 15
	}
	if a.tableRows > 0 {
		score += 10
	}

	// Dense markup is a symptom of incomplete stripping upstream.
	if a.totalRunes > 0 {
		density := float64(a.markupRunes) / float64(a.totalRunes)
		if density > 0.15 {
			score -= (density - 0.15) * 400
		}
	}

	return clamp(score)
}

func recommendations(breakdown map[string]float64) []string {
	var recs []string
	for _, dim := range pagesift.Dimensions {
		if breakdown[dim] >= 50 {
			continue
		}
		switch dim {
		case pagesift.DimLength:
			recs = append(recs, "content is outside the ideal length range; check for truncated or padded extraction")
		case pagesift.DimStructure:
			recs = append(recs, "content lacks structure; verify headings and paragraphs survived extraction")
		case pagesift.DimReadability:
			recs = append(recs, "sentence quality is low; content may be boilerplate or navigation text")
		case pagesift.DimUniqueness:
			recs = append(recs, "content contains repeated paragraphs or sentences; cleaning rules may have left duplicated blocks")
		case pagesift.DimFormatting:
			recs = append(recs, "formatting is poor or markup density is excessive; review cleaning and conversion output")
		}
	}
	return recs
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
