package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Preservation thresholds. Tuned to tell prose apart from repeated
// menu/nav text: genuine paragraphs have long, vocabulary-varied text,
// boilerplate repeats the same short labels.
const (
	preserveTextThreshold  = 300
	preserveMinWords       = 50
	preserveUniqueRatio    = 0.5
	preserveStructuralMin  = 3
	preserveTableTextChars = 100
)

// landmarkSelector matches canonical main-content containers that are never
// removed regardless of which rule matched them.
const landmarkSelector = "main, article, [role=\"main\"], [role=\"article\"], #content, #main, .main-content, .article-body, .post-content, .entry-content"

// structuralSelector matches descendants that indicate an element holds
// real document structure rather than chrome.
const structuralSelector = "h1, h2, h3, h4, h5, h6, p, article, table"

// ShouldPreserve reports whether an element matched by a removal selector
// must be kept anyway. An element is preserved if any of the following
// holds:
//
//   - it matches a canonical main-content landmark
//   - its text is substantial (>300 chars) with varied vocabulary
//     (unique-word ratio >0.5 over at least 50 words)
//   - it contains at least 3 structural content descendants
//   - it contains a table with at least 100 chars of text
//
// Preservation is monotonic: a preserved element is never deleted by this
// or any later rule, because every removal consults this predicate first.
func ShouldPreserve(s *goquery.Selection) bool {
	if s.Is(landmarkSelector) {
		return true
	}
	if isSubstantialProse(s.Text()) {
		return true
	}
	if s.Find(structuralSelector).Length() >= preserveStructuralMin {
		return true
	}
	if hasSubstantialTable(s) {
		return true
	}
	return false
}

// isSubstantialProse applies the length and vocabulary-variety checks.
func isSubstantialProse(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) <= preserveTextThreshold {
		return false
	}
	words := strings.Fields(text)
	if len(words) < preserveMinWords {
		return false
	}
	return uniqueWordRatio(words) > preserveUniqueRatio
}

// uniqueWordRatio returns the ratio of distinct words (case-folded) to
// total words.
func uniqueWordRatio(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

// hasSubstantialTable reports whether the selection is or contains a table
// with enough text to be real tabular content.
func hasSubstantialTable(s *goquery.Selection) bool {
	if s.Is("table") && len(strings.TrimSpace(s.Text())) >= preserveTableTextChars {
		return true
	}
	found := false
	s.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if len(strings.TrimSpace(t.Text())) >= preserveTableTextChars {
			found = true
			return false
		}
		return true
	})
	return found
}
