// Package htmltomarkdown implements the post-processor that converts
// extracted main-content HTML into normalized structured text, using
// html-to-markdown for the conversion core.
package htmltomarkdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/pagesift/pagesift"
	"golang.org/x/net/html"
)

// Ensure Normalizer implements pagesift.Normalizer at compile time.
var _ pagesift.Normalizer = (*Normalizer)(nil)

// Normalizer converts extracted HTML to normalized markdown-style text.
// It removes residual artifacts missed upstream, fixes the heading
// hierarchy, converts structure to text, and runs a final text cleanup.
type Normalizer struct {
	conv *converter.Converter

	// minParagraph drops paragraphs shorter than this many characters in
	// the final pass. Headings, lists, tables, quotes, and code blocks
	// are always retained. Zero disables the filter.
	minParagraph int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMinParagraphLength enables dropping of paragraphs shorter than n
// characters during the final pass.
func WithMinParagraphLength(n int) Option {
	return func(nm *Normalizer) {
		nm.minParagraph = n
	}
}

// NewNormalizer creates a new Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	n := &Normalizer{conv: conv}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts HTML to structured text. It never fails: on an
// internal error the pre-conversion HTML is returned with a step recording
// the failure.
func (n *Normalizer) Normalize(rawHTML string) (result *pagesift.NormalizedContent) {
	var steps []string

	defer func() {
		if r := recover(); r != nil {
			result = &pagesift.NormalizedContent{
				Text:  rawHTML,
				Steps: append(steps, fmt.Sprintf("conversion-failed: %v", r)),
			}
		}
	}()

	if strings.TrimSpace(rawHTML) == "" {
		return &pagesift.NormalizedContent{Steps: []string{"empty-input"}}
	}

	cleaned := n.prepass(rawHTML, &steps)

	markdown, err := n.conv.ConvertString(cleaned)
	if err != nil {
		return &pagesift.NormalizedContent{
			Text:  cleaned,
			Steps: append(steps, fmt.Sprintf("conversion-failed: %v", err)),
		}
	}
	steps = append(steps, "converted-to-markdown")

	text := n.postpass(markdown, &steps)

	return &pagesift.NormalizedContent{Text: text, Steps: steps}
}

// trackingSrcRe matches image sources that are almost certainly tracking
// pixels rather than content.
var trackingSrcRe = regexp.MustCompile(`(?i)(pixel|track|beacon|1x1|spacer)`)

// prepass removes residual artifacts and normalizes the heading hierarchy
// before conversion. On a parse failure the input passes through unchanged.
func (n *Normalizer) prepass(rawHTML string, steps *[]string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	// Empty links contribute nothing to text output.
	removed := 0
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" && s.Find("img").Length() == 0 {
			s.Remove()
			removed++
		}
	})
	if removed > 0 {
		*steps = append(*steps, fmt.Sprintf("removed-empty-links:%d", removed))
	}

	removed = 0
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if isTrackingPixel(s) {
			s.Remove()
			removed++
		}
	})
	if removed > 0 {
		*steps = append(*steps, fmt.Sprintf("removed-tracking-pixels:%d", removed))
	}

	removed = 0
	doc.Find("figcaption, caption").Each(func(_ int, s *goquery.Selection) {
		if strings.EqualFold(strings.TrimSpace(s.Text()), "advertisement") {
			s.Remove()
			removed++
		}
	})
	if removed > 0 {
		*steps = append(*steps, fmt.Sprintf("removed-ad-captions:%d", removed))
	}

	// A lone top-level h2 on a page without an h1 is the de-facto title.
	if doc.Find("h1").Length() == 0 {
		h2s := doc.Find("h2")
		if h2s.Length() == 1 {
			h2s.Nodes[0].Data = "h1"
			*steps = append(*steps, "promoted-h2-to-h1")
		}
	}

	if collapsed := collapseNestedInline(doc); collapsed > 0 {
		*steps = append(*steps, fmt.Sprintf("collapsed-nested-formatting:%d", collapsed))
	}

	out, err := renderDocument(doc)
	if err != nil {
		return rawHTML
	}
	return out
}

func isTrackingPixel(s *goquery.Selection) bool {
	if w, err := strconv.Atoi(s.AttrOr("width", "")); err == nil && w <= 1 {
		return true
	}
	if h, err := strconv.Atoi(s.AttrOr("height", "")); err == nil && h <= 1 {
		return true
	}
	return trackingSrcRe.MatchString(s.AttrOr("src", ""))
}

// inlineTags are formatting tags whose redundant nesting carries no
// meaning (<strong><strong>x</strong></strong>).
var inlineTags = []string{"b", "strong", "i", "em", "code", "u", "small"}

// collapseNestedInline unwraps identical directly-nested inline tags until
// none remain. Returns the number of unwrapped elements.
func collapseNestedInline(doc *goquery.Document) int {
	total := 0
	for {
		collapsed := 0
		for _, tag := range inlineTags {
			doc.Find(tag + " > " + tag).Each(func(_ int, s *goquery.Selection) {
				unwrap(s.Nodes[0])
				collapsed++
			})
		}
		total += collapsed
		if collapsed == 0 {
			return total
		}
	}
}

// unwrap replaces a node with its children.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

var (
	blankLinesRe   = regexp.MustCompile(`\n{3,}`)
	trailingWSRe   = regexp.MustCompile(`(?m)[ \t]+$`)
	orderedItemRe  = regexp.MustCompile(`^\d+[.)]\s`)
	structuralRune = "#>-*|`"
)

// postpass runs the final text cleanup over converted markdown.
func (n *Normalizer) postpass(markdown string, steps *[]string) string {
	text := html.UnescapeString(markdown)
	text = trailingWSRe.ReplaceAllString(text, "")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	*steps = append(*steps, "cleaned-whitespace")

	if n.minParagraph > 0 {
		filtered, dropped := dropShortParagraphs(text, n.minParagraph)
		if dropped > 0 {
			text = filtered
			*steps = append(*steps, fmt.Sprintf("dropped-short-paragraphs:%d", dropped))
		}
	}

	return strings.TrimSpace(text)
}

// dropShortParagraphs removes prose blocks under the minimum length while
// always retaining headings, lists, tables, quotes, and code blocks.
func dropShortParagraphs(text string, minLen int) (string, int) {
	blocks := strings.Split(text, "\n\n")
	kept := blocks[:0]
	dropped := 0
	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" || len(trimmed) >= minLen || isStructuralBlock(trimmed) {
			kept = append(kept, block)
			continue
		}
		dropped++
	}
	return strings.Join(kept, "\n\n"), dropped
}

func isStructuralBlock(block string) bool {
	if strings.ContainsRune(structuralRune, rune(block[0])) {
		return true
	}
	return orderedItemRe.MatchString(block)
}

// renderDocument converts the document tree back to a string.
func renderDocument(doc *goquery.Document) (string, error) {
	var buf bytes.Buffer
	for _, n := range doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
