// Package goquery implements the boilerplate-removal rule engine and
// markup metadata extraction on top of PuerkitoBio/goquery.
package goquery

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pagesift/pagesift"
	"golang.org/x/net/html"
)

// Ensure Cleaner implements pagesift.Cleaner at compile time.
var _ pagesift.Cleaner = (*Cleaner)(nil)

// compiledSelector pairs a selector string with its compiled matcher.
type compiledSelector struct {
	raw     string
	matcher cascadia.Selector
}

// compiledRule is a rule set with selectors and patterns compiled up front,
// so rule application cannot fail at runtime on bad syntax.
type compiledRule struct {
	set           pagesift.RuleSet
	selectors     []compiledSelector
	hostSelectors map[string][]compiledSelector
	textPatterns  []*regexp.Regexp
}

// Cleaner applies prioritized rule sets to HTML documents. Rule evaluation
// is strictly sequential in ascending priority order, so identical input
// always produces identical output.
type Cleaner struct {
	rules  []compiledRule
	logger *slog.Logger
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

// WithLogger sets the logger used to report skipped rule sets.
func WithLogger(logger *slog.Logger) CleanerOption {
	return func(c *Cleaner) {
		c.logger = logger
	}
}

// NewCleaner compiles the given rule sets into a Cleaner. Rule sets are
// validated and their selectors and patterns compiled here; a syntax error
// in any rule set is a load-time error, never a runtime panic.
func NewCleaner(rules []pagesift.RuleSet, opts ...CleanerOption) (*Cleaner, error) {
	c := &Cleaner{}
	for _, opt := range opts {
		opt(c)
	}

	for _, rs := range rules {
		if err := rs.Validate(); err != nil {
			return nil, err
		}
		cr, err := compileRule(rs)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, cr)
	}

	// Stable sort keeps equal-priority rules in declaration order.
	sort.SliceStable(c.rules, func(i, j int) bool {
		return c.rules[i].set.Priority < c.rules[j].set.Priority
	})

	return c, nil
}

func compileRule(rs pagesift.RuleSet) (compiledRule, error) {
	cr := compiledRule{set: rs}

	for _, sel := range rs.Selectors {
		m, err := cascadia.Compile(sel)
		if err != nil {
			return cr, pagesift.Errorf(pagesift.EINVALID, "rule set %q: invalid selector %q: %v", rs.Name, sel, err)
		}
		cr.selectors = append(cr.selectors, compiledSelector{raw: sel, matcher: m})
	}

	if len(rs.HostSelectors) > 0 {
		cr.hostSelectors = make(map[string][]compiledSelector, len(rs.HostSelectors))
		for host, sels := range rs.HostSelectors {
			for _, sel := range sels {
				m, err := cascadia.Compile(sel)
				if err != nil {
					return cr, pagesift.Errorf(pagesift.EINVALID, "rule set %q: invalid selector %q for host %q: %v", rs.Name, sel, host, err)
				}
				cr.hostSelectors[host] = append(cr.hostSelectors[host], compiledSelector{raw: sel, matcher: m})
			}
		}
	}

	for _, p := range rs.TextPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return cr, pagesift.Errorf(pagesift.EINVALID, "rule set %q: invalid text pattern %q: %v", rs.Name, p, err)
		}
		cr.textPatterns = append(cr.textPatterns, re)
	}

	return cr, nil
}

// Clean applies every rule set matching the URL in priority order and
// returns the cleaned HTML with a report. If the document cannot be parsed
// the original HTML is returned unchanged alongside the error.
func (c *Cleaner) Clean(rawHTML string, rawURL string) (string, *pagesift.CleaningReport, error) {
	report := &pagesift.CleaningReport{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML, report, pagesift.Errorf(pagesift.EINTERNAL, "failed to parse HTML: %v", err)
	}

	hostname := ""
	if u, err := url.Parse(rawURL); err == nil {
		hostname = u.Hostname()
	}

	report.OriginalElements = doc.Find("*").Length()

	for i := range c.rules {
		rule := &c.rules[i]
		if !rule.set.Applies(rawURL) {
			continue
		}
		if err := c.applyRule(doc, rule, hostname, report); err != nil {
			// A failing rule set never aborts the run.
			if c.logger != nil {
				c.logger.Warn("rule set skipped",
					"rule", rule.set.Name,
					"url", rawURL,
					"error", err,
				)
			}
			continue
		}
		report.AppliedRules = append(report.AppliedRules, rule.set.Name)
	}

	report.FinalElements = doc.Find("*").Length()
	if report.OriginalElements > 0 {
		report.ReductionPercent = float64(report.OriginalElements-report.FinalElements) /
			float64(report.OriginalElements) * 100
	}

	out, err := renderDocument(doc)
	if err != nil {
		return rawHTML, report, pagesift.Errorf(pagesift.EINTERNAL, "failed to render HTML: %v", err)
	}
	return out, report, nil
}

// applyRule applies a single rule set to the document. Recover guards the
// engine against a misbehaving rule so the remaining rules still run.
func (c *Cleaner) applyRule(doc *goquery.Document, rule *compiledRule, hostname string, report *pagesift.CleaningReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule set %q panicked: %v", rule.set.Name, r)
		}
	}()

	selectors := rule.selectors
	if len(rule.hostSelectors) > 0 {
		var hosts []string
		for host := range rule.hostSelectors {
			if pagesift.HostMatches(hostname, []string{host}) {
				hosts = append(hosts, host)
			}
		}
		if len(hosts) > 0 {
			// Clean runs concurrently across items; the compiled base
			// slice is shared and must not be grown in place. Host keys
			// are sorted so removal order stays deterministic.
			sort.Strings(hosts)
			selectors = slices.Clone(rule.selectors)
			for _, host := range hosts {
				selectors = append(selectors, rule.hostSelectors[host]...)
			}
		}
	}

	for _, cs := range selectors {
		c.removeMatches(doc, rule.set.Name, cs, report)
	}

	if len(rule.set.StripAttrs) > 0 {
		stripAttributes(doc, rule.set.StripAttrs)
	}

	for _, re := range rule.textPatterns {
		scrubText(doc, re)
	}

	if rule.set.PruneEmpty {
		pruneEmpty(doc, rule.set.Name, report)
	}

	return nil
}

// removeMatches deletes every node matched by the selector unless the
// content-preservation predicate holds for it.
func (c *Cleaner) removeMatches(doc *goquery.Document, ruleName string, cs compiledSelector, report *pagesift.CleaningReport) {
	doc.FindMatcher(cs.matcher).Each(func(_ int, s *goquery.Selection) {
		if ShouldPreserve(s) {
			return
		}
		report.Removed = append(report.Removed, pagesift.RemovedElement{
			Rule:     ruleName,
			Selector: cs.raw,
			Tag:      nodeTag(s),
		})
		s.Remove()
	})
}

// stripAttributes removes the listed attributes from every element.
// A trailing "*" matches attribute name prefixes.
func stripAttributes(doc *goquery.Document, attrs []string) {
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Nodes[0]
		kept := node.Attr[:0]
		for _, a := range node.Attr {
			if !attrMatches(a.Key, attrs) {
				kept = append(kept, a)
			}
		}
		node.Attr = kept
	})
}

func attrMatches(key string, patterns []string) bool {
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(key, prefix) {
				return true
			}
		} else if key == p {
			return true
		}
	}
	return false
}

// scrubText removes pattern matches from text nodes, walking the tree
// directly. An element left empty by scrubbing is pruned along with any
// emptied ancestors, unless it still holds media.
func scrubText(doc *goquery.Document, re *regexp.Regexp) {
	var emptied []*html.Node

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if re.MatchString(n.Data) {
				n.Data = re.ReplaceAllString(n.Data, "")
				if strings.TrimSpace(n.Data) == "" && n.Parent != nil {
					emptied = append(emptied, n.Parent)
				}
			}
			return
		}
		// Capture the next sibling before descending so child removal
		// cannot break the walk.
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			walk(c)
			c = next
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}

	for _, n := range emptied {
		pruneEmptyChain(n)
	}
}

// pruneEmptyChain removes n and then its ancestors for as long as they hold
// neither text nor media. Stops at structural roots.
func pruneEmptyChain(n *html.Node) {
	for n != nil && n.Type == html.ElementNode {
		switch n.Data {
		case "html", "head", "body":
			return
		}
		if hasText(n) || isMedia(n.Data) || hasMediaDescendant(n) {
			return
		}
		parent := n.Parent
		if parent == nil {
			return
		}
		parent.RemoveChild(n)
		n = parent
	}
}

// pruneEmpty removes elements with no text and no media descendants.
// Passes repeat until stable so containers emptied by an earlier pass are
// removed too.
func pruneEmpty(doc *goquery.Document, ruleName string, report *pagesift.CleaningReport) {
	for {
		removed := 0
		doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
			node := s.Nodes[0]
			if detached(node) {
				return // already removed via an ancestor
			}
			if keepWhenEmpty(node.Data) || isMedia(node.Data) {
				return
			}
			if hasText(node) || hasMediaDescendant(node) {
				return
			}
			report.Removed = append(report.Removed, pagesift.RemovedElement{
				Rule:     ruleName,
				Selector: "(empty)",
				Tag:      node.Data,
			})
			s.Remove()
			removed++
		})
		if removed == 0 {
			return
		}
	}
}

var mediaTags = map[string]bool{
	"img": true, "video": true, "audio": true, "iframe": true,
	"svg": true, "picture": true, "embed": true, "object": true,
	"canvas": true, "source": true,
}

func isMedia(tag string) bool {
	return mediaTags[tag]
}

// keepWhenEmpty lists void or self-meaningful tags that never carry text
// and must survive empty pruning.
func keepWhenEmpty(tag string) bool {
	switch tag {
	case "br", "hr", "input", "meta", "link", "track", "wbr", "col", "area", "base", "title":
		return true
	}
	return false
}

func hasText(n *html.Node) bool {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data) != ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasText(c) {
			return true
		}
	}
	return false
}

func hasMediaDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (isMedia(c.Data) || hasMediaDescendant(c)) {
			return true
		}
	}
	return false
}

// detached reports whether the node is no longer attached to a document.
func detached(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.DocumentNode {
			return false
		}
	}
	return true
}

func nodeTag(s *goquery.Selection) string {
	if len(s.Nodes) == 0 {
		return ""
	}
	return s.Nodes[0].Data
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
