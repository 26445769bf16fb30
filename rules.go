package pagesift

import (
	"net/url"
	"regexp"
	"strings"
)

// RuleSet is a named, prioritized collection of removal selectors and text
// patterns scoped to some URL subset. Rule sets are immutable once loaded
// and are evaluated in ascending Priority order, so later rules observe the
// document state left by earlier ones.
//
// Optional capabilities are explicit fields: a rule set without
// host-specific selectors simply leaves HostSelectors empty.
type RuleSet struct {
	// Name identifies the rule set in reports and metrics.
	Name string `yaml:"name"`

	// Priority orders evaluation; lower runs earlier.
	Priority int `yaml:"priority"`

	// Hosts restricts the rule set to URLs whose hostname matches one of
	// the entries (exact or dot-suffix match). Empty means all hosts.
	Hosts []string `yaml:"hosts,omitempty"`

	// PathPatterns further restricts applicability to URLs whose path
	// matches at least one regular expression. Empty means all paths.
	PathPatterns []string `yaml:"pathPatterns,omitempty"`

	// Selectors are CSS selectors whose matches are removed, subject to
	// the content-preservation predicate.
	Selectors []string `yaml:"selectors,omitempty"`

	// HostSelectors are additional removal selectors applied only when the
	// page hostname matches the map key (exact or dot-suffix match).
	HostSelectors map[string][]string `yaml:"hostSelectors,omitempty"`

	// TextPatterns are regular expressions scrubbed from text nodes.
	// Elements left empty by scrubbing are pruned unless they hold media.
	TextPatterns []string `yaml:"textPatterns,omitempty"`

	// StripAttrs are attribute names removed from every element.
	// A trailing "*" matches attribute name prefixes (e.g. "data-*").
	StripAttrs []string `yaml:"stripAttrs,omitempty"`

	// PruneEmpty removes elements with no text and no media descendants
	// after the other instructions have been applied.
	PruneEmpty bool `yaml:"pruneEmpty,omitempty"`
}

// Validate returns an error if the rule set contains invalid fields.
// Selector syntax is validated by the rule engine at load time; here only
// the pure fields are checked.
func (r *RuleSet) Validate() error {
	if r.Name == "" {
		return Errorf(EINVALID, "rule set name required")
	}
	if len(r.Selectors) == 0 && len(r.HostSelectors) == 0 &&
		len(r.TextPatterns) == 0 && len(r.StripAttrs) == 0 && !r.PruneEmpty {
		return Errorf(EINVALID, "rule set %q has no instructions", r.Name)
	}
	for _, p := range r.PathPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return Errorf(EINVALID, "rule set %q: invalid path pattern %q: %v", r.Name, p, err)
		}
	}
	for _, p := range r.TextPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return Errorf(EINVALID, "rule set %q: invalid text pattern %q: %v", r.Name, p, err)
		}
	}
	return nil
}

// Applies reports whether the rule set applies to the given URL.
func (r *RuleSet) Applies(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if len(r.Hosts) > 0 && !HostMatches(u.Hostname(), r.Hosts) {
		return false
	}
	if len(r.PathPatterns) > 0 {
		matched := false
		for _, p := range r.PathPatterns {
			if re, err := regexp.Compile(p); err == nil && re.MatchString(u.Path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// HostMatches reports whether hostname matches any entry exactly or as a
// dot-suffix (entry "example.com" matches "www.example.com").
func HostMatches(hostname string, entries []string) bool {
	hostname = strings.ToLower(hostname)
	for _, e := range entries {
		e = strings.ToLower(e)
		if hostname == e || strings.HasSuffix(hostname, "."+e) {
			return true
		}
	}
	return false
}

// RemovedElement records one element deleted by the rule engine.
type RemovedElement struct {
	Rule     string `json:"rule"`
	Selector string `json:"selector"`
	Tag      string `json:"tag"`
}

// CleaningReport describes one rule engine invocation. Reports are produced
// fresh per invocation and only survive as metrics aggregates.
type CleaningReport struct {
	OriginalElements int              `json:"originalElements"`
	FinalElements    int              `json:"finalElements"`
	Removed          []RemovedElement `json:"removed"`
	AppliedRules     []string         `json:"appliedRules"`
	ReductionPercent float64          `json:"reductionPercent"`
}

// Cleaner applies boilerplate-removal rule sets to raw HTML.
type Cleaner interface {
	// Clean parses the HTML, applies every rule set matching the URL in
	// priority order, and returns the cleaned HTML with a report.
	// A failing rule set is skipped; if the engine fails entirely the
	// original HTML is returned unchanged alongside the error.
	Clean(html string, url string) (string, *CleaningReport, error)
}
