// Package bloom provides probabilistic URL deduplication used to guard
// batch submission against re-importing the same pages.
package bloom

import (
	"net/url"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
)

// Deduper tracks which URLs have already been submitted. False positives
// are possible (a new URL may be reported as seen); false negatives are
// not.
type Deduper struct {
	f *bloom.BloomFilter
}

// NewDeduper creates a deduper sized for n expected URLs with the given
// false positive rate.
func NewDeduper(n uint, fpRate float64) *Deduper {
	return &Deduper{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Seen reports whether the URL was likely submitted before, then remembers
// it. URLs are normalized first, so trivially different spellings of the
// same page collapse to one entry.
func (d *Deduper) Seen(rawURL string) bool {
	key := NormalizeURL(rawURL)
	seen := d.f.TestString(key)
	d.f.AddString(key)
	return seen
}

// Test reports whether the URL was likely submitted before, without
// remembering it.
func (d *Deduper) Test(rawURL string) bool {
	return d.f.TestString(NormalizeURL(rawURL))
}

// EstimatedCount returns the approximate number of distinct URLs seen.
func (d *Deduper) EstimatedCount() uint {
	return uint(d.f.ApproximatedSize())
}

// NormalizeURL canonicalizes a URL for dedup purposes: lowercases the
// scheme and host, drops fragments and tracking query parameters, and
// trims a trailing slash from the path. Unparseable input is returned
// trimmed but otherwise as-is.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	q := u.Query()
	for key := range q {
		if isTrackingParam(key) {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	switch key {
	case "fbclid", "gclid", "mc_cid", "mc_eid", "ref", "igshid":
		return true
	}
	return false
}
