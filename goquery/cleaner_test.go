package goquery_test

import (
	"strings"
	"sync"
	"testing"

	psgoquery "github.com/pagesift/pagesift/goquery"

	"github.com/pagesift/pagesift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// productDescription is a 150+ word, vocabulary-varied block that the
// preservation predicate must protect from removal.
const productDescription = `This ergonomic task chair combines breathable mesh upholstery with a
contoured lumbar support system designed for extended working sessions. The
synchronized tilt mechanism follows your posture naturally, while the
adjustable seat depth accommodates users of different heights. Armrests pivot
in four directions and lock at your preferred angle, reducing shoulder strain
during keyboard work. The aluminum base carries a ten year structural
warranty and glides smoothly on carpet or hardwood thanks to dual wheel
casters rated for daily commercial use. Assembly requires roughly fifteen
minutes with the included hex key, and every fastener arrives clearly
labeled. Independent laboratories certified the foam cushion for low
chemical emissions, making this model suitable for home offices and shared
studio spaces alike. Customers praise the quiet recline action, the
generously padded headrest, and the simple cleaning routine: a damp cloth
restores the mesh weave without special detergents or tools.`

func cartPopupHTML() string {
	return `<html><head><title>Chair</title></head><body>
		<div class="cart-popup"><p>Your cart</p><button>Checkout</button></div>
		<div class="modal"><p>Subscribe to our newsletter!</p></div>
		<div class="description"><p>` + productDescription + `</p></div>
	</body></html>`
}

func newTestCleaner(t *testing.T, rules []pagesift.RuleSet) *psgoquery.Cleaner {
	t.Helper()
	c, err := psgoquery.NewCleaner(rules)
	require.NoError(t, err)
	return c
}

func TestCleanerClean(t *testing.T) {
	t.Parallel()

	t.Run("removes matched elements", func(t *testing.T) {
		t.Parallel()

		c := newTestCleaner(t, []pagesift.RuleSet{
			{Name: "chrome", Priority: 10, Selectors: []string{"nav", "footer"}},
		})

		out, report, err := c.Clean(`<html><body><nav><a href="/">Home</a></nav><p>Hello</p><footer>fine print</footer></body></html>`, "https://example.com/")

		require.NoError(t, err)
		assert.NotContains(t, out, "<nav>")
		assert.NotContains(t, out, "<footer>")
		assert.Contains(t, out, "<p>Hello</p>")
		assert.Equal(t, []string{"chrome"}, report.AppliedRules)
		assert.Len(t, report.Removed, 2)
		assert.Greater(t, report.ReductionPercent, 0.0)
	})

	t.Run("removes popups but preserves substantial description", func(t *testing.T) {
		t.Parallel()

		rules, err := psgoquery.DefaultRuleSets()
		require.NoError(t, err)
		c := newTestCleaner(t, rules)

		out, report, err := c.Clean(cartPopupHTML(), "https://shop.example.com/chairs/42")

		require.NoError(t, err)
		assert.NotContains(t, out, "cart-popup")
		assert.NotContains(t, out, "newsletter")
		assert.Contains(t, out, "ergonomic task chair")
		assert.NotEmpty(t, report.AppliedRules)
	})

	t.Run("is deterministic across repeated runs", func(t *testing.T) {
		t.Parallel()

		rules, err := psgoquery.DefaultRuleSets()
		require.NoError(t, err)
		c := newTestCleaner(t, rules)

		first, _, err := c.Clean(cartPopupHTML(), "https://shop.example.com/chairs/42")
		require.NoError(t, err)

		for range 5 {
			again, _, err := c.Clean(cartPopupHTML(), "https://shop.example.com/chairs/42")
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("applies rules in ascending priority order", func(t *testing.T) {
		t.Parallel()

		// The low-priority rule removes the wrapper; by the time the
		// high-priority rule runs its target is already gone.
		c := newTestCleaner(t, []pagesift.RuleSet{
			{Name: "second", Priority: 20, Selectors: []string{".inner"}},
			{Name: "first", Priority: 10, Selectors: []string{".outer"}},
		})

		_, report, err := c.Clean(`<html><body><div class="outer"><span class="inner">x</span></div></body></html>`, "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, report.AppliedRules)
		require.Len(t, report.Removed, 1)
		assert.Equal(t, "first", report.Removed[0].Rule)
	})

	t.Run("applies hostname-specific selectors only on matching host", func(t *testing.T) {
		t.Parallel()

		c := newTestCleaner(t, []pagesift.RuleSet{
			{Name: "site", Priority: 10, HostSelectors: map[string][]string{
				"example.com": {".clap-count"},
			}},
		})

		page := `<html><body><span class="clap-count">42</span><p>text</p></body></html>`

		out, _, err := c.Clean(page, "https://www.example.com/post")
		require.NoError(t, err)
		assert.NotContains(t, out, "clap-count")

		out, _, err = c.Clean(page, "https://other.org/post")
		require.NoError(t, err)
		assert.Contains(t, out, "clap-count")
	})

	t.Run("multiple matching host entries apply in a fixed order", func(t *testing.T) {
		t.Parallel()

		// Both host keys match blog.example.com; they must apply in sorted
		// key order, so the inner element is removed and reported before
		// the outer one on every run.
		c := newTestCleaner(t, []pagesift.RuleSet{
			{Name: "site", Priority: 10, HostSelectors: map[string][]string{
				"example.com":      {".outer"},
				"blog.example.com": {".inner"},
			}},
		})

		page := `<html><body><div class="outer"><span class="inner">x</span></div><p>text</p></body></html>`

		for range 10 {
			_, report, err := c.Clean(page, "https://blog.example.com/post")
			require.NoError(t, err)
			require.Len(t, report.Removed, 2)
			assert.Equal(t, ".inner", report.Removed[0].Selector)
			assert.Equal(t, ".outer", report.Removed[1].Selector)
		}
	})

	t.Run("shared cleaner stays consistent across concurrent cleans", func(t *testing.T) {
		t.Parallel()

		c := newTestCleaner(t, []pagesift.RuleSet{
			{
				Name:      "mixed",
				Priority:  10,
				Selectors: []string{"nav", "footer", ".promo"},
				HostSelectors: map[string][]string{
					"example.com": {".clap-count", ".sidebar"},
				},
			},
		})

		page := `<html><body><nav>menu</nav><span class="clap-count">42</span>` +
			`<div class="sidebar">links</div><div class="promo">sale</div>` +
			`<p>text</p><footer>fine print</footer></body></html>`

		want, _, err := c.Clean(page, "https://example.com/post")
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 20 {
					got, _, err := c.Clean(page, "https://example.com/post")
					assert.NoError(t, err)
					assert.Equal(t, want, got)
				}
			}()
		}
		wg.Wait()
	})

	t.Run("skips rule sets whose URL predicate does not match", func(t *testing.T) {
		t.Parallel()

		c := newTestCleaner(t, []pagesift.RuleSet{
			{Name: "blog-only", Priority: 10, PathPatterns: []string{`^/blog/`}, Selectors: []string{"aside"}},
		})

		out, report, err := c.Clean(`<html><body><aside>related</aside></body></html>`, "https://example.com/shop")

		require.NoError(t, err)
		assert.Contains(t, out, "<aside>")
		assert.Empty(t, report.AppliedRules)
	})

	t.Run("strips attributes including prefix patterns", func(t *testing.T) {
		t.Parallel()

		c := newTestCleaner(t, []pagesift.RuleSet{
			{Name: "attrs", Priority: 10, StripAttrs: []string{"style", "on*"}},
		})

		out, _, err := c.Clean(`<html><body><p style="color:red" onclick="x()" id="keep">text</p></body></html>`, "https://example.com/")

		require.NoError(t, err)
		assert.NotContains(t, out, "style=")
		assert.NotContains(t, out, "onclick=")
		assert.Contains(t, out, `id="keep"`)
	})

	t.Run("scrubs text patterns and prunes emptied ancestors", func(t *testing.T) {
		t.Parallel()

		c := newTestCleaner(t, []pagesift.RuleSet{
			{Name: "scrub", Priority: 10, TextPatterns: []string{`(?i)^\s*advertisement\s*$`}},
		})

		out, _, err := c.Clean(`<html><body><div><span>Advertisement</span></div><p>real text</p></body></html>`, "https://example.com/")

		require.NoError(t, err)
		assert.NotContains(t, out, "Advertisement")
		assert.NotContains(t, out, "<span>")
		assert.Contains(t, out, "real text")
	})

	t.Run("keeps emptied ancestors that hold media", func(t *testing.T) {
		t.Parallel()

		c := newTestCleaner(t, []pagesift.RuleSet{
			{Name: "scrub", Priority: 10, TextPatterns: []string{`(?i)advertisement`}},
		})

		out, _, err := c.Clean(`<html><body><figure><img src="/diagram.png"/><figcaption>Advertisement</figcaption></figure></body></html>`, "https://example.com/")

		require.NoError(t, err)
		assert.Contains(t, out, "<img")
	})

	t.Run("prunes empty elements but keeps void tags", func(t *testing.T) {
		t.Parallel()

		c := newTestCleaner(t, []pagesift.RuleSet{
			{Name: "prune", Priority: 10, PruneEmpty: true},
		})

		out, _, err := c.Clean(`<html><body><div><span>  </span></div><p>kept</p><hr/><img src="x.png"/></body></html>`, "https://example.com/")

		require.NoError(t, err)
		assert.NotContains(t, out, "<span>")
		assert.NotContains(t, out, "<div>")
		assert.Contains(t, out, "<hr")
		assert.Contains(t, out, "<img")
		assert.Contains(t, out, "kept")
	})

	t.Run("handles empty input without failing", func(t *testing.T) {
		t.Parallel()

		rules, err := psgoquery.DefaultRuleSets()
		require.NoError(t, err)
		c := newTestCleaner(t, rules)

		out, report, err := c.Clean("", "https://example.com/")

		require.NoError(t, err)
		// The parser synthesizes a minimal document.
		assert.Contains(t, out, "<html>")
		assert.NotNil(t, report)
	})

	t.Run("rejects invalid selector at construction", func(t *testing.T) {
		t.Parallel()

		_, err := psgoquery.NewCleaner([]pagesift.RuleSet{
			{Name: "bad", Priority: 10, Selectors: []string{"p["}},
		})

		require.Error(t, err)
		assert.Equal(t, pagesift.EINVALID, pagesift.ErrorCode(err))
	})
}

func TestCleanerPreservationIsMonotonic(t *testing.T) {
	t.Parallel()

	// Two rules both match the description wrapper; the preservation
	// predicate must protect it from each of them.
	c := newTestCleaner(t, []pagesift.RuleSet{
		{Name: "one", Priority: 10, Selectors: []string{".description"}},
		{Name: "two", Priority: 20, Selectors: []string{"div"}},
	})

	out, _, err := c.Clean(cartPopupHTML(), "https://shop.example.com/chairs/42")

	require.NoError(t, err)
	assert.Contains(t, out, "ergonomic task chair")
	assert.True(t, strings.Contains(out, "description"))
}
