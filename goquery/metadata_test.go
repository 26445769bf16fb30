package goquery_test

import (
	"testing"

	"github.com/pagesift/pagesift"
	psgoquery "github.com/pagesift/pagesift/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMetadata(t *testing.T) {
	t.Parallel()

	t.Run("reads title and description from open graph", func(t *testing.T) {
		t.Parallel()

		page := `<html><head>
			<title>Fallback</title>
			<meta property="og:title" content="Ergonomic Chair"/>
			<meta property="og:description" content="A chair."/>
			<meta property="og:image" content="https://cdn.example.com/chair.jpg"/>
		</head><body></body></html>`

		md, err := psgoquery.ExtractMetadata(page, "https://shop.example.com/c/42", pagesift.ContentTypeOther)

		require.NoError(t, err)
		assert.Equal(t, "Ergonomic Chair", md.Title)
		assert.Equal(t, "A chair.", md.Description)
		assert.Equal(t, "https://cdn.example.com/chair.jpg", md.Fields["image"])
	})

	t.Run("falls back to title tag", func(t *testing.T) {
		t.Parallel()

		md, err := psgoquery.ExtractMetadata(`<html><head><title> Plain Title </title></head><body></body></html>`, "https://example.com/", pagesift.ContentTypeOther)

		require.NoError(t, err)
		assert.Equal(t, "Plain Title", md.Title)
	})

	t.Run("extracts product price and availability", func(t *testing.T) {
		t.Parallel()

		page := `<html><head>
			<meta property="product:price:amount" content="199.99"/>
			<meta property="product:availability" content="https://schema.org/InStock"/>
		</head><body></body></html>`

		md, err := psgoquery.ExtractMetadata(page, "https://shop.example.com/c/42", pagesift.ContentTypeProduct)

		require.NoError(t, err)
		assert.Equal(t, "199.99", md.Fields["price"])
		assert.Equal(t, "InStock", md.Fields["availability"])
	})

	t.Run("finds visible price text when metadata is absent", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><span class="product-price">$24.50</span><p>In stock, ships today.</p></body></html>`

		md, err := psgoquery.ExtractMetadata(page, "https://shop.example.com/c/7", pagesift.ContentTypeProduct)

		require.NoError(t, err)
		assert.Equal(t, "$24.50", md.Fields["price"])
		assert.Equal(t, "in stock", md.Fields["availability"])
	})

	t.Run("extracts social author and platform", func(t *testing.T) {
		t.Parallel()

		page := `<html><head><meta name="author" content="@somebody"/></head><body></body></html>`

		md, err := psgoquery.ExtractMetadata(page, "https://social.example.net/p/1", pagesift.ContentTypeSocial)

		require.NoError(t, err)
		assert.Equal(t, "@somebody", md.Fields["author"])
		assert.Equal(t, "social.example.net", md.Fields["platform"])
	})

	t.Run("extracts video duration and channel", func(t *testing.T) {
		t.Parallel()

		page := `<html><head>
			<meta property="og:video:duration" content="213"/>
			<meta itemprop="channelId" content="UC123"/>
		</head><body></body></html>`

		md, err := psgoquery.ExtractMetadata(page, "https://video.example.com/watch?v=1", pagesift.ContentTypeVideo)

		require.NoError(t, err)
		assert.Equal(t, "213", md.Fields["duration"])
		assert.Equal(t, "UC123", md.Fields["channel"])
	})
}

func TestLoadRuleSets(t *testing.T) {
	t.Parallel()

	t.Run("default rule sets load and validate", func(t *testing.T) {
		t.Parallel()

		rules, err := psgoquery.DefaultRuleSets()

		require.NoError(t, err)
		require.NotEmpty(t, rules)

		// Priorities must be usable for deterministic ordering.
		names := make(map[string]bool, len(rules))
		for _, rs := range rules {
			assert.NoError(t, rs.Validate())
			assert.False(t, names[rs.Name], "duplicate rule set name %q", rs.Name)
			names[rs.Name] = true
		}
		assert.True(t, names["overlays"])
		assert.True(t, names["text-scrub"])
	})

	t.Run("default rule sets compile into a cleaner", func(t *testing.T) {
		t.Parallel()

		rules, err := psgoquery.DefaultRuleSets()
		require.NoError(t, err)

		_, err = psgoquery.NewCleaner(rules)
		require.NoError(t, err)
	})
}
