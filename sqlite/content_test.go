package sqlite_test

import (
	"context"
	"testing"

	"github.com/pagesift/pagesift"
	"github.com/pagesift/pagesift/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentService_CreateContent(t *testing.T) {
	t.Parallel()

	t.Run("derives ID, hash, preview, and hostname", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewContentService(db)
		ctx := context.Background()

		_, created := createTestBatch(t, db, "https://example.com/a")

		record := &pagesift.ContentRecord{
			ItemID:      created[0].ID,
			Title:       "Brew Guide",
			Content:     "# Brew Guide\n\nGrind the beans coarsely before brewing.",
			ContentType: pagesift.ContentTypeArticle,
			SourceURL:   "https://Coffee.Example.com/guides/brewing",
			Score:       82.5,
		}

		require.NoError(t, svc.CreateContent(ctx, record))

		assert.NotEmpty(t, record.ID)
		assert.NotEmpty(t, record.ContentHash)
		assert.NotEmpty(t, record.Preview)
		assert.Equal(t, "coffee.example.com", record.Hostname)
		assert.False(t, record.CreatedAt.IsZero())
	})

	t.Run("identical content hashes identically", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewContentService(db)
		ctx := context.Background()

		_, created := createTestBatch(t, db, "https://example.com/a", "https://example.com/b")

		a := &pagesift.ContentRecord{
			ItemID: created[0].ID, Content: "same text",
			ContentType: pagesift.ContentTypeArticle, SourceURL: "https://example.com/a",
		}
		b := &pagesift.ContentRecord{
			ItemID: created[1].ID, Content: "same text",
			ContentType: pagesift.ContentTypeArticle, SourceURL: "https://example.com/b",
		}
		require.NoError(t, svc.CreateContent(ctx, a))
		require.NoError(t, svc.CreateContent(ctx, b))

		assert.Equal(t, a.ContentHash, b.ContentHash)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("round-trips metadata", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewContentService(db)
		ctx := context.Background()

		_, created := createTestBatch(t, db, "https://shop.example.com/p/1")

		record := &pagesift.ContentRecord{
			ItemID:      created[0].ID,
			Title:       "Espresso Machine",
			ContentType: pagesift.ContentTypeProduct,
			SourceURL:   "https://shop.example.com/p/1",
			Metadata: map[string]string{
				"price":        "549.00",
				"availability": "InStock",
			},
		}
		require.NoError(t, svc.CreateContent(ctx, record))

		found, err := svc.FindContentByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.Metadata, found.Metadata)
		assert.Equal(t, pagesift.ContentTypeProduct, found.ContentType)
	})

	t.Run("rejects invalid record", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewContentService(db)

		err := svc.CreateContent(context.Background(), &pagesift.ContentRecord{})
		require.Error(t, err)
		assert.Equal(t, pagesift.EINVALID, pagesift.ErrorCode(err))
	})
}

func TestContentService_FindContents(t *testing.T) {
	t.Parallel()

	t.Run("filters by hostname and content type", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewContentService(db)
		ctx := context.Background()

		_, created := createTestBatch(t, db,
			"https://blog.example.com/post", "https://shop.example.com/p/1")

		require.NoError(t, svc.CreateContent(ctx, &pagesift.ContentRecord{
			ItemID: created[0].ID, ContentType: pagesift.ContentTypeArticle,
			SourceURL: "https://blog.example.com/post", Content: "post body",
		}))
		require.NoError(t, svc.CreateContent(ctx, &pagesift.ContentRecord{
			ItemID: created[1].ID, ContentType: pagesift.ContentTypeProduct,
			SourceURL: "https://shop.example.com/p/1",
		}))

		hostname := "blog.example.com"
		got, err := svc.FindContents(ctx, pagesift.ContentFilter{Hostname: &hostname})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "https://blog.example.com/post", got[0].SourceURL)

		product := pagesift.ContentTypeProduct
		got, err = svc.FindContents(ctx, pagesift.ContentFilter{ContentType: &product})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "https://shop.example.com/p/1", got[0].SourceURL)
	})

	t.Run("returns ENOTFOUND for unknown ID", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewContentService(db)

		_, err := svc.FindContentByID(context.Background(), "no-such-content")
		require.Error(t, err)
		assert.Equal(t, pagesift.ENOTFOUND, pagesift.ErrorCode(err))
	})
}
