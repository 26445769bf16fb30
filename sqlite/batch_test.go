package sqlite_test

import (
	"context"
	"testing"

	"github.com/pagesift/pagesift"
	"github.com/pagesift/pagesift/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchService_CreateBatch(t *testing.T) {
	t.Parallel()

	t.Run("creates batch with generated ID in importing state", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewBatchService(db)
		ctx := context.Background()

		batch := &pagesift.Batch{Total: 10}
		err := svc.CreateBatch(ctx, batch)
		require.NoError(t, err)

		assert.NotEmpty(t, batch.ID, "ID should be generated")
		assert.Equal(t, pagesift.BatchImporting, batch.Status)
		assert.False(t, batch.CreatedAt.IsZero(), "CreatedAt should be set")
	})

	t.Run("returns error for negative total", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewBatchService(db)

		err := svc.CreateBatch(context.Background(), &pagesift.Batch{Total: -1})
		require.Error(t, err)
		assert.Equal(t, pagesift.EINVALID, pagesift.ErrorCode(err))
	})
}

func TestBatchService_FindBatchByID(t *testing.T) {
	t.Parallel()

	t.Run("finds created batch", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewBatchService(db)
		ctx := context.Background()

		batch := &pagesift.Batch{Total: 3}
		require.NoError(t, svc.CreateBatch(ctx, batch))

		found, err := svc.FindBatchByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, batch.ID, found.ID)
		assert.Equal(t, 3, found.Total)
	})

	t.Run("returns ENOTFOUND for unknown ID", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewBatchService(db)

		_, err := svc.FindBatchByID(context.Background(), "no-such-batch")
		require.Error(t, err)
		assert.Equal(t, pagesift.ENOTFOUND, pagesift.ErrorCode(err))
	})
}

func TestBatchService_CompleteBatch(t *testing.T) {
	t.Parallel()

	t.Run("transitions importing batch and freezes imported count", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewBatchService(db)
		items := sqlite.NewItemService(db)
		ctx := context.Background()

		batch := &pagesift.Batch{Total: 3}
		require.NoError(t, svc.CreateBatch(ctx, batch))

		_, err := items.CreateItems(ctx, batch.ID, []pagesift.NewItem{
			{URL: "https://example.com/a"},
			{URL: "https://example.com/b"},
		})
		require.NoError(t, err)

		require.NoError(t, svc.CompleteBatch(ctx, batch.ID))

		found, err := svc.FindBatchByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, pagesift.BatchFetchingContent, found.Status)
		assert.Equal(t, 2, found.Imported)
	})

	t.Run("returns ECONFLICT if batch is not importing", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewBatchService(db)
		ctx := context.Background()

		batch := &pagesift.Batch{}
		require.NoError(t, svc.CreateBatch(ctx, batch))
		require.NoError(t, svc.CompleteBatch(ctx, batch.ID))

		err := svc.CompleteBatch(ctx, batch.ID)
		require.Error(t, err)
		assert.Equal(t, pagesift.ECONFLICT, pagesift.ErrorCode(err))
	})
}

func TestBatchService_Progress(t *testing.T) {
	t.Parallel()

	t.Run("counts sum to imported across statuses", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		batches := sqlite.NewBatchService(db)
		items := sqlite.NewItemService(db)
		ctx := context.Background()

		batch, created := createTestBatch(t, db,
			"https://example.com/a",
			"https://example.com/b",
			"https://example.com/c",
			"https://example.com/d",
		)

		// a completed, b failed, c fetching, d still pending.
		require.NoError(t, items.MarkFetching(ctx, created[0].ID))
		require.NoError(t, items.MarkCompleted(ctx, created[0].ID, "content-1"))
		require.NoError(t, items.MarkFetching(ctx, created[1].ID))
		require.NoError(t, items.MarkFailed(ctx, created[1].ID, "fetch timeout"))
		require.NoError(t, items.MarkFetching(ctx, created[2].ID))

		p, err := batches.Progress(ctx, batch.ID)
		require.NoError(t, err)

		assert.Equal(t, 4, p.Imported)
		assert.Equal(t, 1, p.Pending)
		assert.Equal(t, 1, p.InProgress)
		assert.Equal(t, 1, p.Completed)
		assert.Equal(t, 1, p.Failed)
		assert.Equal(t, p.Imported, p.Pending+p.InProgress+p.Completed+p.Failed)
		assert.InDelta(t, 50.0, p.PercentComplete, 1e-9)
	})

	t.Run("empty batch reports zero progress", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewBatchService(db)
		ctx := context.Background()

		batch := &pagesift.Batch{}
		require.NoError(t, svc.CreateBatch(ctx, batch))

		p, err := svc.Progress(ctx, batch.ID)
		require.NoError(t, err)
		assert.Zero(t, p.Imported)
		assert.Zero(t, p.PercentComplete)
	})
}

func TestBatchService_MarkBatchDone(t *testing.T) {
	t.Parallel()

	t.Run("marks batch completed", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewBatchService(db)
		ctx := context.Background()

		batch := &pagesift.Batch{}
		require.NoError(t, svc.CreateBatch(ctx, batch))
		require.NoError(t, svc.MarkBatchDone(ctx, batch.ID))

		found, err := svc.FindBatchByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, pagesift.BatchCompleted, found.Status)
	})

	t.Run("returns ENOTFOUND for unknown ID", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewBatchService(db)

		err := svc.MarkBatchDone(context.Background(), "no-such-batch")
		require.Error(t, err)
		assert.Equal(t, pagesift.ENOTFOUND, pagesift.ErrorCode(err))
	})
}
