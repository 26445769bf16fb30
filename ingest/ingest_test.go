package ingest_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pagesift/pagesift"
	"github.com/pagesift/pagesift/ingest"
	"github.com/pagesift/pagesift/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// itemStore is an in-memory pagesift.ItemService used to drive pipeline
// tests without a database.
type itemStore struct {
	mu    sync.Mutex
	items []*pagesift.Item
}

func newItemStore(batchID string, urls ...string) *itemStore {
	s := &itemStore{}
	for i, u := range urls {
		s.items = append(s.items, &pagesift.Item{
			ID:      "item-" + string(rune('a'+i)),
			BatchID: batchID,
			URL:     u,
			Status:  pagesift.ItemPending,
		})
	}
	return s
}

func (s *itemStore) service() *mock.ItemService {
	return &mock.ItemService{
		FindItemsFn: func(_ context.Context, filter pagesift.ItemFilter) ([]*pagesift.Item, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var out []*pagesift.Item
			for _, item := range s.items {
				if filter.Status != nil && item.Status != *filter.Status {
					continue
				}
				clone := *item
				out = append(out, &clone)
				if filter.Limit > 0 && len(out) == filter.Limit {
					break
				}
			}
			return out, nil
		},
		MarkFetchingFn: func(_ context.Context, id string) error {
			return s.setStatus(id, pagesift.ItemFetching, "", "")
		},
		MarkCompletedFn: func(_ context.Context, id, contentID string) error {
			return s.setStatus(id, pagesift.ItemCompleted, "", contentID)
		},
		MarkFailedFn: func(_ context.Context, id, errText string) error {
			return s.setStatus(id, pagesift.ItemFailed, errText, "")
		},
		ResetFailedFn: func(_ context.Context, batchID string) (int, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			n := 0
			for _, item := range s.items {
				if item.Status == pagesift.ItemFailed {
					item.Status = pagesift.ItemPending
					item.Error = ""
					n++
				}
			}
			return n, nil
		},
	}
}

func (s *itemStore) setStatus(id string, status pagesift.ItemStatus, errText, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			item.Status = status
			item.Error = errText
			item.ContentID = contentID
			return nil
		}
	}
	return pagesift.Errorf(pagesift.ENOTFOUND, "item not found")
}

func (s *itemStore) get(id string) *pagesift.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			clone := *item
			return &clone
		}
	}
	return nil
}

// contentStore collects created records.
type contentStore struct {
	mu      sync.Mutex
	records []*pagesift.ContentRecord
}

func (s *contentStore) service() *mock.ContentService {
	return &mock.ContentService{
		CreateContentFn: func(_ context.Context, record *pagesift.ContentRecord) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			record.ID = "content-" + record.ItemID
			s.records = append(s.records, record)
			return nil
		},
	}
}

func (s *contentStore) byItem(itemID string) *pagesift.ContentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ItemID == itemID {
			return r
		}
	}
	return nil
}

func fetchingBatch(id string) *mock.BatchService {
	return &mock.BatchService{
		FindBatchByIDFn: func(_ context.Context, batchID string) (*pagesift.Batch, error) {
			return &pagesift.Batch{ID: batchID, Status: pagesift.BatchFetchingContent}, nil
		},
		MarkBatchDoneFn: func(_ context.Context, _ string) error { return nil },
	}
}

// newTestPipeline wires a pipeline whose collaborators succeed for every
// article URL.
func newTestPipeline(items *itemStore, contents *contentStore) *ingest.Pipeline {
	return &ingest.Pipeline{
		Batches:  fetchingBatch("batch-1"),
		Items:    items.service(),
		Contents: contents.service(),
		Classifier: &mock.Classifier{
			ClassifyFn: func(_ context.Context, _, _ string) pagesift.ContentType {
				return pagesift.ContentTypeArticle
			},
		},
		Fetcher: &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, string, error) {
				return "<html><body><article><p>body text</p></article></body></html>", "text/html", nil
			},
		},
		Cleaner: &mock.Cleaner{
			CleanFn: func(html, _ string) (string, *pagesift.CleaningReport, error) {
				return html, &pagesift.CleaningReport{ReductionPercent: 10, AppliedRules: []string{"ads"}}, nil
			},
		},
		Extractor: &mock.Extractor{
			ExtractFn: func(_, _ string) (*pagesift.ExtractResult, error) {
				return &pagesift.ExtractResult{Title: "Extracted Title", ContentHTML: "<p>body text</p>"}, nil
			},
		},
		Metadata: &mock.MetadataExtractor{
			ExtractMetadataFn: func(_, _ string, _ pagesift.ContentType) (*pagesift.PageMetadata, error) {
				return &pagesift.PageMetadata{Title: "Meta Title"}, nil
			},
		},
		Normalizer: &mock.Normalizer{
			NormalizeFn: func(html string) *pagesift.NormalizedContent {
				return &pagesift.NormalizedContent{Text: "body text"}
			},
		},
		Scorer: &mock.Scorer{
			ScoreFn: func(_ string) *pagesift.QualityScore {
				return &pagesift.QualityScore{Overall: 75}
			},
		},
		SliceDelay:  -1,
		RetryDelays: []time.Duration{},
		Logger:      slog.New(slog.DiscardHandler),
	}
}

func TestPipeline_ProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("completes article items end to end", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/post-1", "https://blog.example.com/post-2")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)

		result, err := p.ProcessBatch(context.Background(), "batch-1")
		require.NoError(t, err)

		assert.Equal(t, 2, result.Completed)
		assert.Zero(t, result.Failed)

		item := items.get("item-a")
		require.NotNil(t, item)
		assert.Equal(t, pagesift.ItemCompleted, item.Status)
		assert.Equal(t, "content-item-a", item.ContentID)

		record := contents.byItem("item-a")
		require.NotNil(t, record)
		assert.Equal(t, "Extracted Title", record.Title)
		assert.Equal(t, "body text", record.Content)
		assert.Equal(t, pagesift.ContentTypeArticle, record.ContentType)
		assert.InDelta(t, 75.0, record.Score, 1e-9)
	})

	t.Run("one failing item never fails the batch", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/good", "https://blog.example.com/bad")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)
		p.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, string, error) {
				if strings.HasSuffix(url, "/bad") {
					return "", "", pagesift.Errorf(pagesift.EUNAVAILABLE, "HTTP 503 for %s", url)
				}
				return "<html><body><p>ok</p></body></html>", "text/html", nil
			},
		}

		result, err := p.ProcessBatch(context.Background(), "batch-1")
		require.NoError(t, err)

		assert.Equal(t, 1, result.Completed)
		assert.Equal(t, 1, result.Failed)

		bad := items.get("item-b")
		require.NotNil(t, bad)
		assert.Equal(t, pagesift.ItemFailed, bad.Status)
		assert.Contains(t, bad.Error, "HTTP 503")
	})

	t.Run("cleaning trouble degrades to available markup", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/odd-markup")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)
		p.Cleaner = &mock.Cleaner{
			CleanFn: func(html, _ string) (string, *pagesift.CleaningReport, error) {
				return html, &pagesift.CleaningReport{}, pagesift.Errorf(pagesift.EINTERNAL, "failed to render HTML: broken tree")
			},
		}

		result, err := p.ProcessBatch(context.Background(), "batch-1")
		require.NoError(t, err)

		assert.Equal(t, 1, result.Completed)
		assert.Zero(t, result.Failed)
		item := items.get("item-a")
		require.NotNil(t, item)
		assert.Equal(t, pagesift.ItemCompleted, item.Status)
		assert.NotNil(t, contents.byItem("item-a"))
	})

	t.Run("aborts when no item can be marked fetching", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/post")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)
		svc := items.service()
		svc.MarkFetchingFn = func(_ context.Context, _ string) error {
			return pagesift.Errorf(pagesift.EUNAVAILABLE, "storage unreachable")
		}
		p.Items = svc

		result, err := p.ProcessBatch(context.Background(), "batch-1")
		require.Error(t, err)
		assert.Equal(t, pagesift.EINTERNAL, pagesift.ErrorCode(err))
		assert.Equal(t, 1, result.Slices)

		item := items.get("item-a")
		require.NotNil(t, item)
		assert.Equal(t, pagesift.ItemPending, item.Status)
	})

	t.Run("paces full slices and honors cancellation during the pause", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/a", "https://blog.example.com/b")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)
		p.SliceSize = 1
		p.SliceDelay = 0 // zero selects the default pause

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, string, error) {
				cancel()
				return "<html><body><p>ok</p></body></html>", "text/html", nil
			},
		}

		result, err := p.ProcessBatch(ctx, "batch-1")
		require.ErrorIs(t, err, context.Canceled)

		assert.Equal(t, 1, result.Slices)
		assert.Equal(t, 1, result.Completed)
		second := items.get("item-b")
		require.NotNil(t, second)
		assert.Equal(t, pagesift.ItemPending, second.Status)
	})

	t.Run("extraction with no content is terminal for the item", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/empty")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)
		p.Extractor = &mock.Extractor{
			ExtractFn: func(_, url string) (*pagesift.ExtractResult, error) {
				return nil, pagesift.Errorf(pagesift.ENOTFOUND, "no content extracted from %s", url)
			},
		}

		result, err := p.ProcessBatch(context.Background(), "batch-1")
		require.NoError(t, err)

		assert.Equal(t, 1, result.Failed)
		item := items.get("item-a")
		require.NotNil(t, item)
		assert.Equal(t, pagesift.ItemFailed, item.Status)
		assert.Contains(t, item.Error, "no content extracted")
		assert.Nil(t, contents.byItem("item-a"))
	})

	t.Run("truncates long error text", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/long")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)
		p.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, string, error) {
				return "", "", errors.New(strings.Repeat("x", 2000))
			},
		}

		_, err := p.ProcessBatch(context.Background(), "batch-1")
		require.NoError(t, err)

		item := items.get("item-a")
		require.NotNil(t, item)
		assert.LessOrEqual(t, len(item.Error), 510)
		assert.True(t, strings.HasSuffix(item.Error, "..."))
	})

	t.Run("non-article items take the metadata path", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://shop.example.com/product/7")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)
		p.Classifier = &mock.Classifier{
			ClassifyFn: func(_ context.Context, _, _ string) pagesift.ContentType {
				return pagesift.ContentTypeProduct
			},
		}
		p.Metadata = &mock.MetadataExtractor{
			ExtractMetadataFn: func(_, _ string, ct pagesift.ContentType) (*pagesift.PageMetadata, error) {
				require.Equal(t, pagesift.ContentTypeProduct, ct)
				return &pagesift.PageMetadata{
					Title:       "Espresso Machine",
					Description: "A compact machine for home use.",
					Fields:      map[string]string{"price": "549.00"},
				}, nil
			},
		}
		p.Extractor = &mock.Extractor{
			ExtractFn: func(_, _ string) (*pagesift.ExtractResult, error) {
				t.Fatal("extractor must not run on the metadata path")
				return nil, nil
			},
		}

		result, err := p.ProcessBatch(context.Background(), "batch-1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Completed)

		record := contents.byItem("item-a")
		require.NotNil(t, record)
		assert.Equal(t, pagesift.ContentTypeProduct, record.ContentType)
		assert.Equal(t, "Espresso Machine", record.Title)
		assert.Equal(t, "549.00", record.Metadata["price"])
		assert.Equal(t, "A compact machine for home use.", record.Metadata["description"])
		// The metadata path keeps the cleaned markup as content.
		assert.Contains(t, record.Content, "<html>")
	})

	t.Run("pdf URLs delegate to the PDF collaborator", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://example.com/papers/report.pdf")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)
		p.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, string, error) {
				t.Fatal("fetcher must not run for PDF URLs")
				return "", "", nil
			},
		}
		p.PDFs = &mock.PDFService{
			ExtractTextFn: func(_ context.Context, url string) (*pagesift.PDFResult, error) {
				return &pagesift.PDFResult{Title: "Report", Text: "Findings.", Pages: 12, Bytes: 4096}, nil
			},
		}

		result, err := p.ProcessBatch(context.Background(), "batch-1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Completed)

		record := contents.byItem("item-a")
		require.NotNil(t, record)
		assert.Equal(t, pagesift.ContentTypePDF, record.ContentType)
		assert.Equal(t, "Report", record.Title)
		assert.Equal(t, "12", record.Metadata["pages"])
	})

	t.Run("pdf items fail when no PDF collaborator configured", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://example.com/report.pdf")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)

		result, err := p.ProcessBatch(context.Background(), "batch-1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("only one run per process", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/slow")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)

		started := make(chan struct{})
		release := make(chan struct{})
		p.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, string, error) {
				close(started)
				<-release
				return "<html><body><p>ok</p></body></html>", "text/html", nil
			},
		}

		done := make(chan error, 1)
		go func() {
			_, err := p.ProcessBatch(context.Background(), "batch-1")
			done <- err
		}()

		<-started
		_, err := p.ProcessBatch(context.Background(), "batch-1")
		require.Error(t, err)
		assert.Equal(t, pagesift.ECONFLICT, pagesift.ErrorCode(err))

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("importing batch is ECONFLICT", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)
		p.Batches = &mock.BatchService{
			FindBatchByIDFn: func(_ context.Context, id string) (*pagesift.Batch, error) {
				return &pagesift.Batch{ID: id, Status: pagesift.BatchImporting}, nil
			},
		}

		_, err := p.ProcessBatch(context.Background(), "batch-1")
		require.Error(t, err)
		assert.Equal(t, pagesift.ECONFLICT, pagesift.ErrorCode(err))
	})

	t.Run("marks batch done after draining", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/post")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)

		var markedDone bool
		p.Batches = &mock.BatchService{
			FindBatchByIDFn: func(_ context.Context, id string) (*pagesift.Batch, error) {
				return &pagesift.Batch{ID: id, Status: pagesift.BatchFetchingContent}, nil
			},
			MarkBatchDoneFn: func(_ context.Context, id string) error {
				markedDone = true
				return nil
			},
		}

		_, err := p.ProcessBatch(context.Background(), "batch-1")
		require.NoError(t, err)
		assert.True(t, markedDone)
	})
}

func TestPipeline_RetryFailed(t *testing.T) {
	t.Parallel()

	t.Run("resets failed items and reruns", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/flaky")
		items.setStatus("item-a", pagesift.ItemFailed, "HTTP 503", "")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)

		reset, result, err := p.RetryFailed(context.Background(), "batch-1")
		require.NoError(t, err)

		assert.Equal(t, 1, reset)
		assert.Equal(t, 1, result.Completed)
		item := items.get("item-a")
		require.NotNil(t, item)
		assert.Equal(t, pagesift.ItemCompleted, item.Status)
	})

	t.Run("no failed items is a no-op", func(t *testing.T) {
		t.Parallel()

		items := newItemStore("batch-1", "https://blog.example.com/done")
		items.setStatus("item-a", pagesift.ItemCompleted, "", "content-1")
		contents := &contentStore{}
		p := newTestPipeline(items, contents)

		reset, result, err := p.RetryFailed(context.Background(), "batch-1")
		require.NoError(t, err)
		assert.Zero(t, reset)
		assert.Zero(t, result.Completed)
	})
}
