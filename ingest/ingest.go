// Package ingest provides batch ingestion orchestration. It coordinates
// classification, fetching, cleaning, extraction, normalization, scoring,
// and storage of submitted pages.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pagesift/pagesift"
	"golang.org/x/sync/errgroup"
)

// DefaultSliceSize is the number of pending items pulled per slice.
const DefaultSliceSize = 5

// DefaultSliceDelay is the pause between slices, coarse backpressure so a
// large batch doesn't saturate the network.
const DefaultSliceDelay = 2 * time.Second

// DefaultItemTimeout bounds the processing of a single item, fetch through
// persistence. A page that renders or extracts pathologically slowly fails
// instead of stalling the slice.
const DefaultItemTimeout = 2 * time.Minute

// maxErrorLength caps the error text persisted on a failed item.
const maxErrorLength = 500

// Pipeline orchestrates the ingestion of batches. Exactly one batch run
// executes per process at a time.
type Pipeline struct {
	Batches    pagesift.BatchService
	Items      pagesift.ItemService
	Contents   pagesift.ContentService
	Classifier pagesift.Classifier
	Fetcher    pagesift.Fetcher
	Cleaner    pagesift.Cleaner
	Extractor  pagesift.Extractor
	Metadata   pagesift.MetadataExtractor
	Normalizer pagesift.Normalizer
	Scorer     pagesift.Scorer

	// PDFs handles PDF items. Optional: without it PDF items fail with
	// EUNAVAILABLE.
	PDFs pagesift.PDFService

	// Metrics receives per-invocation cleaning and scoring observations.
	// Optional.
	Metrics pagesift.MetricsRecorder

	// RateLimiter throttles fetches per domain. Optional.
	RateLimiter pagesift.DomainLimiter

	// Logger receives progress and retry logging. Optional.
	Logger *slog.Logger

	SliceSize int

	// SliceDelay paces consecutive full slices. Zero selects
	// DefaultSliceDelay; a negative value disables pacing.
	SliceDelay time.Duration

	ItemTimeout time.Duration
	RetryDelays []time.Duration

	busy atomic.Bool
}

// Result holds the outcome of a batch run.
type Result struct {
	Slices    int
	Completed int
	Failed    int
}

// ProcessBatch drains all pending items of a batch in bounded slices and
// marks the batch completed when none remain. Returns ECONFLICT if another
// run is already in progress in this process, or if the batch is still
// importing.
func (p *Pipeline) ProcessBatch(ctx context.Context, batchID string) (*Result, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, pagesift.Errorf(pagesift.ECONFLICT, "another batch run is already in progress")
	}
	defer p.busy.Store(false)

	batch, err := p.Batches.FindBatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status == pagesift.BatchImporting {
		return nil, pagesift.Errorf(pagesift.ECONFLICT, "batch is still importing")
	}

	sliceSize := p.SliceSize
	if sliceSize <= 0 {
		sliceSize = DefaultSliceSize
	}

	result := &Result{}
	var completed, failed atomic.Int64

	for {
		pending := pagesift.ItemPending
		items, err := p.Items.FindItems(ctx, pagesift.ItemFilter{
			BatchID: &batchID,
			Status:  &pending,
			Limit:   sliceSize,
		})
		if err != nil {
			return result, err
		}
		if len(items) == 0 {
			break
		}

		result.Slices++

		// All items in a slice run concurrently and settle independently;
		// one bad item never blocks or fails the batch.
		launched := 0
		g := errgroup.Group{}
		g.SetLimit(sliceSize)
		for _, item := range items {
			if err := p.Items.MarkFetching(ctx, item.ID); err != nil {
				p.log().Warn("skipping item", "id", item.ID, "url", item.URL, "error", err)
				continue
			}
			launched++
			g.Go(func() error {
				itemCtx, cancel := context.WithTimeout(ctx, p.itemTimeout())
				defer cancel()
				contentID, err := p.processItem(itemCtx, item)
				if err != nil {
					failed.Add(1)
					p.log().Warn("item failed", "id", item.ID, "url", item.URL, "error", err)
					if markErr := p.Items.MarkFailed(ctx, item.ID, truncateError(err)); markErr != nil {
						p.log().Error("failed to mark item failed", "id", item.ID, "error", markErr)
					}
					return nil
				}
				completed.Add(1)
				p.log().Info("item completed", "id", item.ID, "url", item.URL, "content_id", contentID)
				if markErr := p.Items.MarkCompleted(ctx, item.ID, contentID); markErr != nil {
					p.log().Error("failed to mark item completed", "id", item.ID, "error", markErr)
				}
				return nil
			})
		}
		_ = g.Wait()

		// A slice where no item could be marked fetching leaves the same
		// pending items for the next listing; abort instead of spinning.
		if launched == 0 {
			result.Completed = int(completed.Load())
			result.Failed = int(failed.Load())
			return result, pagesift.Errorf(pagesift.EINTERNAL, "no item in batch %s could be marked fetching", batchID)
		}

		// Fixed pacing between slices.
		if delay := p.sliceDelay(); delay > 0 && len(items) == sliceSize {
			select {
			case <-ctx.Done():
				result.Completed = int(completed.Load())
				result.Failed = int(failed.Load())
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	result.Completed = int(completed.Load())
	result.Failed = int(failed.Load())

	if err := p.Batches.MarkBatchDone(ctx, batchID); err != nil {
		return result, err
	}

	p.log().Info("batch done", "id", batchID,
		"slices", result.Slices, "completed", result.Completed, "failed", result.Failed)

	return result, nil
}

// RetryFailed resets all failed items of a batch back to pending and runs
// the batch again. Returns the number of items reset along with the run
// result.
func (p *Pipeline) RetryFailed(ctx context.Context, batchID string) (int, *Result, error) {
	reset, err := p.Items.ResetFailed(ctx, batchID)
	if err != nil {
		return 0, nil, err
	}
	if reset == 0 {
		return 0, &Result{}, nil
	}

	result, err := p.ProcessBatch(ctx, batchID)
	return reset, result, err
}

// processItem runs one item through the full chain and returns the ID of
// the persisted content record.
func (p *Pipeline) processItem(ctx context.Context, item *pagesift.Item) (string, error) {
	host := hostnameOf(item.URL)

	if hasPDFPath(item.URL) {
		return p.processPDF(ctx, item, host)
	}

	if p.RateLimiter != nil && host != "" {
		if err := p.RateLimiter.Wait(ctx, host); err != nil {
			return "", err
		}
	}

	rawHTML, respType, err := FetchWithRetryDelays(ctx, item.URL, p.Fetcher.Fetch, p.logf(), p.retryDelays())
	if err != nil {
		return "", err
	}
	if isPDFContentType(respType) {
		return p.processPDF(ctx, item, host)
	}

	contentType := p.Classifier.Classify(ctx, item.URL, rawHTML)

	start := time.Now()
	cleaned, report, err := p.Cleaner.Clean(rawHTML, item.URL)
	if p.Metrics != nil {
		p.Metrics.RecordCleaning(host, report, time.Since(start), err)
	}
	if err != nil {
		// The engine hands back the best markup it has; cleaning trouble
		// never fails the item.
		p.log().Warn("cleaning degraded", "id", item.ID, "url", item.URL, "error", err)
		if cleaned == "" {
			cleaned = rawHTML
		}
	}

	record := &pagesift.ContentRecord{
		ItemID:      item.ID,
		ContentType: contentType,
		SourceURL:   item.URL,
		Hostname:    host,
	}

	if contentType == pagesift.ContentTypeArticle {
		extracted, err := p.Extractor.Extract(cleaned, item.URL)
		if err != nil {
			// No confident extraction is terminal for the item.
			return "", err
		}

		normalized := p.Normalizer.Normalize(extracted.ContentHTML)
		record.Title = firstNonEmpty(extracted.Title, item.Title)
		record.Content = normalized.Text
		record.Byline = extracted.Byline
		record.SiteName = extracted.SiteName
		record.Score = p.scoreText(host, normalized.Text)
	} else {
		md, err := p.Metadata.ExtractMetadata(cleaned, item.URL, contentType)
		if err != nil {
			return "", err
		}

		// No extraction boundary: type-specific metadata plus the lightly
		// cleaned markup as content.
		record.Title = firstNonEmpty(md.Title, item.Title)
		record.Content = cleaned
		record.Metadata = md.Fields
		if md.Description != "" {
			if record.Metadata == nil {
				record.Metadata = make(map[string]string)
			}
			record.Metadata["description"] = md.Description
			record.Preview = pagesift.MakePreview(md.Description, pagesift.DefaultPreviewLength)
		}
	}

	if err := p.Contents.CreateContent(ctx, record); err != nil {
		return "", err
	}

	return record.ID, nil
}

// processPDF delegates a PDF item to the PDF collaborator and persists the
// result. PDF text goes straight to scoring; it never passes through the
// rule engine or the extraction boundary.
func (p *Pipeline) processPDF(ctx context.Context, item *pagesift.Item, host string) (string, error) {
	if p.PDFs == nil {
		return "", pagesift.Errorf(pagesift.EUNAVAILABLE, "PDF extraction is not configured")
	}

	res, err := p.PDFs.ExtractText(ctx, item.URL)
	if err != nil {
		return "", err
	}

	record := &pagesift.ContentRecord{
		ItemID:      item.ID,
		ContentType: pagesift.ContentTypePDF,
		SourceURL:   item.URL,
		Hostname:    host,
		Title:       firstNonEmpty(res.Title, item.Title),
		Content:     res.Text,
		Score:       p.scoreText(host, res.Text),
		Metadata: map[string]string{
			"pages": strconv.Itoa(res.Pages),
			"bytes": strconv.Itoa(res.Bytes),
		},
	}

	if err := p.Contents.CreateContent(ctx, record); err != nil {
		return "", err
	}

	return record.ID, nil
}

func (p *Pipeline) scoreText(host, text string) float64 {
	start := time.Now()
	score := p.Scorer.Score(text)
	if p.Metrics != nil {
		p.Metrics.RecordScore(host, score, time.Since(start))
	}
	return score.Overall
}

func (p *Pipeline) sliceDelay() time.Duration {
	if p.SliceDelay != 0 {
		return p.SliceDelay
	}
	return DefaultSliceDelay
}

func (p *Pipeline) itemTimeout() time.Duration {
	if p.ItemTimeout > 0 {
		return p.ItemTimeout
	}
	return DefaultItemTimeout
}

func (p *Pipeline) retryDelays() []time.Duration {
	if p.RetryDelays != nil {
		return p.RetryDelays
	}
	return DefaultRetryDelays()
}

func (p *Pipeline) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (p *Pipeline) logf() LogFunc {
	logger := p.Logger
	if logger == nil {
		return nil
	}
	return func(format string, args ...any) {
		logger.Debug("fetch retry", "detail", strings.TrimSpace(fmt.Sprintf(format, args...)))
	}
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func hasPDFPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

func isPDFContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/pdf")
}

// truncateError caps persisted error text so one pathological failure
// can't bloat the items table.
func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength] + "..."
	}
	return msg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
