package pagesift

import (
	"context"
	"time"
)

// BatchStatus represents the lifecycle state of a batch.
type BatchStatus string

// Batch lifecycle states. A batch is importing while items are being
// submitted, fetching_content while the pipeline drains it, and completed
// when no pending items remain.
const (
	BatchImporting       BatchStatus = "importing"
	BatchFetchingContent BatchStatus = "fetching_content"
	BatchCompleted       BatchStatus = "completed"
)

// Batch represents a group of ingestion items tracked together.
type Batch struct {
	ID        string      `json:"id"`
	Total     int         `json:"total"`
	Imported  int         `json:"imported"`
	Status    BatchStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Validate returns an error if the batch contains invalid fields.
func (b *Batch) Validate() error {
	if b.Total < 0 {
		return Errorf(EINVALID, "batch total must be non-negative")
	}
	return nil
}

// BatchProgress reports per-status item counts for a batch.
// The counts are computed from item state, so
// Pending+InProgress+Completed+Failed always equals Imported.
type BatchProgress struct {
	BatchID    string `json:"batchId"`
	Total      int    `json:"total"`
	Imported   int    `json:"imported"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"inProgress"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`

	// PercentComplete is the share of imported items in a terminal state,
	// in [0,100].
	PercentComplete float64 `json:"percentComplete"`
}

// BatchService represents a service for managing batches.
type BatchService interface {
	// CreateBatch creates a new batch in the importing state.
	// Total declares the expected number of items.
	CreateBatch(ctx context.Context, batch *Batch) error

	// FindBatchByID retrieves a batch by ID.
	// Returns ENOTFOUND if the batch does not exist.
	FindBatchByID(ctx context.Context, id string) (*Batch, error)

	// CompleteBatch transitions a batch from importing to fetching_content.
	// Returns ECONFLICT if the batch is not importing.
	CompleteBatch(ctx context.Context, id string) error

	// MarkBatchDone transitions a batch to completed.
	MarkBatchDone(ctx context.Context, id string) error

	// Progress returns the per-status item counts for a batch.
	Progress(ctx context.Context, id string) (*BatchProgress, error)
}
