package pagesift

import (
	"context"
	"time"
)

// ItemStatus represents the lifecycle state of an ingestion item.
type ItemStatus string

// Item lifecycle states. Items are created as pending, move to fetching
// when picked up by the pipeline, and end as completed or failed.
// A failed item returns to pending only via an explicit retry.
const (
	ItemPending   ItemStatus = "pending"
	ItemFetching  ItemStatus = "fetching"
	ItemCompleted ItemStatus = "completed"
	ItemFailed    ItemStatus = "failed"
)

// Item represents one URL submitted for background ingestion.
type Item struct {
	ID        string     `json:"id"`
	BatchID   string     `json:"batchId"`
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Folder    string     `json:"folder"`
	AddedAt   time.Time  `json:"addedAt"`
	Status    ItemStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	ContentID string     `json:"contentId,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Validate returns an error if the item contains invalid fields.
func (i *Item) Validate() error {
	if i.BatchID == "" {
		return Errorf(EINVALID, "item batch ID required")
	}
	if i.URL == "" {
		return Errorf(EINVALID, "item URL required")
	}
	return nil
}

// NewItem describes an item to be submitted to a batch.
type NewItem struct {
	URL     string    `json:"url"`
	Title   string    `json:"title"`
	Folder  string    `json:"folder"`
	AddedAt time.Time `json:"addedAt"`
}

// ItemService represents a service for managing ingestion items.
type ItemService interface {
	// CreateItems inserts the given items into a batch as pending.
	// Returns the number of items inserted.
	CreateItems(ctx context.Context, batchID string, items []NewItem) (int, error)

	// FindItemByID retrieves an item by ID.
	// Returns ENOTFOUND if the item does not exist.
	FindItemByID(ctx context.Context, id string) (*Item, error)

	// FindItems retrieves items matching the filter.
	FindItems(ctx context.Context, filter ItemFilter) ([]*Item, error)

	// MarkFetching transitions a pending item to fetching.
	// Returns ECONFLICT if the item is not pending.
	MarkFetching(ctx context.Context, id string) error

	// MarkCompleted transitions an item to completed with a back-reference
	// to its content record.
	MarkCompleted(ctx context.Context, id string, contentID string) error

	// MarkFailed transitions an item to failed with the given error text.
	MarkFailed(ctx context.Context, id string, errText string) error

	// ResetFailed transitions all failed items in a batch back to pending.
	// Returns the number of items reset.
	ResetFailed(ctx context.Context, batchID string) (int, error)
}

// ItemFilter represents a filter for FindItems.
type ItemFilter struct {
	ID      *string     `json:"id"`
	BatchID *string     `json:"batchId"`
	Status  *ItemStatus `json:"status"`
	URL     *string     `json:"url"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
