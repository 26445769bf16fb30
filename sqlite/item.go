package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pagesift/pagesift"
)

// Compile-time interface verification.
var _ pagesift.ItemService = (*ItemService)(nil)

// ItemService implements pagesift.ItemService using SQLite.
type ItemService struct {
	db *DB
}

// NewItemService creates a new ItemService.
func NewItemService(db *DB) *ItemService {
	return &ItemService{db: db}
}

// CreateItems inserts the given items into a batch as pending and bumps
// the batch's imported count.
func (s *ItemService) CreateItems(ctx context.Context, batchID string, items []pagesift.NewItem) (int, error) {
	if batchID == "" {
		return 0, pagesift.Errorf(pagesift.EINVALID, "batch ID required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		addedAt := item.AddedAt
		if addedAt.IsZero() {
			addedAt = time.Now().UTC()
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO items (id, batch_id, url, title, folder, added_at, status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), batchID, item.URL, item.Title, item.Folder,
			addedAt.Format(time.RFC3339), pagesift.ItemPending, now)
		if err != nil {
			return inserted, err
		}
		inserted++
	}

	if inserted > 0 {
		if _, err := s.db.ExecContext(ctx, `
			UPDATE batches SET imported = imported + ? WHERE id = ?
		`, inserted, batchID); err != nil {
			return inserted, err
		}
	}

	return inserted, nil
}

// FindItemByID retrieves an item by ID.
func (s *ItemService) FindItemByID(ctx context.Context, id string) (*pagesift.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, batch_id, url, title, folder, added_at, status, error, content_id, updated_at
		FROM items
		WHERE id = ?
	`, id)

	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, pagesift.Errorf(pagesift.ENOTFOUND, "item not found")
	}
	if err != nil {
		return nil, err
	}

	return item, nil
}

// FindItems retrieves items matching the filter, oldest first.
func (s *ItemService) FindItems(ctx context.Context, filter pagesift.ItemFilter) ([]*pagesift.Item, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, batch_id, url, title, folder, added_at, status, error, content_id, updated_at FROM items WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.BatchID != nil {
		query.WriteString(" AND batch_id = ?")
		args = append(args, *filter.BatchID)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, *filter.Status)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}

	query.WriteString(" ORDER BY added_at ASC, id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*pagesift.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// MarkFetching transitions a pending item to fetching.
func (s *ItemService) MarkFetching(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, pagesift.ItemFetching, nowRFC3339(), id, pagesift.ItemPending)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.FindItemByID(ctx, id); err != nil {
			return err
		}
		return pagesift.Errorf(pagesift.ECONFLICT, "item is not pending")
	}

	return nil
}

// MarkCompleted transitions an item to completed with a back-reference to
// its content record.
func (s *ItemService) MarkCompleted(ctx context.Context, id string, contentID string) error {
	return s.setTerminal(ctx, id, pagesift.ItemCompleted, "", contentID)
}

// MarkFailed transitions an item to failed with the given error text.
func (s *ItemService) MarkFailed(ctx context.Context, id string, errText string) error {
	return s.setTerminal(ctx, id, pagesift.ItemFailed, errText, "")
}

func (s *ItemService) setTerminal(ctx context.Context, id string, status pagesift.ItemStatus, errText, contentID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET status = ?, error = ?, content_id = ?, updated_at = ?
		WHERE id = ?
	`, status, errText, contentID, nowRFC3339(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return pagesift.Errorf(pagesift.ENOTFOUND, "item not found")
	}

	return nil
}

// ResetFailed transitions all failed items in a batch back to pending.
func (s *ItemService) ResetFailed(ctx context.Context, batchID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET status = ?, error = '', updated_at = ?
		WHERE batch_id = ? AND status = ?
	`, pagesift.ItemPending, nowRFC3339(), batchID, pagesift.ItemFailed)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rows), nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func scanItem(scan func(dest ...any) error) (*pagesift.Item, error) {
	var item pagesift.Item
	var addedAt, updatedAt string

	if err := scan(&item.ID, &item.BatchID, &item.URL, &item.Title, &item.Folder,
		&addedAt, &item.Status, &item.Error, &item.ContentID, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if item.AddedAt, err = parseRFC3339(addedAt, "added_at"); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}

	return &item, nil
}
