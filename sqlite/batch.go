package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pagesift/pagesift"
)

// Compile-time interface verification.
var _ pagesift.BatchService = (*BatchService)(nil)

// BatchService implements pagesift.BatchService using SQLite.
type BatchService struct {
	db *DB
}

// NewBatchService creates a new BatchService.
func NewBatchService(db *DB) *BatchService {
	return &BatchService{db: db}
}

// CreateBatch creates a new batch in the importing state.
func (s *BatchService) CreateBatch(ctx context.Context, batch *pagesift.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	batch.ID = uuid.New().String()
	batch.Status = pagesift.BatchImporting
	batch.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batches (id, total, imported, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, batch.ID, batch.Total, batch.Imported, batch.Status, batch.CreatedAt.Format(time.RFC3339))

	return err
}

// FindBatchByID retrieves a batch by ID.
func (s *BatchService) FindBatchByID(ctx context.Context, id string) (*pagesift.Batch, error) {
	var batch pagesift.Batch
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, total, imported, status, created_at
		FROM batches
		WHERE id = ?
	`, id).Scan(&batch.ID, &batch.Total, &batch.Imported, &batch.Status, &createdAt)

	if err == sql.ErrNoRows {
		return nil, pagesift.Errorf(pagesift.ENOTFOUND, "batch not found")
	}
	if err != nil {
		return nil, err
	}

	batch.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}

	return &batch, nil
}

// CompleteBatch transitions a batch from importing to fetching_content and
// freezes the imported count from the items table.
func (s *BatchService) CompleteBatch(ctx context.Context, id string) error {
	batch, err := s.FindBatchByID(ctx, id)
	if err != nil {
		return err
	}
	if batch.Status != pagesift.BatchImporting {
		return pagesift.Errorf(pagesift.ECONFLICT, "batch is %s, expected %s", batch.Status, pagesift.BatchImporting)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE batches
		SET status = ?,
		    imported = (SELECT COUNT(*) FROM items WHERE batch_id = batches.id)
		WHERE id = ?
	`, pagesift.BatchFetchingContent, id)

	return err
}

// MarkBatchDone transitions a batch to completed.
func (s *BatchService) MarkBatchDone(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE batches SET status = ? WHERE id = ?
	`, pagesift.BatchCompleted, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return pagesift.Errorf(pagesift.ENOTFOUND, "batch not found")
	}

	return nil
}

// Progress returns per-status item counts for a batch. The counts are
// computed from the items table so they always sum to the imported count.
func (s *BatchService) Progress(ctx context.Context, id string) (*pagesift.BatchProgress, error) {
	batch, err := s.FindBatchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &pagesift.BatchProgress{
		BatchID: batch.ID,
		Total:   batch.Total,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM items WHERE batch_id = ? GROUP BY status
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status pagesift.ItemStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		p.Imported += count
		switch status {
		case pagesift.ItemPending:
			p.Pending = count
		case pagesift.ItemFetching:
			p.InProgress = count
		case pagesift.ItemCompleted:
			p.Completed = count
		case pagesift.ItemFailed:
			p.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if p.Imported > 0 {
		p.PercentComplete = 100 * float64(p.Completed+p.Failed) / float64(p.Imported)
	}

	return p, nil
}
