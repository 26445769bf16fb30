package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/pagesift/pagesift"
)

// Compile-time interface verification.
var _ pagesift.ContentService = (*ContentService)(nil)

// ContentService implements pagesift.ContentService using SQLite.
type ContentService struct {
	db *DB
}

// NewContentService creates a new ContentService.
func NewContentService(db *DB) *ContentService {
	return &ContentService{db: db}
}

// hashContent computes xxHash of content and returns a hex string.
func hashContent(content string) string {
	h := xxhash.Sum64String(content)
	b := make([]byte, 8)
	b[0] = byte(h >> 56)
	b[1] = byte(h >> 48)
	b[2] = byte(h >> 40)
	b[3] = byte(h >> 32)
	b[4] = byte(h >> 24)
	b[5] = byte(h >> 16)
	b[6] = byte(h >> 8)
	b[7] = byte(h)
	return hex.EncodeToString(b)
}

// CreateContent creates a new content record, deriving the ID, hash,
// preview, and hostname.
func (s *ContentService) CreateContent(ctx context.Context, record *pagesift.ContentRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	record.ID = uuid.New().String()
	record.CreatedAt = time.Now().UTC()
	record.ContentHash = hashContent(record.Content)
	if record.Preview == "" {
		record.Preview = pagesift.MakePreview(record.Content, pagesift.DefaultPreviewLength)
	}
	if record.Hostname == "" {
		if u, err := url.Parse(record.SourceURL); err == nil {
			record.Hostname = u.Hostname()
		}
	}

	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contents (id, item_id, title, content, content_hash, preview, content_type,
			source_url, hostname, byline, site_name, metadata, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.ItemID, record.Title, record.Content, record.ContentHash, record.Preview,
		record.ContentType, record.SourceURL, record.Hostname, record.Byline, record.SiteName,
		string(metadata), record.Score, record.CreatedAt.Format(time.RFC3339))

	return err
}

// FindContentByID retrieves a content record by ID.
func (s *ContentService) FindContentByID(ctx context.Context, id string) (*pagesift.ContentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, item_id, title, content, content_hash, preview, content_type,
			source_url, hostname, byline, site_name, metadata, score, created_at
		FROM contents
		WHERE id = ?
	`, id)

	record, err := scanContent(row.Scan)
	if err == sql.ErrNoRows {
		return nil, pagesift.Errorf(pagesift.ENOTFOUND, "content not found")
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// FindContents retrieves content records matching the filter, newest first.
func (s *ContentService) FindContents(ctx context.Context, filter pagesift.ContentFilter) ([]*pagesift.ContentRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, item_id, title, content, content_hash, preview, content_type,
		source_url, hostname, byline, site_name, metadata, score, created_at FROM contents WHERE 1=1`)

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.ItemID != nil {
		query.WriteString(" AND item_id = ?")
		args = append(args, *filter.ItemID)
	}
	if filter.Hostname != nil {
		query.WriteString(" AND hostname = ?")
		args = append(args, *filter.Hostname)
	}
	if filter.ContentType != nil {
		query.WriteString(" AND content_type = ?")
		args = append(args, *filter.ContentType)
	}

	query.WriteString(" ORDER BY created_at DESC, id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*pagesift.ContentRecord
	for rows.Next() {
		record, err := scanContent(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanContent(scan func(dest ...any) error) (*pagesift.ContentRecord, error) {
	var record pagesift.ContentRecord
	var metadata, createdAt string

	if err := scan(&record.ID, &record.ItemID, &record.Title, &record.Content, &record.ContentHash,
		&record.Preview, &record.ContentType, &record.SourceURL, &record.Hostname, &record.Byline,
		&record.SiteName, &metadata, &record.Score, &createdAt); err != nil {
		return nil, err
	}

	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}

	var err error
	if record.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}

	return &record, nil
}
