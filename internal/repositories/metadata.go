package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/shared"
)

// MetadataRepository implements [MetadataStore] on the task_metadata table.
type MetadataRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewMetadataRepository creates a new MetadataRepository with the given database connection
func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db, now: time.Now}
}

// Set inserts a record. Existing records are never overwritten.
func (r *MetadataRepository) Set(ctx context.Context, record models.TaskMetadataRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	stampCreated(&record, r.now)

	query := `
		INSERT OR IGNORE INTO task_metadata (task_id, title, thumbnail_url, source_url, quality, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.TaskID,
		record.Title,
		record.ThumbnailURL,
		record.SourceURL,
		string(record.Quality),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task metadata: %w", err)
	}
	return nil
}

// Get retrieves the record for a task id
func (r *MetadataRepository) Get(ctx context.Context, taskID string) (models.TaskMetadataRecord, error) {
	query := `
		SELECT task_id, title, thumbnail_url, source_url, quality, created_at
		FROM task_metadata
		WHERE task_id = ?
	`

	record, err := scanMetadata(r.db.QueryRowContext(ctx, query, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.TaskMetadataRecord{}, fmt.Errorf("%w: %s", shared.ErrMetadataNotFound, taskID)
	}
	if err != nil {
		return models.TaskMetadataRecord{}, fmt.Errorf("failed to scan task metadata: %w", err)
	}
	return record, nil
}

// List retrieves all records, newest first
func (r *MetadataRepository) List(ctx context.Context) ([]models.TaskMetadataRecord, error) {
	query := `
		SELECT task_id, title, thumbnail_url, source_url, quality, created_at
		FROM task_metadata
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query task metadata: %w", err)
	}
	defer rows.Close()

	var records []models.TaskMetadataRecord
	for rows.Next() {
		record, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task metadata: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// Clear deletes every record
func (r *MetadataRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM task_metadata"); err != nil {
		return fmt.Errorf("failed to clear task metadata: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (models.TaskMetadataRecord, error) {
	var (
		record  models.TaskMetadataRecord
		quality string
		created sql.NullTime
	)

	if err := row.Scan(
		&record.TaskID,
		&record.Title,
		&record.ThumbnailURL,
		&record.SourceURL,
		&quality,
		&created,
	); err != nil {
		return models.TaskMetadataRecord{}, err
	}

	record.Quality = models.Quality(quality)
	if created.Valid {
		record.CreatedAt = created.Time
	}
	return record, nil
}
