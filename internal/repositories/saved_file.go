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

// SavedFileRepository implements [SavedFileStore] on the saved_files table.
//
// The table is history only; the in-session materialization guard never reads it.
type SavedFileRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSavedFileRepository creates a new SavedFileRepository with the given database connection
func NewSavedFileRepository(db *sql.DB) *SavedFileRepository {
	return &SavedFileRepository{db: db, now: time.Now}
}

// Record upserts the saved file for a task; saving the same task again in a later session replaces the entry.
func (r *SavedFileRepository) Record(ctx context.Context, file models.SavedFile) error {
	if file.TaskID == "" || file.Path == "" {
		return fmt.Errorf("%w: saved file needs a task id and path", shared.ErrInvalidInput)
	}
	if file.SavedAt.IsZero() {
		file.SavedAt = r.now().UTC()
	}

	query := `
		INSERT INTO saved_files (task_id, path, size_bytes, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET path = excluded.path, size_bytes = excluded.size_bytes, saved_at = excluded.saved_at
	`

	if _, err := r.db.ExecContext(ctx, query, file.TaskID, file.Path, file.SizeBytes, file.SavedAt); err != nil {
		return fmt.Errorf("failed to record saved file: %w", err)
	}
	return nil
}

// Get retrieves the saved file for a task id
func (r *SavedFileRepository) Get(ctx context.Context, taskID string) (models.SavedFile, error) {
	var file models.SavedFile
	err := r.db.QueryRowContext(ctx,
		"SELECT task_id, path, size_bytes, saved_at FROM saved_files WHERE task_id = ?",
		taskID,
	).Scan(&file.TaskID, &file.Path, &file.SizeBytes, &file.SavedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return models.SavedFile{}, fmt.Errorf("%w: no saved file for %s", shared.ErrTaskNotFound, taskID)
	}
	if err != nil {
		return models.SavedFile{}, fmt.Errorf("failed to scan saved file: %w", err)
	}
	return file, nil
}

// List retrieves all saved files, most recent first
func (r *SavedFileRepository) List(ctx context.Context) ([]models.SavedFile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT task_id, path, size_bytes, saved_at FROM saved_files ORDER BY saved_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved files: %w", err)
	}
	defer rows.Close()

	var files []models.SavedFile
	for rows.Next() {
		var file models.SavedFile
		if err := rows.Scan(&file.TaskID, &file.Path, &file.SizeBytes, &file.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved file: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return files, nil
}
