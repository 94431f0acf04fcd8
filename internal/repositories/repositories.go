// package repositories provides the local stores for task metadata and saved-file history.
//
// Each store has a SQLite implementation backed by the migrations in the shared package;
// metadata also has an in-memory implementation for tests and ephemeral sessions.
package repositories

import (
	"context"
	"time"

	"github.com/desertthunder/ytfetch/internal/models"
)

// MetadataStore maps a task id to the context supplied when the task was started.
//
// Records are write-once: a Set for an id that already has a record is ignored.
type MetadataStore interface {
	// Get returns the record for taskID, or an error wrapping [shared.ErrMetadataNotFound].
	Get(ctx context.Context, taskID string) (models.TaskMetadataRecord, error)
	Set(ctx context.Context, record models.TaskMetadataRecord) error
	// List returns every record, newest first.
	List(ctx context.Context) ([]models.TaskMetadataRecord, error)
	// Clear removes every record.
	Clear(ctx context.Context) error
}

// SavedFileStore records files written by materialization.
type SavedFileStore interface {
	Record(ctx context.Context, file models.SavedFile) error
	Get(ctx context.Context, taskID string) (models.SavedFile, error)
	List(ctx context.Context) ([]models.SavedFile, error)
}

var (
	_ MetadataStore  = (*MetadataRepository)(nil)
	_ MetadataStore  = (*MemoryMetadataStore)(nil)
	_ SavedFileStore = (*SavedFileRepository)(nil)
)

// stampCreated fills a zero CreatedAt from now.
func stampCreated(record *models.TaskMetadataRecord, now func() time.Time) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now().UTC()
	}
}
