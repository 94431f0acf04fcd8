package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/shared"
)

// MemoryMetadataStore is a session-scoped [MetadataStore].
type MemoryMetadataStore struct {
	lock    sync.RWMutex
	records map[string]models.TaskMetadataRecord
	seq     map[string]int
	next    int
	now     func() time.Time
}

// NewMemoryMetadataStore creates an empty store.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{
		records: make(map[string]models.TaskMetadataRecord),
		seq:     make(map[string]int),
		now:     time.Now,
	}
}

func (store *MemoryMetadataStore) Get(ctx context.Context, taskID string) (models.TaskMetadataRecord, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()

	record, ok := store.records[taskID]
	if !ok {
		return models.TaskMetadataRecord{}, fmt.Errorf("%w: %s", shared.ErrMetadataNotFound, taskID)
	}
	return record, nil
}

func (store *MemoryMetadataStore) Set(ctx context.Context, record models.TaskMetadataRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	store.lock.Lock()
	defer store.lock.Unlock()

	if _, exists := store.records[record.TaskID]; exists {
		return nil
	}
	stampCreated(&record, store.now)
	store.records[record.TaskID] = record
	store.next++
	store.seq[record.TaskID] = store.next
	return nil
}

func (store *MemoryMetadataStore) List(ctx context.Context) ([]models.TaskMetadataRecord, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()

	records := make([]models.TaskMetadataRecord, 0, len(store.records))
	for _, record := range store.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return store.seq[records[i].TaskID] > store.seq[records[j].TaskID]
	})
	return records, nil
}

func (store *MemoryMetadataStore) Clear(ctx context.Context) error {
	store.lock.Lock()
	defer store.lock.Unlock()

	store.records = make(map[string]models.TaskMetadataRecord)
	store.seq = make(map[string]int)
	return nil
}
