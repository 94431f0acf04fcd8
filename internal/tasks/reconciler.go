package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/repositories"
	"github.com/desertthunder/ytfetch/internal/services"
	"github.com/desertthunder/ytfetch/internal/shared"
)

// Backend is the slice of the download backend the reconciler drives.
type Backend interface {
	services.TaskSource
	services.TaskStarter
	services.Materializer
}

// StartRequest is everything needed to start a task and remember its context.
type StartRequest struct {
	URL          string
	Quality      models.Quality
	Title        string
	ThumbnailURL string
}

// Reconciler merges backend snapshots with local metadata into an ordered view and owns the materialization guard.
//
// All state belongs to the instance. The mutex is never held across backend or store calls.
type Reconciler struct {
	backend Backend
	store   repositories.MetadataStore
	saved   repositories.SavedFileStore
	logger  *log.Logger
	updates chan Update

	mu         sync.Mutex
	latest     models.Snapshot
	statuses   map[string]models.Task
	seen       map[string]struct{}
	guard      map[string]struct{}
	meta       map[string]models.TaskMetadataRecord
	missed     map[string]uint64
	views      []TaskView
	nextSeq    uint64
	appliedSeq uint64

	// placeMu serializes picking a free file name with the rename into it.
	placeMu sync.Mutex
}

// Option configures a [Reconciler].
type Option func(*Reconciler)

// WithLogger sets the reconciler's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSavedFiles records every file written by [Reconciler.Save].
func WithSavedFiles(s repositories.SavedFileStore) Option {
	return func(r *Reconciler) { r.saved = s }
}

// WithUpdateBuffer sets the capacity of the updates channel.
func WithUpdateBuffer(n int) Option {
	return func(r *Reconciler) {
		if n >= 0 {
			r.updates = make(chan Update, n)
		}
	}
}

// NewReconciler creates a reconciler with an empty view and guard set.
func NewReconciler(backend Backend, store repositories.MetadataStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		backend:  backend,
		store:    store,
		logger:   shared.DiscardLogger(),
		updates:  make(chan Update, 32),
		statuses: make(map[string]models.Task),
		seen:     make(map[string]struct{}),
		guard:    make(map[string]struct{}),
		meta:     make(map[string]models.TaskMetadataRecord),
		missed:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Updates returns the channel reconciler events are published on. Sends never block.
func (r *Reconciler) Updates() <-chan Update { return r.updates }

// Views returns the view computed by the most recent applied poll.
func (r *Reconciler) Views() []TaskView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TaskView(nil), r.views...)
}

// Poll fetches a snapshot and recomputes the view.
//
// A transport failure leaves the previous view in place and is returned for logging; the next poll retries.
// A poll that completes after a newer poll has been applied is discarded.
func (r *Reconciler) Poll(ctx context.Context) ([]TaskView, error) {
	r.mu.Lock()
	r.nextSeq++
	seq := r.nextSeq
	r.mu.Unlock()

	snap, err := r.backend.FetchAllTasks(ctx)
	if err != nil {
		r.logger.Debug("poll failed", "err", err)
		sendUpdate(r.updates, Update{Kind: PollFailed, Err: err})
		return r.Views(), fmt.Errorf("poll: %w", err)
	}

	r.loadMetadata(ctx, seq, snap.IDs())

	r.mu.Lock()
	if seq < r.appliedSeq {
		views, applied := append([]TaskView(nil), r.views...), r.appliedSeq
		r.mu.Unlock()
		r.logger.Debug("discarding stale poll", "seq", seq, "applied", applied)
		return views, nil
	}
	r.appliedSeq = seq

	snap = Stabilize(r.statuses, snap)
	r.latest = snap
	r.statuses = make(map[string]models.Task, snap.Len())
	for _, t := range snap.Tasks() {
		r.statuses[t.ID] = t
		r.seen[t.ID] = struct{}{}
	}
	r.views = Merge(snap, r.lookupLocked, r.guardedLocked)
	views := append([]TaskView(nil), r.views...)
	r.mu.Unlock()

	sendUpdate(r.updates, Update{Kind: ViewsChanged, Views: views})
	return views, nil
}

// metadataRetryPolls is how many polls a task without a stored record waits before the store is asked again. Another
// process may register the record in the meantime.
const metadataRetryPolls = 10

// loadMetadata fills the record cache for ids that have no cached record yet. Records are write-once, so a cached
// record never goes stale. A miss is remembered until poll seq+metadataRetryPolls.
func (r *Reconciler) loadMetadata(ctx context.Context, seq uint64, ids []string) {
	r.mu.Lock()
	var missing []string
	for _, id := range ids {
		if _, ok := r.meta[id]; ok {
			continue
		}
		if retry, ok := r.missed[id]; ok && seq < retry {
			continue
		}
		missing = append(missing, id)
	}
	r.mu.Unlock()

	for _, id := range missing {
		record, err := r.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrMetadataNotFound) {
				r.mu.Lock()
				r.missed[id] = seq + metadataRetryPolls
				r.mu.Unlock()
			} else {
				r.logger.Warn("metadata lookup failed", "task", id, "err", err)
			}
			continue
		}

		r.mu.Lock()
		if _, ok := r.meta[id]; !ok {
			r.meta[id] = record
		}
		delete(r.missed, id)
		r.mu.Unlock()
	}
}

func (r *Reconciler) lookupLocked(id string) (models.TaskMetadataRecord, bool) {
	record, ok := r.meta[id]
	return record, ok
}

func (r *Reconciler) guardedLocked(id string) bool {
	_, ok := r.guard[id]
	return ok
}

// RegisterMetadata stores the local context for a task. It returns only after the record is durable in the store and
// visible to the next poll.
func (r *Reconciler) RegisterMetadata(ctx context.Context, record models.TaskMetadataRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if err := r.store.Set(ctx, record); err != nil {
		return fmt.Errorf("failed to register metadata: %w", err)
	}

	stored, err := r.store.Get(ctx, record.TaskID)
	if err != nil {
		stored = record
	}

	r.mu.Lock()
	r.meta[record.TaskID] = stored
	delete(r.missed, record.TaskID)
	r.mu.Unlock()
	return nil
}

// Launch starts a task and registers its metadata before returning the id, so no poll can show the task without it.
func (r *Reconciler) Launch(ctx context.Context, req StartRequest) (string, error) {
	if err := services.ValidateSourceURL(req.URL); err != nil {
		return "", err
	}
	quality := req.Quality
	if quality == "" {
		quality = models.QualityBestMP4
	}

	id, err := r.backend.StartTask(ctx, req.URL, quality)
	if err != nil {
		return "", fmt.Errorf("failed to start task: %w", err)
	}

	record := models.TaskMetadataRecord{
		TaskID:       id,
		Title:        strings.TrimSpace(req.Title),
		ThumbnailURL: req.ThumbnailURL,
		SourceURL:    req.URL,
		Quality:      quality,
	}
	if err := r.RegisterMetadata(ctx, record); err != nil {
		return id, err
	}

	r.logger.Info("task started", "task", id, "quality", quality)
	return id, nil
}

// Materialize claims the one-shot delivery of a finished task and opens its file.
//
// The id enters the guard set before the transfer starts, so a failed or interrupted transfer is never offered again
// in this session. Errors:
//   - [shared.ErrTaskNotFound] : no poll has ever reported the id
//   - [shared.ErrAlreadyMaterialized] : delivery was already claimed
//   - [shared.ErrTaskVanished] : the id was reported before but is missing from the latest snapshot
//   - [shared.ErrNotFinished] : the task is still queued, downloading or failed
func (r *Reconciler) Materialize(ctx context.Context, id string) (io.ReadCloser, error) {
	if _, err := r.claim(id); err != nil {
		return nil, err
	}

	sendUpdate(r.updates, Update{Kind: Materializing, TaskID: id, Views: r.Views()})
	r.logger.Debug("materializing", "task", id)

	body, err := r.backend.MaterializeTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file for %s: %w", id, err)
	}
	return body, nil
}

// claim runs the guard check and insert as one critical section and returns the task being claimed.
func (r *Reconciler) claim(id string) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[id]; !ok {
		return models.Task{}, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	if _, ok := r.guard[id]; ok {
		return models.Task{}, fmt.Errorf("%w: %s", shared.ErrAlreadyMaterialized, id)
	}
	task, ok := r.latest.Get(id)
	if !ok {
		return models.Task{}, fmt.Errorf("%w: %s", shared.ErrTaskVanished, id)
	}
	if task.Status != models.StatusFinished {
		return models.Task{}, fmt.Errorf("%w: %s is %s", shared.ErrNotFinished, id, task.Status)
	}

	r.guard[id] = struct{}{}
	for i := range r.views {
		if r.views[i].ID == id {
			r.views[i].CanMaterialize = false
			r.views[i].AlreadyMaterialized = true
		}
	}
	return task, nil
}

// IsMaterialized reports whether the id is in the guard set.
func (r *Reconciler) IsMaterialized(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.guardedLocked(id)
}

// View returns the current view of a single task.
func (r *Reconciler) View(id string) (TaskView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.views {
		if v.ID == id {
			return v, true
		}
	}
	return TaskView{}, false
}

// ClearMetadata empties the metadata store and the reconciler's record cache. Views fall back to synthesized labels
// on the next poll.
func (r *Reconciler) ClearMetadata(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.meta = make(map[string]models.TaskMetadataRecord)
	r.missed = make(map[string]uint64)
	r.mu.Unlock()
	return nil
}
