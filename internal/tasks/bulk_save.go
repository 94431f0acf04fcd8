package tasks

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ytfetch/internal/models"
)

// BulkSaveOpts configures [Reconciler.SaveAll].
type BulkSaveOpts struct {
	Dir        string  // Target directory
	NumWorkers int     // Concurrent transfers (default: 3, max: 8)
	RateLimit  float64 // Transfers started per second; 0 disables pacing
}

// SaveResult is the outcome of saving one task.
type SaveResult struct {
	TaskID string
	File   *models.SavedFile
	Err    error
}

// BulkSaveResult summarizes a [Reconciler.SaveAll] run. Results follow the order of the requested ids.
type BulkSaveResult struct {
	Results []SaveResult
	Saved   int
	Failed  int
}

// SaveAll saves several tasks concurrently with a bounded worker pool.
//
// Each id still goes through the materialization guard, so ids that are unfinished or already delivered fail
// individually without affecting the rest. Cancelling ctx stops dispatching; ids that were never dispatched are
// reported with the context error.
func (r *Reconciler) SaveAll(ctx context.Context, ids []string, opts BulkSaveOpts) *BulkSaveResult {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	type job struct {
		index int
		id    string
	}

	result := &BulkSaveResult{Results: make([]SaveResult, len(ids))}
	jobs := make(chan job, len(ids))
	var wg sync.WaitGroup

	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				file, err := r.Save(ctx, j.id, opts.Dir)
				result.Results[j.index] = SaveResult{TaskID: j.id, File: file, Err: err}
			}
		}()
	}

	dispatched := 0
	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		jobs <- job{index: i, id: id}
		dispatched++
	}
	close(jobs)
	wg.Wait()

	for i := dispatched; i < len(ids); i++ {
		result.Results[i] = SaveResult{TaskID: ids[i], Err: ctx.Err()}
	}

	for _, res := range result.Results {
		if res.Err != nil {
			result.Failed++
		} else {
			result.Saved++
		}
	}
	r.logger.Debug("bulk save finished", "saved", result.Saved, "failed", result.Failed)
	return result
}

// Finished returns the ids of views that can be materialized.
func Finished(views []TaskView) []string {
	var ids []string
	for _, v := range views {
		if v.CanMaterialize {
			ids = append(ids, v.ID)
		}
	}
	return ids
}
