package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/shared"
	tu "github.com/desertthunder/ytfetch/internal/testing"
)

func TestSaveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Saves Every Finished Task", func(t *testing.T) {
		r, backend, _ := newTestReconciler(t)
		dir := t.TempDir()

		var snapshot []models.Task
		for i := range 6 {
			snapshot = append(snapshot, models.Task{ID: fmt.Sprintf("task-%d", i), Status: models.StatusFinished})
		}
		backend.SetSnapshot(snapshot...)
		views := mustPoll(t, r)

		result := r.SaveAll(ctx, Finished(views), BulkSaveOpts{Dir: dir, NumWorkers: 4})

		if result.Saved != 6 || result.Failed != 0 {
			t.Fatalf("expected 6 saved, got %+v", result)
		}
		if names := tu.MustReadDir(t, dir); len(names) != 6 {
			t.Errorf("expected 6 files, got %v", names)
		}
		if n := len(backend.Files()); n != 6 {
			t.Errorf("expected 6 transfers, got %d", n)
		}
		for _, v := range r.Views() {
			if !v.AlreadyMaterialized {
				t.Errorf("expected %s guarded", v.ID)
			}
		}
	})

	t.Run("Results Follow Input Order", func(t *testing.T) {
		r, backend, _ := newTestReconciler(t)
		backend.SetSnapshot(
			models.Task{ID: "done", Status: models.StatusFinished},
			models.Task{ID: "busy", Status: models.StatusDownloading},
		)
		mustPoll(t, r)

		ids := []string{"busy", "done", "missing"}
		result := r.SaveAll(ctx, ids, BulkSaveOpts{Dir: t.TempDir()})

		got := make([]string, 0, len(result.Results))
		for _, res := range result.Results {
			got = append(got, res.TaskID)
		}
		if !reflect.DeepEqual(got, ids) {
			t.Errorf("expected input order, got %v", got)
		}
		if !errors.Is(result.Results[0].Err, shared.ErrNotFinished) {
			t.Errorf("expected busy to be unfinished, got %v", result.Results[0].Err)
		}
		if result.Results[1].Err != nil || result.Results[1].File == nil {
			t.Errorf("expected done to be saved, got %+v", result.Results[1])
		}
		if !errors.Is(result.Results[2].Err, shared.ErrTaskNotFound) {
			t.Errorf("expected missing to be unknown, got %v", result.Results[2].Err)
		}
		if result.Saved != 1 || result.Failed != 2 {
			t.Errorf("unexpected counts %+v", result)
		}
	})

	t.Run("Same Title Never Collides", func(t *testing.T) {
		r, backend, _ := newTestReconciler(t)
		dir := t.TempDir()

		var snapshot []models.Task
		for i := range 4 {
			id := fmt.Sprintf("%d-same-title", i)
			r.RegisterMetadata(ctx, models.TaskMetadataRecord{TaskID: id, Title: "Same"})
			snapshot = append(snapshot, models.Task{ID: id, Status: models.StatusFinished})
		}
		backend.SetSnapshot(snapshot...)
		views := mustPoll(t, r)

		result := r.SaveAll(ctx, Finished(views), BulkSaveOpts{Dir: dir, NumWorkers: 4})
		if result.Saved != 4 {
			t.Fatalf("expected 4 saved, got %+v", result)
		}
		if names := tu.MustReadDir(t, dir); len(names) != 4 {
			t.Errorf("expected 4 distinct files, got %v", names)
		}
	})

	t.Run("Closes Every Stream", func(t *testing.T) {
		r, backend, _ := newTestReconciler(t)

		var mu sync.Mutex
		var closers []*tu.CountingCloser
		backend.FileFunc = func(ctx context.Context, id string) (io.ReadCloser, error) {
			c := &tu.CountingCloser{Reader: strings.NewReader("file:" + id)}
			mu.Lock()
			closers = append(closers, c)
			mu.Unlock()
			return c, nil
		}

		backend.SetSnapshot(
			models.Task{ID: "a", Status: models.StatusFinished},
			models.Task{ID: "b", Status: models.StatusFinished},
			models.Task{ID: "c", Status: models.StatusFinished},
		)
		views := mustPoll(t, r)

		if result := r.SaveAll(ctx, Finished(views), BulkSaveOpts{Dir: t.TempDir()}); result.Saved != 3 {
			t.Fatalf("expected 3 saved, got %+v", result)
		}
		if len(closers) != 3 {
			t.Fatalf("expected 3 streams, got %d", len(closers))
		}
		for i, c := range closers {
			if c.Closed != 1 {
				t.Errorf("stream %d closed %d times", i, c.Closed)
			}
		}
	})

	t.Run("Cancelled Context Dispatches Nothing", func(t *testing.T) {
		r, backend, _ := newTestReconciler(t)
		backend.SetSnapshot(models.Task{ID: "t1", Status: models.StatusFinished})
		mustPoll(t, r)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		result := r.SaveAll(cancelled, []string{"t1"}, BulkSaveOpts{Dir: t.TempDir(), RateLimit: 1})
		if result.Failed != 1 || !errors.Is(result.Results[0].Err, context.Canceled) {
			t.Errorf("expected cancellation, got %+v", result)
		}
		if len(backend.Files()) != 0 {
			t.Error("expected no transfer")
		}
		if r.IsMaterialized("t1") {
			t.Error("expected guard untouched")
		}
	})

	t.Run("Finished Skips Guarded And Unfinished", func(t *testing.T) {
		views := []TaskView{
			{ID: "a", CanMaterialize: true},
			{ID: "b", AlreadyMaterialized: true},
			{ID: "c"},
		}
		if got := Finished(views); !reflect.DeepEqual(got, []string{"a"}) {
			t.Errorf("expected [a], got %v", got)
		}
	})
}
