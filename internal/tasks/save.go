package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/shared"
)

// FileName returns the file name a task is saved under: the slugified title, or download_<id> without one.
func FileName(id, title string, quality models.Quality) string {
	base := ""
	if title != "" && title != FallbackTitle(id) {
		base = slug.Make(title)
	}
	if base == "" {
		base = "download_" + id
	}
	return base + "." + quality.Extension()
}

// Save materializes a finished task into dir and returns the saved file.
//
// The guard is claimed by [Reconciler.Materialize], so a second Save of the same task fails with
// shared.ErrAlreadyMaterialized even if the first one failed mid-transfer.
func (r *Reconciler) Save(ctx context.Context, id, dir string) (*models.SavedFile, error) {
	view, _ := r.View(id)

	body, err := r.Materialize(ctx, id)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	name := FileName(id, view.Title, view.Quality)
	path, size, err := r.writeAtomic(dir, name, id, body)
	if err != nil {
		r.logger.Error("save failed", "task", id, "err", err)
		sendUpdate(r.updates, Update{Kind: SaveFailed, TaskID: id, Err: err})
		return nil, err
	}

	file := &models.SavedFile{TaskID: id, Path: path, SizeBytes: size}
	if r.saved != nil {
		if err := r.saved.Record(ctx, *file); err != nil {
			r.logger.Warn("failed to record saved file", "task", id, "err", err)
		}
	}

	r.logger.Info("saved", "task", id, "path", path, "bytes", size)
	sendUpdate(r.updates, Update{Kind: Saved, TaskID: id, Path: path})
	return file, nil
}

// writeAtomic copies src into dir/name through a temporary file that is renamed into place.
// Existing files are never replaced; see [freeName].
func (r *Reconciler) writeAtomic(dir, name, id string, src io.Reader) (string, int64, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	tmpPath := filepath.Join(dir, "."+shared.GenerateID()+".part")
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	size, err := io.Copy(tmp, src)
	if err != nil {
		cleanup()
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", 0, fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("failed to close file: %w", err)
	}

	r.placeMu.Lock()
	defer r.placeMu.Unlock()

	target := freeName(dir, name, id)
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("failed to move file into place: %w", err)
	}
	return target, size, nil
}

// freeName returns the first path in dir that does not exist yet, trying name, then name-<id8>, then name-<id8>-2
// and upward.
func freeName(dir, name, id string) string {
	target := filepath.Join(dir, name)
	if !exists(target) {
		return target
	}

	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)] + "-" + id[:min(len(id), 8)]
	target = filepath.Join(dir, base+ext)
	for n := 2; exists(target); n++ {
		target = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, n, ext))
	}
	return target
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
