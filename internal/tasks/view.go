package tasks

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/desertthunder/ytfetch/internal/models"
)

// TaskView is a presentation-ready task: backend state merged with local metadata and the materialization guard.
type TaskView struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	SourceURL    string         `json:"source_url,omitempty"`
	HasMetadata  bool           `json:"has_metadata"`
	Status       models.Status  `json:"status"`
	Quality      models.Quality `json:"quality,omitempty"`
	Progress     int            `json:"progress"`
	// DisplayProgress is 100 once finished, otherwise the raw progress.
	DisplayProgress     int    `json:"display_progress"`
	Speed               string `json:"speed,omitempty"`
	ETA                 string `json:"eta,omitempty"`
	Error               string `json:"error,omitempty"`
	CanMaterialize      bool   `json:"can_materialize"`
	AlreadyMaterialized bool   `json:"already_materialized"`
}

// MetadataLookup returns the local record for a task id, if any.
type MetadataLookup func(id string) (models.TaskMetadataRecord, bool)

// GuardLookup reports whether a task id has already been materialized.
type GuardLookup func(id string) bool

// FallbackTitle is the label shown for a task with no local metadata.
func FallbackTitle(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return "Task " + short
}

// CleanText strips terminal control sequences and surrounding whitespace from backend free text.
func CleanText(s string) string {
	return strings.TrimSpace(ansi.Strip(s))
}

// Merge builds the view for one snapshot as the reverse of the backend's enumeration order, which puts the newest task
// first when the backend lists tasks in creation order. Ids missing from the snapshot do not appear, whatever earlier
// snapshots contained.
func Merge(snap models.Snapshot, lookup MetadataLookup, materialized GuardLookup) []TaskView {
	tasks := snap.Tasks()
	views := make([]TaskView, 0, len(tasks))

	for i := len(tasks) - 1; i >= 0; i-- {
		views = append(views, buildView(tasks[i], lookup, materialized))
	}
	return views
}

func buildView(t models.Task, lookup MetadataLookup, materialized GuardLookup) TaskView {
	v := TaskView{
		ID:              t.ID,
		Title:           FallbackTitle(t.ID),
		Status:          t.Status,
		Quality:         t.Quality,
		Progress:        t.Progress,
		DisplayProgress: t.Progress,
		Speed:           CleanText(t.Speed),
		ETA:             CleanText(t.ETA),
	}

	if lookup != nil {
		if record, ok := lookup(t.ID); ok {
			v.HasMetadata = true
			if record.Title != "" {
				v.Title = record.Title
			}
			v.ThumbnailURL = record.ThumbnailURL
			v.SourceURL = record.SourceURL
			if v.Quality == "" {
				v.Quality = record.Quality
			}
		}
	}

	switch t.Status {
	case models.StatusFinished:
		v.DisplayProgress = 100
	case models.StatusError:
		v.Error = CleanText(t.Error)
	}

	done := materialized != nil && materialized(t.ID)
	v.AlreadyMaterialized = done
	v.CanMaterialize = t.Status == models.StatusFinished && !done
	return v
}

// Stabilize enforces terminal states across polls: a task that was finished or errored keeps that state even if the
// next snapshot reports something else for the same id.
func Stabilize(prev map[string]models.Task, snap models.Snapshot) models.Snapshot {
	out := models.NewSnapshot()
	for _, t := range snap.Tasks() {
		if old, ok := prev[t.ID]; ok && !models.CanTransition(old.Status, t.Status) {
			t = old
		}
		out.Add(t)
	}
	return out
}
