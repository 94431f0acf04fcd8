// package models defines the data model for the ytfetch client
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TaskMetadataRecord is the local context for a task, written once when the task is started.
type TaskMetadataRecord struct {
	TaskID       string    `json:"task_id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	SourceURL    string    `json:"source_url,omitempty"`
	Quality      Quality   `json:"quality,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks that the record can be stored.
func (r TaskMetadataRecord) Validate() error {
	if strings.TrimSpace(r.TaskID) == "" {
		return errors.New("task id is required")
	}
	return nil
}

// SavedFile records a finished task written to local disk.
type SavedFile struct {
	TaskID    string    `json:"task_id"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	SavedAt   time.Time `json:"saved_at"`
}

// VideoSummary is one search result.
type VideoSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
}

// SearchPage is one page of search results. An empty NextCursor means there are no further pages.
type SearchPage struct {
	Results    []VideoSummary `json:"results"`
	NextCursor string         `json:"nextPageToken,omitempty"`
}

// Format is one quality option offered for a video.
type Format struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// VideoInfo describes a single video before a task is started for it.
type VideoInfo struct {
	Title           string   `json:"title"`
	ThumbnailURL    string   `json:"thumbnail"`
	DurationSeconds int      `json:"duration"`
	Formats         []Format `json:"formats"`
	OriginalURL     string   `json:"original_url"`
}

// Duration formats DurationSeconds as m:ss, or h:mm:ss past an hour.
func (v VideoInfo) Duration() string {
	d := v.DurationSeconds
	if d < 0 {
		d = 0
	}
	h, m, s := d/3600, (d%3600)/60, d%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Connectivity is the state of the connectivity monitor.
type Connectivity int

const (
	Online Connectivity = iota
	OfflineDetected
	Retrying
)

func (c Connectivity) String() string {
	switch c {
	case Online:
		return "online"
	case OfflineDetected:
		return "offline-detected"
	case Retrying:
		return "retrying"
	default:
		return ""
	}
}
