// package services defines the interfaces the core consumes from the download backend
//
// [Client] implements every one of them over JSON/HTTP.
package services

import (
	"context"
	"io"

	"github.com/desertthunder/ytfetch/internal/models"
)

// TaskSource returns the current snapshot of all known tasks.
type TaskSource interface {
	// FetchAllTasks returns every task the backend knows about, in its enumeration order.
	FetchAllTasks(ctx context.Context) (models.Snapshot, error)
}

// TaskStarter submits new tasks.
type TaskStarter interface {
	// StartTask asks the backend to fetch sourceURL at the given quality and returns the new task id.
	StartTask(ctx context.Context, sourceURL string, quality models.Quality) (string, error)
}

// Searcher fetches paged search results.
type Searcher interface {
	// FetchSearchPage returns the page after cursor. An empty cursor requests the first page.
	FetchSearchPage(ctx context.Context, query, cursor string) (models.SearchPage, error)
}

// Suggester fetches query completions.
type Suggester interface {
	FetchSuggestions(ctx context.Context, query string) ([]string, error)
}

// InfoFetcher resolves a video URL before a task is started.
type InfoFetcher interface {
	// FetchVideoInfo fails with shared.ErrInvalidURL or shared.ErrUnreachable for caller-facing problems.
	FetchVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error)
}

// Materializer streams the output file of a finished task.
type Materializer interface {
	// MaterializeTask returns the file contents; the caller must close the reader.
	MaterializeTask(ctx context.Context, taskID string) (io.ReadCloser, error)
}

// Prober checks that the backend is reachable.
type Prober interface {
	ProbeLiveness(ctx context.Context) error
}

// Backend is the full set of backend operations.
type Backend interface {
	TaskSource
	TaskStarter
	Searcher
	Suggester
	InfoFetcher
	Materializer
	Prober
}

var _ Backend = (*Client)(nil)
