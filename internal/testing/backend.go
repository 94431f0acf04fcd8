package testing

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/desertthunder/ytfetch/internal/models"
)

// SearchCall records one FetchSearchPage invocation.
type SearchCall struct {
	Query  string
	Cursor string
}

// MockBackend is a test double for every backend interface in services.
//
// Each hook is optional; without one the mock returns an empty, successful response.
type MockBackend struct {
	TasksFunc   func(ctx context.Context) (models.Snapshot, error)
	StartFunc   func(ctx context.Context, url string, quality models.Quality) (string, error)
	SearchFunc  func(ctx context.Context, query, cursor string) (models.SearchPage, error)
	SuggestFunc func(ctx context.Context, query string) ([]string, error)
	InfoFunc    func(ctx context.Context, url string) (*models.VideoInfo, error)
	FileFunc    func(ctx context.Context, id string) (io.ReadCloser, error)
	ProbeFunc   func(ctx context.Context) error

	mu       sync.Mutex
	snapshot models.Snapshot
	started  int
	searches []SearchCall
	suggests []string
	files    []string
	probes   int
	polls    int
}

// SetSnapshot sets the snapshot returned by FetchAllTasks when no TasksFunc is set.
func (m *MockBackend) SetSnapshot(tasks ...models.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = models.NewSnapshot(tasks...)
}

func (m *MockBackend) FetchAllTasks(ctx context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	m.polls++
	snap := m.snapshot
	m.mu.Unlock()

	if m.TasksFunc != nil {
		return m.TasksFunc(ctx)
	}
	return snap, nil
}

func (m *MockBackend) StartTask(ctx context.Context, url string, quality models.Quality) (string, error) {
	m.mu.Lock()
	m.started++
	n := m.started
	m.mu.Unlock()

	if m.StartFunc != nil {
		return m.StartFunc(ctx, url, quality)
	}
	return fmt.Sprintf("task-%04d-0000", n), nil
}

func (m *MockBackend) FetchSearchPage(ctx context.Context, query, cursor string) (models.SearchPage, error) {
	m.mu.Lock()
	m.searches = append(m.searches, SearchCall{Query: query, Cursor: cursor})
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, cursor)
	}
	return models.SearchPage{}, nil
}

func (m *MockBackend) FetchSuggestions(ctx context.Context, query string) ([]string, error) {
	m.mu.Lock()
	m.suggests = append(m.suggests, query)
	m.mu.Unlock()

	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockBackend) FetchVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error) {
	if m.InfoFunc != nil {
		return m.InfoFunc(ctx, url)
	}
	return &models.VideoInfo{Title: "Video", OriginalURL: url}, nil
}

func (m *MockBackend) MaterializeTask(ctx context.Context, id string) (io.ReadCloser, error) {
	m.mu.Lock()
	m.files = append(m.files, id)
	m.mu.Unlock()

	if m.FileFunc != nil {
		return m.FileFunc(ctx, id)
	}
	return io.NopCloser(strings.NewReader("file:" + id)), nil
}

func (m *MockBackend) ProbeLiveness(ctx context.Context) error {
	m.mu.Lock()
	m.probes++
	m.mu.Unlock()

	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx)
	}
	return nil
}

// Polls returns the number of FetchAllTasks calls.
func (m *MockBackend) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// Started returns the number of StartTask calls.
func (m *MockBackend) Started() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Searches returns every FetchSearchPage call in order.
func (m *MockBackend) Searches() []SearchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SearchCall(nil), m.searches...)
}

// Suggests returns the query of every FetchSuggestions call in order.
func (m *MockBackend) Suggests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.suggests...)
}

// Files returns the id of every MaterializeTask call in order.
func (m *MockBackend) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.files...)
}

// Probes returns the number of ProbeLiveness calls.
func (m *MockBackend) Probes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}
