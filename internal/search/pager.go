package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/schedule"
	"github.com/desertthunder/ytfetch/internal/services"
	"github.com/desertthunder/ytfetch/internal/shared"
)

// DefaultDebounce is the quiet period before a typed query or suggestion request is sent.
const DefaultDebounce = 300 * time.Millisecond

// PageState is a snapshot of the pager for rendering.
type PageState struct {
	Query   string
	Results []models.VideoSummary
	Cursor  string
	// InFlight is set while a page fetch for the current query is outstanding.
	InFlight bool
	// Exhausted is set once a completed fetch returned an empty cursor.
	Exhausted bool
	// Err is set when the first page of the current query failed.
	Err error
}

// Pager owns the cursor, result list and in-flight guard for one active query.
//
// A reset starts a new query generation; responses from an older generation are discarded when they complete.
type Pager struct {
	searcher services.Searcher
	debounce *schedule.Debouncer
	logger   *log.Logger
	updates  chan PageState

	mu        sync.Mutex
	gen       uint64
	query     string
	cursor    string
	inFlight  bool
	loaded    bool
	exhausted bool
	results   []models.VideoSummary
	err       error
}

// NewPager creates an idle pager. A non-positive debounce selects [DefaultDebounce].
func NewPager(searcher services.Searcher, clock schedule.Clock, debounce time.Duration, logger *log.Logger) *Pager {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Pager{
		searcher: searcher,
		debounce: schedule.NewDebouncer(clock, debounce),
		logger:   logger,
		updates:  make(chan PageState, 16),
	}
}

// Updates returns the channel state changes are published on. Sends never block.
func (p *Pager) Updates() <-chan PageState { return p.updates }

// State returns the current pager state.
func (p *Pager) State() PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Pager) stateLocked() PageState {
	return PageState{
		Query:     p.query,
		Results:   append([]models.VideoSummary(nil), p.results...),
		Cursor:    p.cursor,
		InFlight:  p.inFlight,
		Exhausted: p.exhausted,
		Err:       p.err,
	}
}

// Search fetches a page and reports whether a request was issued.
//
// With reset the cursor is cleared and the results are replaced; an in-flight fetch of the previous query is
// abandoned. Without reset the next page of the current query is appended, unless a fetch is already in flight or
// the query is exhausted, in which case the call is a no-op. A non-reset call naming a different query is also a
// no-op; pass an empty query to mean the current one.
//
// A failed first page clears the results and sets Err. A failed later page is dropped without touching the shown
// results, so the next scroll can retry.
func (p *Pager) Search(ctx context.Context, query string, reset bool) (PageState, bool) {
	query = strings.TrimSpace(query)

	p.mu.Lock()
	if reset {
		p.gen++
		p.query = query
		p.cursor = ""
		p.loaded = false
		p.exhausted = false
		p.results = nil
		p.err = nil
		p.inFlight = false
		if query == "" {
			state := p.stateLocked()
			p.mu.Unlock()
			p.publish(state)
			return state, false
		}
	} else if p.query == "" || p.inFlight || p.exhausted || (query != "" && query != p.query) {
		state := p.stateLocked()
		p.mu.Unlock()
		return state, false
	}

	gen, q, cursor := p.gen, p.query, p.cursor
	p.inFlight = true
	pending := p.stateLocked()
	p.mu.Unlock()
	p.publish(pending)

	page, err := p.fetch(ctx, gen, q, cursor)

	p.mu.Lock()
	if gen != p.gen {
		state := p.stateLocked()
		p.mu.Unlock()
		p.logger.Debug("discarding stale search page", "query", q)
		return state, true
	}

	switch {
	case err != nil && reset:
		p.results = nil
		p.err = err
		p.logger.Warn("search failed", "query", q, "err", err)
	case err != nil:
		p.logger.Debug("page fetch failed", "query", q, "cursor", cursor, "err", err)
	default:
		if reset {
			p.results = append([]models.VideoSummary(nil), page.Results...)
		} else {
			p.results = append(p.results, page.Results...)
		}
		p.cursor = page.NextCursor
		p.loaded = true
		p.exhausted = page.NextCursor == ""
		p.err = nil
	}
	state := p.stateLocked()
	p.mu.Unlock()

	p.publish(state)
	return state, true
}

// fetch issues the request and releases the in-flight flag on every path, success or failure.
func (p *Pager) fetch(ctx context.Context, gen uint64, query, cursor string) (page models.SearchPage, err error) {
	defer func() {
		p.mu.Lock()
		if p.gen == gen {
			p.inFlight = false
		}
		p.mu.Unlock()
	}()
	return p.searcher.FetchSearchPage(ctx, query, cursor)
}

// Submit schedules a reset search for query after the debounce period. Empty input clears the results at once.
func (p *Pager) Submit(ctx context.Context, query string) {
	if strings.TrimSpace(query) == "" {
		p.debounce.Cancel()
		p.Search(ctx, "", true)
		return
	}
	p.debounce.Trigger(func() { p.Search(ctx, query, true) })
}

// More requests the next page of the current query, e.g. when the result list is scrolled to the end.
func (p *Pager) More(ctx context.Context) bool {
	_, issued := p.Search(ctx, "", false)
	return issued
}

// Cancel drops a pending debounced search.
func (p *Pager) Cancel() { p.debounce.Cancel() }

func (p *Pager) publish(s PageState) {
	select {
	case p.updates <- s:
	default:
	}
}
