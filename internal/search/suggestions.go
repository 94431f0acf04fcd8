package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytfetch/internal/schedule"
	"github.com/desertthunder/ytfetch/internal/services"
	"github.com/desertthunder/ytfetch/internal/shared"
)

// MaxSuggestions caps the suggestion list.
const MaxSuggestions = 4

// Suggestions is the list shown for one input.
type Suggestions struct {
	Query string
	Items []string
}

// SuggestionEngine fetches completions for the last input after a quiet period.
type SuggestionEngine struct {
	suggester services.Suggester
	debounce  *schedule.Debouncer
	logger    *log.Logger
	updates   chan Suggestions

	mu     sync.Mutex
	latest string
	shown  Suggestions
}

// NewSuggestionEngine creates an engine. A non-positive debounce selects [DefaultDebounce].
func NewSuggestionEngine(suggester services.Suggester, clock schedule.Clock, debounce time.Duration, logger *log.Logger) *SuggestionEngine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &SuggestionEngine{
		suggester: suggester,
		debounce:  schedule.NewDebouncer(clock, debounce),
		logger:    logger,
		updates:   make(chan Suggestions, 16),
	}
}

// Updates returns the channel suggestion lists are published on. Sends never block.
func (e *SuggestionEngine) Updates() <-chan Suggestions { return e.updates }

// Current returns the suggestions on display.
func (e *SuggestionEngine) Current() Suggestions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Suggestions{Query: e.shown.Query, Items: append([]string(nil), e.shown.Items...)}
}

// OnInput restarts the debounce for text. Blank input clears the suggestions immediately and cancels the pending fetch.
func (e *SuggestionEngine) OnInput(ctx context.Context, text string) {
	query := strings.TrimSpace(text)

	e.mu.Lock()
	e.latest = query
	e.mu.Unlock()

	if query == "" {
		e.debounce.Cancel()
		e.show(query, Suggestions{})
		return
	}
	e.debounce.Trigger(func() { e.fetch(ctx, query) })
}

// fetch requests suggestions tagged with query; the response is dropped if the input has moved on.
func (e *SuggestionEngine) fetch(ctx context.Context, query string) {
	items, err := e.suggester.FetchSuggestions(ctx, query)
	if err != nil {
		e.logger.Debug("suggestions failed", "query", query, "err", err)
		items = nil
	}
	if len(items) > MaxSuggestions {
		items = items[:MaxSuggestions]
	}
	e.show(query, Suggestions{Query: query, Items: items})
}

func (e *SuggestionEngine) show(tag string, s Suggestions) {
	e.mu.Lock()
	if tag != e.latest {
		e.mu.Unlock()
		e.logger.Debug("discarding stale suggestions", "query", tag)
		return
	}
	e.shown = s
	e.mu.Unlock()

	select {
	case e.updates <- s:
	default:
	}
}

// Cancel drops a pending fetch.
func (e *SuggestionEngine) Cancel() { e.debounce.Cancel() }
