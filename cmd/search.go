package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytfetch/internal/formatter"
	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/search"
	"github.com/desertthunder/ytfetch/internal/shared"
)

// Search loads one or more result pages for a query through the pager.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}
	pages := max(int(cmd.Int("pages")), 1)

	pager := search.NewPager(r.backend, r.clock, r.config.Intervals.DebounceDelay(), r.logger)
	defer pager.Cancel()

	state, _ := pager.Search(ctx, query, true)
	if state.Err != nil {
		return fmt.Errorf("search failed: %w", state.Err)
	}

	for loaded := 1; loaded < pages && !state.Exhausted; loaded++ {
		before := len(state.Results)
		state, _ = pager.Search(ctx, query, false)
		if len(state.Results) == before && !state.Exhausted {
			r.logger.Warn("stopped paging after a failed page", "query", query, "loaded", loaded)
			break
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Query      string                `json:"query"`
			Results    []models.VideoSummary `json:"results"`
			NextCursor string                `json:"nextPageToken,omitempty"`
		}{state.Query, state.Results, state.Cursor}, cmd.Bool("pretty"))
	}

	if len(state.Results) == 0 {
		return r.writePlain("No results for %q\n", query)
	}
	r.writePlainHeader(fmt.Sprintf("Results for %q (%d)", query, len(state.Results)))
	if err := r.writeBytes(formatter.ResultsToText(state.Results, 0)); err != nil {
		return err
	}
	if !state.Exhausted {
		r.writePlainln("More results available, rerun with --pages %d", pages+1)
	}
	return nil
}

// Suggest prints up to four completions for partial input.
func (r *Runner) Suggest(ctx context.Context, cmd *cli.Command) error {
	text := strings.TrimSpace(cmd.StringArg("text"))
	if text == "" {
		return fmt.Errorf("%w: text is required", shared.ErrMissingArgument)
	}

	engine := search.NewSuggestionEngine(r.backend, r.clock, r.config.Intervals.DebounceDelay(), r.logger)
	defer engine.Cancel()

	ctx, cancel := context.WithTimeout(ctx, r.config.Intervals.DebounceDelay()+r.config.Backend.Timeout())
	defer cancel()

	engine.OnInput(ctx, text)

	var got search.Suggestions
	for got.Query != text {
		select {
		case got = <-engine.Updates():
		case <-ctx.Done():
			return fmt.Errorf("suggestions: %w", ctx.Err())
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(got.Items, false)
	}
	for _, item := range got.Items {
		r.writePlain("%s\n", item)
	}
	return nil
}

// Info prints a video's title, duration and selectable formats.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	rawURL := strings.TrimSpace(cmd.StringArg("url"))
	if rawURL == "" {
		return fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}

	info, err := r.backend.FetchVideoInfo(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to fetch video info: %w", err)
	}
	if len(info.Formats) == 0 {
		info.Formats = models.Formats()
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.InfoToText(info))
}
