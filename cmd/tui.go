package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytfetch/internal/connectivity"
	"github.com/desertthunder/ytfetch/internal/search"
	"github.com/desertthunder/ytfetch/internal/shared"
	"github.com/desertthunder/ytfetch/internal/tasks"
	"github.com/desertthunder/ytfetch/internal/ui"
)

// TUI launches the interactive terminal UI for search, launching and saving tasks.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	if path := r.config.Log.File; path != "" {
		fileLogger, err := shared.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
		r.SetLogger(fileLogger)
	} else {
		r.SetLogger(shared.DiscardLogger())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := r.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	intervals := r.config.Intervals
	rec := r.newReconciler(st)
	poller := tasks.NewPoller(ctx, rec, r.clock, intervals.PollInterval(), r.logger)
	pager := search.NewPager(r.backend, r.clock, intervals.DebounceDelay(), r.logger)
	suggestions := search.NewSuggestionEngine(r.backend, r.clock, intervals.DebounceDelay(), r.logger)
	monitor := connectivity.NewMonitor(ctx, r.backend, r.clock, intervals.ProbeInterval(), r.logger)
	defer func() {
		poller.Stop()
		monitor.Stop()
		pager.Cancel()
		suggestions.Cancel()
	}()

	model := ui.NewModel(ctx, ui.Deps{
		Info:        r.backend,
		Reconciler:  rec,
		Poller:      poller,
		Pager:       pager,
		Suggestions: suggestions,
		Monitor:     monitor,
		DownloadDir: r.config.Downloads.Directory,
		Logger:      r.logger,
		OpenURL:     r.openURL,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	r.logger.Info("starting tui", "backend", r.config.Backend.BaseURL)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
