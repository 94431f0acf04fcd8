package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytfetch/internal/connectivity"
	"github.com/desertthunder/ytfetch/internal/formatter"
	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/services"
	"github.com/desertthunder/ytfetch/internal/shared"
	"github.com/desertthunder/ytfetch/internal/tasks"
)

// useConfig reloads the configuration when --config names a file other than the one loaded at startup.
func (r *Runner) useConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if path == defaultConfigPath {
			return nil
		}
		return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config, r.configPath = config, path

	if _, ok := r.backend.(*services.Client); ok {
		r.httpClient = &http.Client{Timeout: config.Backend.Timeout()}
		r.backend = r.newClient()
	}
	r.logger.Debug("loaded config", "path", path)
	return nil
}

// downloadDir resolves the target directory for saved files.
func (r *Runner) downloadDir(cmd *cli.Command) string {
	if dir := strings.TrimSpace(cmd.String("dir")); dir != "" {
		return dir
	}
	if dir := strings.TrimSpace(r.config.Downloads.Directory); dir != "" {
		return dir
	}
	return "."
}

// Start launches a task and registers its metadata so later polls show the title.
func (r *Runner) Start(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	rawURL := strings.TrimSpace(cmd.StringArg("url"))
	if rawURL == "" {
		return fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}
	quality, err := models.ParseQuality(cmd.String("quality"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	req := tasks.StartRequest{URL: rawURL, Quality: quality, Title: cmd.String("title")}
	if req.Title == "" {
		if info, err := r.backend.FetchVideoInfo(ctx, rawURL); err != nil {
			r.logger.Warn("could not fetch video info, starting without a title", "err", err)
		} else {
			req.Title, req.ThumbnailURL = info.Title, info.ThumbnailURL
		}
	}

	st, err := r.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := r.newReconciler(st).Launch(ctx, req)
	if err != nil {
		if id == "" {
			return err
		}
		r.logger.Warn("task started but metadata was not stored", "task", id, "err", err)
	}

	r.writePlain("✓ Started %s (%s)\n", tasks.FallbackTitle(id), quality.Label())
	if req.Title != "" {
		r.writePlain("  Title: %s\n", req.Title)
	}
	r.writePlain("  ID: %s\n", id)
	return nil
}

// Tasks polls once and prints or exports the merged task view.
func (r *Runner) Tasks(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	st, err := r.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	views, err := r.newReconciler(st).Poll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteTaskExport(views, path)
		if err != nil {
			return err
		}
		r.logger.Info("exported tasks", "path", written, "count", len(views))
		return r.writePlain("✓ Exported %d tasks to %s\n", len(views), written)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	}

	data, err := formatter.ExportTasks(views, format)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// Watch polls on the configured cadence and prints a line whenever a task changes, until interrupted.
//
// With --save each finished task is saved once. Transport failures while saving start the connectivity probe and
// its notices are printed as they arrive.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := r.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	interval := cmd.Duration("interval")
	if interval <= 0 {
		interval = r.config.Intervals.PollInterval()
	}

	rec := r.newReconciler(st)
	monitor := connectivity.NewMonitor(ctx, r.backend, r.clock, r.config.Intervals.ProbeInterval(), r.logger)
	defer monitor.Stop()

	poller := tasks.NewPoller(ctx, rec, r.clock, interval, r.logger)
	defer poller.Stop()

	save, untilDone, force := cmd.Bool("save"), cmd.Bool("until-done"), cmd.Bool("force")
	opts := tasks.BulkSaveOpts{Dir: r.downloadDir(cmd), NumWorkers: int(cmd.Int("workers"))}
	printed := make(map[string]string)
	inHistory := make(map[string]bool)
	failing := false

	r.logger.Info("watching tasks", "interval", interval, "save", save)
	poller.Start()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-monitor.Events():
			if ev.Notice != connectivity.NoticeNone {
				r.writePlain("! %s\n", ev.Notice)
			}
		case u := <-rec.Updates():
			switch u.Kind {
			case tasks.PollFailed:
				if !failing {
					r.logger.Warn("poll failed, showing last known tasks", "err", u.Err)
				}
				failing = true
			case tasks.ViewsChanged:
				failing = false
				for _, v := range u.Views {
					line := formatter.TaskLine(v)
					if printed[v.ID] != line {
						printed[v.ID] = line
						r.writePlain("%s\n", line)
					}
				}
				if save {
					r.saveFinished(ctx, rec, monitor, r.unsaved(ctx, st, u.Views, force, inHistory), opts)
				}
				if untilDone && !anyActive(u.Views) {
					return nil
				}
			}
		}
	}
}

func (r *Runner) saveFinished(ctx context.Context, rec *tasks.Reconciler, monitor *connectivity.Monitor, views []tasks.TaskView, opts tasks.BulkSaveOpts) {
	ids := tasks.Finished(views)
	if len(ids) == 0 {
		return
	}
	result := rec.SaveAll(ctx, ids, opts)
	for _, res := range result.Results {
		if res.Err != nil {
			if monitor != nil && monitor.ReportFailure(res.Err) {
				r.logger.Debug("save failed on a connectivity error", "task", res.TaskID)
			}
			r.writePlain("✗ %s: %v\n", res.TaskID, res.Err)
			continue
		}
		r.writePlain("✓ Saved %s\n", res.File.Path)
	}
}

// unsaved drops finished views whose task the save history already lists. Hits are remembered in inHistory so a
// long watch does not query the history on every poll.
func (r *Runner) unsaved(ctx context.Context, st *stores, views []tasks.TaskView, force bool, inHistory map[string]bool) []tasks.TaskView {
	if st.saved == nil || force {
		return views
	}

	pending := make([]tasks.TaskView, 0, len(views))
	for _, v := range views {
		if v.CanMaterialize && !inHistory[v.ID] {
			if _, err := st.saved.Get(ctx, v.ID); err == nil {
				r.logger.Debug("skipping task already in save history", "task", v.ID)
				inHistory[v.ID] = true
			}
		}
		if inHistory[v.ID] {
			continue
		}
		pending = append(pending, v)
	}
	return pending
}

func anyActive(views []tasks.TaskView) bool {
	for _, v := range views {
		if v.Status.IsActive() {
			return true
		}
	}
	return false
}

// Save transfers a finished task's file into the download directory.
//
// The history check spans sessions; the reconciler guard only covers this process.
func (r *Runner) Save(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	id := strings.TrimSpace(cmd.StringArg("id"))
	all := cmd.Bool("all")
	if id == "" && !all {
		return fmt.Errorf("%w: task id or --all is required", shared.ErrMissingArgument)
	}

	st, err := r.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if all {
		return r.saveAll(ctx, cmd, st)
	}

	if st.saved != nil && !cmd.Bool("force") {
		if prev, err := st.saved.Get(ctx, id); err == nil {
			return fmt.Errorf("%w: %s was saved to %s (use --force to save again)", shared.ErrAlreadyMaterialized, id, prev.Path)
		}
	}

	rec := r.newReconciler(st)
	if _, err := rec.Poll(ctx); err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}

	file, err := rec.Save(ctx, id, r.downloadDir(cmd))
	if err != nil {
		if errors.Is(err, shared.ErrNotFinished) {
			r.logger.Info("task is not finished yet", "task", id)
		}
		return err
	}
	return r.writePlain("✓ Saved %s (%s)\n", file.Path, formatter.Size(file.SizeBytes))
}

// saveAll saves every finished task, skipping tasks the history already lists unless --force is set.
func (r *Runner) saveAll(ctx context.Context, cmd *cli.Command, st *stores) error {
	rec := r.newReconciler(st)
	views, err := rec.Poll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}

	pending := r.unsaved(ctx, st, views, cmd.Bool("force"), make(map[string]bool))
	if len(tasks.Finished(pending)) == 0 {
		return r.writePlain("Nothing to save\n")
	}

	r.saveFinished(ctx, rec, nil, pending, tasks.BulkSaveOpts{Dir: r.downloadDir(cmd), NumWorkers: int(cmd.Int("workers"))})
	return nil
}

// History lists files saved by earlier sessions.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	st, err := r.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if st.saved == nil {
		return fmt.Errorf("%w: save history needs database.path", shared.ErrMissingConfig)
	}

	files, err := st.saved.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if files == nil {
			files = []models.SavedFile{}
		}
		return r.writeJSON(files, true)
	}
	return r.writeBytes(formatter.HistoryToText(files, r.clock.Now()))
}

// Open launches the browser on a task's source URL.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: task id is required", shared.ErrMissingArgument)
	}

	st, err := r.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	record, err := st.metadata.Get(ctx, id)
	if err != nil {
		return err
	}
	if record.SourceURL == "" {
		return fmt.Errorf("%w: no source url stored for %s", shared.ErrInvalidURL, id)
	}
	return r.openURL(record.SourceURL)
}
