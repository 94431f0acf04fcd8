package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// CacheList prints every stored metadata record, newest first.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	st, err := r.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.metadata.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return r.writePlain("No metadata stored\n")
	}

	r.writePlainHeader("Task metadata")
	for _, rec := range records {
		r.writePlain("%s  %s\n", rec.TaskID, rec.Title)
		if rec.SourceURL != "" {
			r.writePlain("    %s\n", rec.SourceURL)
		}
	}
	return r.writePlainln("%d records", len(records))
}

// CacheClear removes every stored metadata record. Running tasks keep working and fall back to generated titles.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	st, err := r.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := r.newReconciler(st).ClearMetadata(ctx); err != nil {
		return err
	}
	r.logger.Info("metadata cleared")
	return r.writePlain("✓ Metadata cleared\n")
}
