// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize the database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// searchCommand runs a paginated search against the backend.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for videos",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "pages",
				Aliases: []string{"p"},
				Usage:   "Number of result pages to load",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

func suggestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Show autocomplete suggestions for partial input",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "text"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Suggest,
	}
}

// infoCommand fetches video metadata and the available formats.
func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show title, duration and formats for a video URL",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Info,
	}
}

func startCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start a download task for a video URL",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "One of mp3, best_mp4, 1080p, 720p",
				Value:   "best_mp4",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Title to show for the task (fetched from the backend when empty)",
			},
		},
		Action: r.Start,
	}
}

// tasksCommand lists or exports the current task view.
func tasksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "List backend tasks merged with local metadata",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: txt, csv, md or json",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to a file; the format follows the extension",
			},
		},
		Action: r.Tasks,
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll tasks and print progress until interrupted",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save each task to the downloads directory once it finishes",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "With --save, also save tasks the history already lists",
			},
			&cli.BoolFlag{
				Name:  "until-done",
				Usage: "Exit once no task is queued or downloading",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent file transfers",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Poll interval (defaults to intervals.poll_ms)",
			},
		},
		Action: r.Watch,
	}
}

func saveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save a finished task's file to local disk",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Target directory (defaults to downloads.directory)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Save again even if the history already lists the task",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Save every finished task",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent file transfers",
				Value: 3,
			},
		},
		Action: r.Save,
	}
}

// historyCommand lists files saved in earlier sessions.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List saved files",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open a task's source URL in the browser",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.Open,
	}
}

// cacheCommand manages locally stored task metadata.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage locally stored task metadata",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List stored task metadata records",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every stored metadata record",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
