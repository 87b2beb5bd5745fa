// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Album source override (csv, table or sample)",
		},
		&cli.StringFlag{
			Name:  "theme",
			Usage: "Force a theme (default, cyberpunk, neon-sunset, digital-ocean)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Download directory (default: download.output_dir)",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Parallel downloads (default: download.concurrency)",
		},
		&cli.BoolFlag{
			Name:  "no-tag",
			Usage: "Skip ID3 tags and cover art",
		},
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file if needed, initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration instead of migrating up",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// albumsCommand handles catalog browsing and exports
func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "albums",
		Usage: "Browse and export the album catalog",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List albums from the configured source",
				Flags:  jsonFlags(),
				Action: r.AlbumsList,
			},
			{
				Name:  "show",
				Usage: "Show one album with its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: append(jsonFlags(), &cli.BoolFlag{
					Name:  "markdown",
					Usage: "Output Markdown",
				}),
				Action: r.AlbumsShow,
			},
			{
				Name:  "export",
				Usage: "Export every album to files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, csv, markdown, txt)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: album_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 4,
					},
					&cli.StringFlag{
						Name:  "sheet",
						Usage: "Also write the whole catalog as one sheet CSV to this path",
					},
				},
				Action: r.AlbumsExport,
			},
		},
	}
}

// playCommand runs a headless preview of one track
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Simulate playing a track and print what the preview gate does (default: the first album)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "album"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "track",
				Aliases: []string{"t"},
				Usage:   "Track number",
				Value:   1,
			},
			&cli.DurationFlag{
				Name:  "for",
				Usage: "How long to play (default: the whole track)",
			},
			&cli.BoolFlag{
				Name:  "realtime",
				Usage: "Advance with the wall clock instead of instantly",
			},
		},
		Action: r.Play,
	}
}

// purchaseCommand simulates buying an album
func purchaseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "purchase",
		Usage: "Purchase an album (simulated) and unlock full tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "album"},
		},
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Wait for the payment page to send the buyer back before unlocking",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long --wait waits",
				Value: 2 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "download",
				Usage: "Download every track after the purchase",
			},
		}, downloadFlags()...),
		Action: r.Purchase,
	}
}

// purchasesCommand lists and clears purchase records
func purchasesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "purchases",
		Usage:  "List purchase records",
		Flags:  jsonFlags(),
		Action: r.PurchasesList,
		Commands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Forget the purchase of an album",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "album"},
				},
				Action: r.PurchasesClear,
			},
		},
	}
}

// downloadCommand fetches purchased tracks
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download tracks of a purchased album",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "album"},
		},
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "track",
				Aliases: []string{"t"},
				Usage:   "Only this track number (default: all tracks)",
			},
		}, downloadFlags()...),
		Action: r.Download,
	}
}

// serveCommand runs the album API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the album catalog as a JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
			&cli.StringFlag{
				Name:  "cors-origin",
				Usage: "Allowed CORS origin",
				Value: "*",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive player.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive album player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where TUI logs go",
				Value: "./tmp/albumgate-tui.log",
			},
		},
		Action: r.TUI,
	}
}
