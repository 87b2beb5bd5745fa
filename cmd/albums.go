package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/albumgate/internal/formatter"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/tasks"
)

// AlbumsList prints every album of the configured source.
func (r *Runner) AlbumsList(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.albumCatalog()
	if err != nil {
		return err
	}

	albums, err := catalog.Albums(ctx)
	if err != nil {
		return err
	}

	status := catalog.Status()
	if status.Fallback {
		r.logger.Warn(status.Message())
	}

	if cmd.Bool("json") {
		return r.writeJSON(albums.Albums(), cmd.Bool("pretty"))
	}

	r.writePlain("%s\n\n", status.Message())
	for i, a := range albums.Albums() {
		r.writePlain("%d. %s\n", i+1, a.Title)
		r.writePlain("   ID: %s\n", a.ID)
		r.writePlain("   Tracks: %d (%s)\n", len(a.Tracks), formatter.FormatTime(a.TotalDuration()))
		r.writePlain("   Access: %s\n", accessSummary(a))
		r.writePlain("   Theme: %s\n\n", a.Theme.Name())
	}
	return nil
}

// AlbumsShow prints one album with its track listing.
func (r *Runner) AlbumsShow(ctx context.Context, cmd *cli.Command) error {
	album, err := r.album(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(album, cmd.Bool("pretty"))
	case cmd.Bool("markdown"):
		return r.writePlain("%s", formatter.ExportMarkdown(album))
	default:
		r.writePlain("%s", formatter.ExportText([]models.Album{album}))
		r.writePlain("\nAccess: %s\n", accessSummary(album))
		return nil
	}
}

// AlbumsExport writes every album to disk with the export worker pool.
func (r *Runner) AlbumsExport(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.albumCatalog()
	if err != nil {
		return err
	}

	albums, err := catalog.Albums(ctx)
	if err != nil {
		return err
	}

	if sheet := cmd.String("sheet"); sheet != "" {
		data, err := formatter.ExportSheetCSV(albums.Albums())
		if err != nil {
			return fmt.Errorf("failed to build sheet: %w", err)
		}
		if err := formatter.WriteFile(sheet, data); err != nil {
			return err
		}
		r.writePlain("✓ Sheet written to %s\n", sheet)
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("   %s\n", update.Message)
		}
	}()

	result, err := tasks.ExportAlbums(ctx, progressCh, albums.Albums(), tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlainHeader("Export Complete!")
	r.writePlain("Format: %s\n", result.Format)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Albums: %d/%d exported\n", result.Succeeded, result.Total)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if result.Failed > 0 {
		r.writePlain("\nFailed to export %d albums:\n", result.Failed)
		for _, res := range result.Results {
			if res.Err != nil {
				r.writePlain("  - %s: %v\n", res.Title, res.Err)
			}
		}
	}
	return nil
}

func accessSummary(a models.Album) string {
	if !a.Lock {
		return "free"
	}
	access := "locked (preview)"
	if price := a.Price.Display(); price != "" {
		access += " " + price
	}
	if a.HasPaymentLink() {
		access += ", payment link"
	}
	if !a.Download {
		access += ", streaming only"
	}
	return access
}
