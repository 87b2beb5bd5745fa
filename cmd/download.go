package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
	"github.com/desertthunder/albumgate/internal/tasks"
)

// Download fetches the tracks of a purchased album that allows downloads.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	album, err := r.album(ctx, cmd.StringArg("album"))
	if err != nil {
		return err
	}

	store, err := r.purchaseStore()
	if err != nil {
		return err
	}

	g := r.newGate(store, gate.NewDeck(), false)
	session := g.LoadAlbum(album)

	downloads := g.DownloadAll(session)
	if trackID := cmd.Int("track"); trackID > 0 {
		track, ok := session.Track(trackID)
		if !ok {
			return fmt.Errorf("%w: %d", shared.ErrTrackNotFound, trackID)
		}
		d, ok := g.Download(session, trackID)
		if !ok && g.CanDownload(session) {
			return fmt.Errorf("%w: no audio file available for %q", shared.ErrInvalidArgument, track.Title)
		}
		downloads = nil
		if ok {
			downloads = []gate.Download{d}
		}
	}

	return r.runDownload(ctx, cmd, album, downloads, g.CanDownload(session))
}

// runDownload runs the downloader over downloads, printing progress and a summary.
func (r *Runner) runDownload(ctx context.Context, cmd *cli.Command, album models.Album, downloads []gate.Download, allowed bool) error {
	if !allowed {
		if !album.Download {
			return fmt.Errorf("%w: %s", shared.ErrDownloadDisabled, album.Title)
		}
		return fmt.Errorf("%w: %s", shared.ErrLocked, album.Title)
	}
	if len(downloads) == 0 {
		r.writePlain("Nothing to download for %s\n", album.Title)
		return nil
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Total > 0 {
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			} else {
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	r.writePlain("→ Downloading %d tracks of %s...\n", len(downloads), album.Title)
	result, err := r.newDownloader(cmd).Run(ctx, album, downloads, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlainHeader("Download Complete!")
	r.writePlain("Directory: %s\n", result.Directory)
	r.writePlain("Files: %d/%d downloaded\n", result.Succeeded, len(result.Files))

	var total int64
	for _, f := range result.Files {
		total += f.Bytes
	}
	r.writePlain("Size: %.1f KiB\n", float64(total)/1024)

	if failures := result.Failures(); len(failures) > 0 {
		r.writePlain("\nFailed to download %d files:\n", len(failures))
		for _, f := range failures {
			r.writePlain("  - %s: %v\n", f.Download.FileName, f.Err)
		}
	}
	return nil
}
