package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/albumgate/internal/formatter"
	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
	"github.com/desertthunder/albumgate/internal/tasks"
)

const playStep = time.Second

// Play runs one track through the preview gate on a virtual deck and prints every gate event.
//
// Without an album id the first album in the catalog plays. The deck advances instantly unless
// --realtime is set. Purchase records are never reset here, whatever gate.reset_purchase_on_load says.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	var album models.Album
	var err error
	if id := cmd.StringArg("album"); id != "" {
		album, err = r.album(ctx, id)
	} else {
		album, err = r.firstAlbum(ctx)
	}
	if err != nil {
		return err
	}

	store, err := r.purchaseStore()
	if err != nil {
		return err
	}

	deck := gate.NewDeck()
	g := r.newGate(store, deck, false)
	unsubscribe := g.Subscribe(r.eventPrinter())
	defer unsubscribe()

	session := g.LoadAlbum(album)
	trackID := cmd.Int("track")
	track, ok := session.Track(trackID)
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrTrackNotFound, trackID)
	}
	if d := r.downloadedLength(album, track); d > 0 {
		g.OnDurationLoaded(session, trackID, d)
		track, _ = session.Track(trackID)
	}

	length := cmd.Duration("for")
	if length <= 0 {
		length = track.Duration
	}

	if session.Purchased() {
		r.writePlain("%s: FULL ACCESS\n", album.Title)
	} else {
		r.writePlain("%s: PREVIEW MODE - %d SEC\n", album.Title, int(g.PreviewLimit().Seconds()))
	}

	if err := g.Play(session, trackID); err != nil {
		if track.Src == "" {
			return fmt.Errorf("%w: no audio file available for %q", shared.ErrPlayback, track.Title)
		}
		return err
	}

	var ticker *time.Ticker
	if cmd.Bool("realtime") {
		ticker = time.NewTicker(playStep)
		defer ticker.Stop()
	}

	for elapsed := time.Duration(0); elapsed < length && session.Playing(trackID); elapsed += playStep {
		if ticker != nil {
			select {
			case <-ctx.Done():
				g.Pause(session, trackID)
				return ctx.Err()
			case <-ticker.C:
			}
		}
		for _, t := range deck.Advance(playStep) {
			g.Feed(session, t)
		}
	}
	g.Pause(session, trackID)

	r.writePlain("Heard %s of %s\n", formatter.FormatTime(heard(session, trackID, length)), formatter.FormatTime(track.Duration))
	if !session.Purchased() && album.Lock {
		r.writePlain("%s: albumgate purchase %s\n", album.PurchaseLabel(), album.ID)
	}
	return nil
}

// downloadedLength returns the length declared by a downloaded copy of track, or zero when
// there is none.
func (r *Runner) downloadedLength(album models.Album, track models.Track) time.Duration {
	path := filepath.Join(r.config.Download.OutputDir, formatter.AlbumDirName(album), formatter.TrackFileName(track))
	if _, err := os.Stat(path); err != nil {
		return 0
	}
	length, err := tasks.TrackLength(path)
	if err != nil {
		r.logger.Debug("failed to read track length", "path", path, "error", err)
	}
	return length
}

// heard is how much of the track played before it stopped, given the requested length.
func heard(s *gate.Session, trackID int, length time.Duration) time.Duration {
	return min(length, s.Audible(trackID))
}

// eventPrinter writes gate events as they happen.
func (r *Runner) eventPrinter() gate.Observer {
	return gate.ObserverFunc(func(e gate.Event) {
		switch e.Kind {
		case gate.TrackStarted:
			r.writePlain("▶ %s. %s\n", formatter.TrackNumber(e.Track.ID), e.Track.Title)
		case gate.TrackStopped:
			r.writePlain("■ %s stopped at %s (%s)\n", e.Track.Title, formatter.FormatTime(e.Position), e.Reason)
		case gate.PreviewExpired:
			r.writePlain("⏱ Preview ended - purchase to hear the full track\n")
		case gate.AccessUnlocked:
			r.writePlain("✓ Full access unlocked\n")
		}
	})
}
