package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/server"
	"github.com/desertthunder/albumgate/internal/shared"
)

// Purchase unlocks an album and persists the purchase record.
//
// The payment link, when the album has one, is opened in the browser. Without --wait the purchase
// is simulated right away; with --wait a local return handler must be hit before anything unlocks.
func (r *Runner) Purchase(ctx context.Context, cmd *cli.Command) error {
	album, err := r.album(ctx, cmd.StringArg("album"))
	if err != nil {
		return err
	}
	if !album.Lock {
		r.writePlain("%s is free, nothing to purchase\n", album.Title)
		return nil
	}

	store, err := r.purchaseStore()
	if err != nil {
		return err
	}

	g := r.newGate(store, gate.NewDeck(), false)
	unsubscribe := g.Subscribe(r.eventPrinter())
	defer unsubscribe()

	session := g.LoadAlbum(album)
	if session.Purchased() {
		r.writePlain("✓ %s is already purchased\n", album.Title)
	} else {
		r.writePlain("%s\n", album.PurchaseLabel())

		if cmd.Bool("wait") {
			if err := r.waitForPurchase(ctx, album, cmd.Duration("timeout")); err != nil {
				return err
			}
		} else {
			r.openPaymentPage(album)
		}

		if err := g.Unlock(session); err != nil {
			return err
		}
		r.logger.Info("purchase recorded", "album", album.ID)
		r.writePlain("✓ Purchase recorded for %s\n", album.Title)
	}

	if !cmd.Bool("download") {
		return nil
	}
	return r.runDownload(ctx, cmd, album, g.DownloadAll(session), g.CanDownload(session))
}

// openPaymentPage opens the album's payment link, printing it when no browser can be launched.
func (r *Runner) openPaymentPage(album models.Album) {
	if !album.HasPaymentLink() {
		r.writePlain("→ No payment link configured, simulating a successful purchase\n")
		return
	}

	r.writePlain("→ Opening payment page...\n")
	if err := r.opener(album.PaymentLink); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", album.PaymentLink)
	}
}

// waitForPurchase serves the purchase return handler until the buyer comes back, the timeout
// passes or ctx is cancelled.
func (r *Runner) waitForPurchase(ctx context.Context, album models.Album, timeout time.Duration) error {
	state := shared.GenerateID()
	handler := server.NewPurchaseHandler(album.ID, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	addr := r.config.Server.Addr()
	returnURL := handler.ReturnURL("http://" + addr)

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	ready := make(chan struct{})
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting purchase return server at %v", addr)
		serverErrors <- server.Serve(serveCtx, addr, router, r.logger, ready)
	}()

	select {
	case <-ready:
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	}

	r.openPaymentPage(album)
	r.writePlain("→ After paying, the payment page should send you to:\n%s\n", returnURL)
	r.writePlain("→ Waiting for purchase confirmation (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.PurchaseResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = errors.New("server stopped")
		}
		return fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return fmt.Errorf("%w: purchase not confirmed after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	stop()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if err := result.Error(); err != nil {
		return fmt.Errorf("purchase failed: %w", err)
	}
	return nil
}

type purchaseRow struct {
	AlbumID   string    `json:"album_id"`
	Title     string    `json:"title,omitempty"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PurchasesList prints every persisted purchase record, with album titles when the catalog knows them.
func (r *Runner) PurchasesList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.purchaseStore()
	if err != nil {
		return err
	}

	records, err := store.List()
	if err != nil {
		return err
	}

	titles := map[string]string{}
	if catalog, err := r.albumCatalog(); err == nil {
		if albums, err := catalog.Albums(ctx); err == nil {
			for _, a := range albums.Albums() {
				titles[a.ID] = a.Title
			}
		}
	}

	rows := make([]purchaseRow, 0, len(records))
	for _, p := range records {
		rows = append(rows, purchaseRow{
			AlbumID:   p.AlbumID,
			Title:     titles[p.AlbumID],
			Token:     p.Token,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(rows) == 0 {
		r.writePlain("No purchases recorded\n")
		return nil
	}

	r.writePlain("Found %d purchases:\n\n", len(rows))
	for i, row := range rows {
		name := row.AlbumID
		if row.Title != "" {
			name = fmt.Sprintf("%s (%s)", row.Title, row.AlbumID)
		}
		r.writePlain("%d. %s\n", i+1, name)
		r.writePlain("   Token: %s\n", row.Token)
		r.writePlain("   Purchased: %s\n\n", row.UpdatedAt.Local().Format(time.DateTime))
	}
	return nil
}

// PurchasesClear forgets the purchase of one album.
func (r *Runner) PurchasesClear(ctx context.Context, cmd *cli.Command) error {
	albumID := cmd.StringArg("album")
	if albumID == "" {
		return fmt.Errorf("%w: album id is required", shared.ErrMissingArgument)
	}

	store, err := r.purchaseStore()
	if err != nil {
		return err
	}
	if err := store.Clear(albumID); err != nil {
		return err
	}

	r.writePlain("✓ Purchase cleared for %s\n", albumID)
	return nil
}
