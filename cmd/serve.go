package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/albumgate/internal/server"
)

// Serve runs the album catalog API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.albumCatalog()
	if err != nil {
		return err
	}

	store, err := r.purchaseStore()
	if err != nil {
		r.logger.Warn("purchase store unavailable, locked albums report unpurchased", "error", err)
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.RequestLogger(r.logger), server.CORS(cmd.String("cors-origin")))

	server.NewAPI(catalog, store, r.logger).Register(router)

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	ready := make(chan struct{})
	go func() {
		select {
		case <-ready:
			r.writePlain("Serving albums at http://%s (ctrl+c to stop)\n", addr)
		case <-ctx.Done():
		}
	}()

	if err := server.Serve(ctx, addr, router, r.logger, ready); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	r.logger.Info("server stopped")
	return nil
}
