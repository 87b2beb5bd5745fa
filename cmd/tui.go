package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/shared"
	"github.com/desertthunder/albumgate/internal/ui"
)

// TUI launches the interactive album player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	catalog, err := r.albumCatalog()
	if err != nil {
		return err
	}

	store, err := r.purchaseStore()
	if err != nil {
		return err
	}

	deck := gate.NewDeck()
	g := r.newGate(store, deck, true)

	model := ui.NewModel(ctx, catalog, g, deck, r.newDownloader(nil), ui.Options{
		Theme:  r.theme,
		Open:   r.opener,
		Logger: r.logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
