package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/repositories"
	"github.com/desertthunder/albumgate/internal/services"
	"github.com/desertthunder/albumgate/internal/shared"
	"github.com/desertthunder/albumgate/internal/tasks"
)

// PurchaseStore is the persisted purchase record store the commands work with.
type PurchaseStore interface {
	gate.PurchaseStore
	List() ([]*models.Purchase, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The catalog and the purchase store are built on first use from the loaded config
// unless they were injected through [RunnerOpts].
type Runner struct {
	configPath string
	config     *shared.Config
	theme      models.Theme
	catalog    *services.Catalog
	store      PurchaseStore
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	opener     shared.URLOpener
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    *services.Catalog
	Store      PurchaseStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Opener     shared.URLOpener
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Opener == nil {
		opts.Opener = shared.OpenBrowser
	}

	return &Runner{
		configPath: opts.ConfigPath,
		config:     opts.Config,
		catalog:    opts.Catalog,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		opener:     opts.Opener,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "albumgate",
		Usage:    "Preview-gated album player with simulated purchases",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, albumsCommand, playCommand, purchaseCommand, purchasesCommand, downloadCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config and applies the global flags.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config == nil {
		r.configPath = cmd.String("config")
		r.config = r.loadConfig(r.configPath)
	}

	if kind := cmd.String("source"); kind != "" {
		r.config.Source.Kind = kind
	}
	if theme := cmd.String("theme"); theme != "" {
		r.theme = models.ParseTheme(theme)
		if !r.theme.Known() {
			r.logger.Warn("unknown theme, using the default palette", "theme", theme)
		}
	}
	return ctx, nil
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.store = nil, nil
	return err
}

// loadConfig reads path, falling back to defaults with the sample source when it does not exist.
func (r *Runner) loadConfig(path string) *shared.Config {
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using sample albums", "path", path)
		config := shared.DefaultConfig()
		config.Source.Kind = shared.SourceSample
		return config
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

// albumCatalog returns the catalog for the configured source.
func (r *Runner) albumCatalog() (*services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	source, err := services.NewSource(r.config.Source, r.config.Gate.Currency, r.httpClient, r.logger)
	if err != nil {
		return nil, err
	}
	r.catalog = services.NewCatalog(source, r.logger)
	return r.catalog, nil
}

// album fetches one album, warning when the albums came from the sample fallback.
func (r *Runner) album(ctx context.Context, id string) (models.Album, error) {
	if id == "" {
		return models.Album{}, fmt.Errorf("%w: album id is required", shared.ErrMissingArgument)
	}

	catalog, err := r.albumCatalog()
	if err != nil {
		return models.Album{}, err
	}

	album, err := catalog.Album(ctx, id)
	if st := catalog.Status(); st.Fallback {
		r.logger.Warn(st.Message())
	}
	return album, err
}

// firstAlbum returns the album a player opens when none is named.
func (r *Runner) firstAlbum(ctx context.Context) (models.Album, error) {
	catalog, err := r.albumCatalog()
	if err != nil {
		return models.Album{}, err
	}

	albums, err := catalog.Albums(ctx)
	if err != nil {
		return models.Album{}, err
	}
	if st := catalog.Status(); st.Fallback {
		r.logger.Warn(st.Message())
	}

	album, ok := albums.First()
	if !ok {
		return models.Album{}, shared.ErrEmptyCatalog
	}
	return album, nil
}

// purchaseStore opens the database on first use.
func (r *Runner) purchaseStore() (PurchaseStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	r.db = db
	r.store = repositories.NewPurchaseRepository(db)
	return r.store, nil
}

// newGate builds a gate over store and out. resetOnLoad is ANDed with the config setting.
func (r *Runner) newGate(store gate.PurchaseStore, out gate.AudioOutput, resetOnLoad bool) *gate.Gate {
	return gate.New(store, out, gate.Options{
		PreviewLimit: r.config.Gate.PreviewLimit(),
		ResetOnLoad:  resetOnLoad && r.config.Gate.ResetPurchaseOnLoad,
		Logger:       r.logger,
	})
}

func (r *Runner) newDownloader(cmd *cli.Command) *tasks.Downloader {
	opts := tasks.DownloadOpts{
		OutputDir:   r.config.Download.OutputDir,
		Concurrency: r.config.Download.Concurrency,
		Stagger:     r.config.Download.Stagger(),
		Tag:         r.config.Download.Tag,
	}
	if cmd != nil {
		if dir := cmd.String("output"); dir != "" {
			opts.OutputDir = dir
		}
		if n := cmd.Int("concurrency"); n > 0 {
			opts.Concurrency = n
		}
		if cmd.Bool("no-tag") {
			opts.Tag = false
		}
	}
	return tasks.NewDownloader(opts, r.httpClient, r.logger)
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
