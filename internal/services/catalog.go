package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
)

// NewSource builds the configured [AlbumSource].
func NewSource(cfg shared.SourceConfig, currency string, client *http.Client, logger *log.Logger) (AlbumSource, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}

	switch cfg.Kind {
	case shared.SourceCSV:
		if cfg.CSVURL == "" {
			return nil, fmt.Errorf("%w: source.csv_url is required", shared.ErrInvalidConfig)
		}
		return NewCSVSource(cfg.CSVURL, currency, client), nil
	case shared.SourceTable:
		if cfg.Table.URL == "" {
			return nil, fmt.Errorf("%w: source.table.url is required", shared.ErrInvalidConfig)
		}
		return NewTableSource(TableConfig{
			BaseURL:     cfg.Table.URL,
			APIKey:      cfg.Table.APIKey,
			AlbumsTable: cfg.Table.AlbumsTable,
			SongsTable:  cfg.Table.SongsTable,
			Currency:    currency,
		}, client, logger), nil
	case shared.SourceSample, "":
		return SampleSource{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", shared.ErrInvalidConfig, cfg.Kind)
	}
}

// Status describes where the current albums came from, for display to the user.
type Status struct {
	Source   string
	Albums   int
	Fallback bool
	Err      error
	LoadedAt time.Time
}

// Message renders the status as a single line.
func (s Status) Message() string {
	switch {
	case s.LoadedAt.IsZero():
		return "Albums not loaded yet"
	case s.Fallback && s.Err != nil:
		return fmt.Sprintf("Could not load albums from %s (%v); showing %d sample albums", s.Source, s.Err, s.Albums)
	default:
		return fmt.Sprintf("Loaded %d albums from %s", s.Albums, s.Source)
	}
}

// Catalog fronts an [AlbumSource] with an in-memory cache and the sample fallback.
//
// Only a successful primary fetch is cached, so a failed fetch is retried on the next call
// while the user keeps seeing sample albums.
type Catalog struct {
	source   AlbumSource
	fallback AlbumSource
	logger   *log.Logger
	now      func() time.Time

	mu     sync.Mutex
	cached *models.Catalog
	status Status
}

// NewCatalog creates a catalog over source. A nil source serves only the sample albums.
func NewCatalog(source AlbumSource, logger *log.Logger) *Catalog {
	if source == nil {
		source = SampleSource{}
	}
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	return &Catalog{source: source, fallback: SampleSource{}, logger: logger, now: time.Now}
}

// SourceName returns the primary source's name.
func (c *Catalog) SourceName() string { return c.source.Name() }

// Albums returns the cached catalog, fetching it on first use. Errors only surface when
// the context is done or the fallback itself fails.
func (c *Catalog) Albums(ctx context.Context) (*models.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached, nil
	}
	return c.load(ctx)
}

// Refresh drops the cache and fetches again.
func (c *Catalog) Refresh(ctx context.Context) (*models.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cached = nil
	return c.load(ctx)
}

func (c *Catalog) load(ctx context.Context) (*models.Catalog, error) {
	albums, err := c.source.FetchAlbums(ctx)
	if err == nil && albums.Len() > 0 {
		c.cached = albums
		c.status = Status{Source: c.source.Name(), Albums: albums.Len(), LoadedAt: c.now()}
		c.logger.Info("albums loaded", "source", c.source.Name(), "count", albums.Len())
		return albums, nil
	}
	if err == nil {
		err = shared.ErrEmptyCatalog
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	c.logger.Warn("album source failed, using sample albums", "source", c.source.Name(), "error", err)
	sample, fbErr := c.fallback.FetchAlbums(ctx)
	if fbErr != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, fbErr)
	}

	c.status = Status{Source: c.source.Name(), Albums: sample.Len(), Fallback: true, Err: err, LoadedAt: c.now()}
	return sample, nil
}

// Album looks up one album by id.
//
// Before the catalog is cached, a source that implements [AlbumFetcher] is asked for just that
// album. Any failure other than not found falls back to loading the whole catalog.
func (c *Catalog) Album(ctx context.Context, id string) (models.Album, error) {
	c.mu.Lock()
	cached := c.cached != nil
	c.mu.Unlock()

	if fetcher, ok := c.source.(AlbumFetcher); ok && !cached {
		album, err := fetcher.FetchAlbum(ctx, id)
		switch {
		case err == nil:
			return album, nil
		case errors.Is(err, shared.ErrAlbumNotFound):
			return models.Album{}, err
		case ctx.Err() != nil:
			return models.Album{}, ctx.Err()
		}
		c.logger.Debug("single album fetch failed, loading the catalog", "album", id, "error", err)
	}

	albums, err := c.Albums(ctx)
	if err != nil {
		return models.Album{}, err
	}

	album, ok := albums.Get(id)
	if !ok {
		return models.Album{}, fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, id)
	}
	return album, nil
}

// Status reports the outcome of the last load.
func (c *Catalog) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
