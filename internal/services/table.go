// Hosted table [AlbumSource] over a PostgREST endpoint (e.g. Supabase)
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/albumgate/internal/formatter"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
)

const songFetchLimit = 4

// TableConfig points a [TableSource] at its tables.
type TableConfig struct {
	BaseURL     string
	APIKey      string
	AlbumsTable string
	SongsTable  string // optional; empty means tracks come from the album row's "Track N" columns
	Currency    string
}

// TableSource reads albums from a hosted table. Album rows use the same column names as the sheet;
// tracks come from the songs table when it exists and has rows for the album.
type TableSource struct {
	cfg        TableConfig
	httpClient *http.Client
	logger     *log.Logger
}

// NewTableSource creates a table source. A nil client uses [http.DefaultClient].
func NewTableSource(cfg TableConfig, client *http.Client, logger *log.Logger) *TableSource {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	if cfg.AlbumsTable == "" {
		cfg.AlbumsTable = "albums"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &TableSource{cfg: cfg, httpClient: client, logger: logger}
}

var _ AlbumFetcher = (*TableSource)(nil)

// Name returns the source name.
func (t *TableSource) Name() string {
	return "table"
}

// statusError carries a non-2xx PostgREST response.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("table API error (status %d): %s", e.status, e.message)
	}
	return fmt.Sprintf("table API error: status %d", e.status)
}

func (e *statusError) Unwrap() error { return shared.ErrAPIRequest }

func (t *TableSource) doRequest(ctx context.Context, table string, query url.Values, result any) error {
	apiURL := fmt.Sprintf("%s/rest/v1/%s?%s", t.cfg.BaseURL, url.PathEscape(table), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if t.cfg.APIKey != "" {
		req.Header.Set("apikey", t.cfg.APIKey)
		req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return &statusError{status: resp.StatusCode, message: errResp.Message}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// FetchAlbums reads every album row ordered by id, then resolves each album's tracks.
func (t *TableSource) FetchAlbums(ctx context.Context) (*models.Catalog, error) {
	var rows []map[string]any
	query := url.Values{"select": {"*"}, "order": {ColAlbumID + ".asc"}}
	if err := t.doRequest(ctx, t.cfg.AlbumsTable, query, &rows); err != nil {
		return nil, err
	}

	albums := make([]models.Album, 0, len(rows))
	for _, raw := range rows {
		if album, ok := albumFromRow(stringRow(raw), t.cfg.Currency); ok {
			albums = append(albums, album)
		}
	}
	if len(albums) == 0 {
		return nil, shared.ErrEmptyCatalog
	}

	if err := t.attachSongs(ctx, albums); err != nil {
		return nil, err
	}
	return models.NewCatalog(albums...), nil
}

// FetchAlbum reads a single album row by id.
func (t *TableSource) FetchAlbum(ctx context.Context, albumID string) (models.Album, error) {
	var rows []map[string]any
	query := url.Values{"select": {"*"}, ColAlbumID: {"eq." + albumID}, "limit": {"1"}}
	if err := t.doRequest(ctx, t.cfg.AlbumsTable, query, &rows); err != nil {
		return models.Album{}, err
	}
	if len(rows) == 0 {
		return models.Album{}, fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, albumID)
	}

	album, ok := albumFromRow(stringRow(rows[0]), t.cfg.Currency)
	if !ok {
		return models.Album{}, fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, albumID)
	}

	albums := []models.Album{album}
	if err := t.attachSongs(ctx, albums); err != nil {
		return models.Album{}, err
	}
	return albums[0], nil
}

// attachSongs replaces row-derived tracks with songs-table tracks, a few albums at a time.
// A missing or unreadable songs table is not fatal; only cancellation is.
func (t *TableSource) attachSongs(ctx context.Context, albums []models.Album) error {
	if t.cfg.SongsTable == "" {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(songFetchLimit)

	for i := range albums {
		g.Go(func() error {
			songs, err := t.fetchSongs(gctx, albums[i].ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				t.logger.Debug("songs table unavailable, using album row tracks", "album", albums[i].ID, "error", err)
				return nil
			}
			if len(songs) > 0 {
				albums[i].Tracks = songs
			}
			return nil
		})
	}

	return g.Wait()
}

func (t *TableSource) fetchSongs(ctx context.Context, albumID string) ([]models.Track, error) {
	var rows []map[string]any
	query := url.Values{"select": {"*"}, ColAlbumID: {"eq." + albumID}, "order": {"TrackNumber.asc"}}
	if err := t.doRequest(ctx, t.cfg.SongsTable, query, &rows); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(rows))
	seen := make(map[int]bool, len(rows))
	for i, raw := range rows {
		r := stringRow(raw)

		id, err := strconv.Atoi(r.get("TrackNumber"))
		if err != nil || id < 1 || seen[id] {
			id = i + 1
			for seen[id] {
				id++
			}
		}
		seen[id] = true

		src := extractURL(firstOf(r, "URL", "Src", "src", "url"))
		title := r.get("Title")
		if title == "" {
			title = TitleFromURL(src)
		}

		duration, err := formatter.ParseTime(r.get("Duration"))
		if err != nil || duration <= 0 {
			duration = models.DefaultTrackDuration
		}

		tracks = append(tracks, models.Track{
			ID:       id,
			Title:    title,
			Src:      src,
			Art:      firstOf(r, "Art", "art"),
			Duration: duration,
		})
	}

	sort.SliceStable(tracks, func(a, b int) bool { return tracks[a].ID < tracks[b].ID })
	return tracks, nil
}

func firstOf(r row, cols ...string) string {
	for _, c := range cols {
		if v := r.get(c); v != "" {
			return v
		}
	}
	return ""
}

// stringRow flattens a decoded JSON row into sheet-style string cells. Booleans become yes/no.
func stringRow(raw map[string]any) row {
	r := make(row, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			r[k] = ""
		case string:
			r[k] = val
		case bool:
			if val {
				r[k] = "yes"
			} else {
				r[k] = "no"
			}
		case json.Number:
			r[k] = val.String()
		default:
			var buf bytes.Buffer
			_ = json.NewEncoder(&buf).Encode(val)
			r[k] = strings.TrimSpace(buf.String())
		}
	}
	return r
}
