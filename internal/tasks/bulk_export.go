package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/albumgate/internal/formatter"
	"github.com/desertthunder/albumgate/internal/models"
)

// Export formats accepted by [ExportAlbums].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ExportOpts contains configuration for bulk album exports.
type ExportOpts struct {
	Format     string  // json, csv, markdown or txt
	OutputDir  string  // Base output directory (default: album_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max 10)
	RateLimit  float64 // Albums per second; zero means unlimited
}

// AlbumExportResult is the outcome for a single album.
type AlbumExportResult struct {
	AlbumID string   `json:"album_id"`
	Title   string   `json:"title"`
	Files   []string `json:"files,omitempty"`
	Err     error    `json:"-"`
	Error   string   `json:"error,omitempty"`
}

// ExportResult summarizes an [ExportAlbums] run.
type ExportResult struct {
	Format          string              `json:"format"`
	OutputDirectory string              `json:"output_directory"`
	Total           int                 `json:"total"`
	Succeeded       int                 `json:"succeeded"`
	Failed          int                 `json:"failed"`
	Results         []AlbumExportResult `json:"results"`
	ManifestPath    string              `json:"-"`
}

// ExportAlbums writes one export per album using a worker pool and finishes with an
// export_manifest.json summarizing every result. Per-album failures are collected.
func ExportAlbums(ctx context.Context, prog chan<- ProgressUpdate, albums []models.Album, opts ExportOpts) (*ExportResult, error) {
	switch opts.Format {
	case "":
		opts.Format = FormatJSON
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
	default:
		return nil, fmt.Errorf("unsupported export format %q", opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("album_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	opts.NumWorkers = min(opts.NumWorkers, 10)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	result := &ExportResult{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		Total:           len(albums),
		Results:         make([]AlbumExportResult, 0, len(albums)),
	}

	jobs := make(chan models.Album, len(albums))
	results := make(chan AlbumExportResult, len(albums))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for album := range jobs {
				if ctx.Err() != nil {
					return
				}
				results <- exportAlbum(album, opts)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, album := range albums {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- album
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Err != nil {
			res.Error = res.Err.Error()
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Results = append(result.Results, res)
		sendProgress(prog, exportUpdate(completed, len(albums), res))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifest, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result, fmt.Errorf("failed to encode manifest: %w", err)
	}
	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteFile(manifestPath, manifest); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	sendProgress(prog, completeUpdate(result.Succeeded, result.Failed))
	return result, nil
}

// exportAlbum writes a single album in the requested format.
func exportAlbum(album models.Album, opts ExportOpts) AlbumExportResult {
	res := AlbumExportResult{AlbumID: album.ID, Title: album.Title}
	base := filepath.Join(opts.OutputDir, formatter.AlbumDirName(album))

	var (
		path string
		data []byte
		err  error
	)
	switch opts.Format {
	case FormatCSV:
		path = base + ".csv"
		data, err = formatter.ExportSheetCSV([]models.Album{album})
	case FormatMarkdown:
		path = filepath.Join(base, "README.md")
		data = formatter.ExportMarkdown(album)
	case FormatText:
		path = base + "_tracks.txt"
		data = formatter.ExportText([]models.Album{album})
	default:
		path = base + ".json"
		data, err = json.MarshalIndent(album, "", "  ")
	}
	if err != nil {
		res.Err = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return res
	}

	if err := formatter.WriteFile(path, data); err != nil {
		res.Err = fmt.Errorf("%s write failed: %w", opts.Format, err)
		return res
	}
	res.Files = []string{path}
	return res
}
