// package tasks implements the long-running jobs behind purchased albums: downloading
// tracks to disk and exporting album metadata.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/albumgate/internal/formatter"
	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
)

const (
	defaultConcurrency = 2
	maxConcurrency     = 8
	defaultRetries     = 2
	retryCooldown      = 500 * time.Millisecond
)

// DownloadOpts configures a [Downloader].
type DownloadOpts struct {
	OutputDir   string        // Base directory; each album gets its own sub-directory
	Concurrency int           // Parallel downloads (default 2, max 8)
	Stagger     time.Duration // Minimum gap between download starts; zero disables it
	Tag         bool          // Write ID3 tags and cover art after each download
	MaxRetries  int           // Attempts per file (default 2)
	ArtSize     int           // Cover art bounding box in pixels (default 500)
}

// FileResult is the outcome of a single track download.
type FileResult struct {
	Download gate.Download
	Path     string
	Bytes    int64
	Tagged   bool
	Duration time.Duration // Length declared by the file's own tags, zero when unknown
	Err      error
}

// DownloadResult summarizes a [Downloader.Run].
type DownloadResult struct {
	AlbumID   string
	Directory string
	Files     []FileResult // In the order the downloads were given
	Succeeded int
	Failed    int
}

// Failures returns the failed files.
func (r *DownloadResult) Failures() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Downloader fetches permitted tracks for an album.
//
// It never decides what may be downloaded: callers pass the downloads a [gate.Gate] handed out.
type Downloader struct {
	opts       DownloadOpts
	httpClient *http.Client
	logger     *log.Logger

	receivedBytes int64
}

// NewDownloader creates a downloader. A nil client uses [http.DefaultClient].
func NewDownloader(opts DownloadOpts, client *http.Client, logger *log.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "downloads"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	opts.Concurrency = min(opts.Concurrency, maxConcurrency)
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.ArtSize <= 0 {
		opts.ArtSize = defaultArtSize
	}
	return &Downloader{opts: opts, httpClient: client, logger: logger}
}

// ReceivedBytes reports the bytes written to disk across every run.
func (d *Downloader) ReceivedBytes() int64 {
	return atomic.LoadInt64(&d.receivedBytes)
}

// Run downloads each item into <OutputDir>/<album title>/.
//
// A failed file is recorded in the result and does not stop the others; only a directory
// that cannot be created or a cancelled context returns an error.
func (d *Downloader) Run(ctx context.Context, album models.Album, downloads []gate.Download, progress chan<- ProgressUpdate) (*DownloadResult, error) {
	dir := filepath.Join(d.opts.OutputDir, formatter.AlbumDirName(album))
	result := &DownloadResult{
		AlbumID:   album.ID,
		Directory: dir,
		Files:     make([]FileResult, len(downloads)),
	}
	if len(downloads) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	sendProgress(progress, prepareUpdate(len(downloads), dir))

	var art *coverArt
	if d.opts.Tag {
		art = newCoverArt(d.httpClient, d.opts.ArtSize, album.AlbumArt)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if d.opts.Stagger > 0 {
		limiter = rate.NewLimiter(rate.Every(d.opts.Stagger), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)

	var completed, succeeded int32
	for i, dl := range downloads {
		if err := limiter.Wait(gctx); err != nil {
			break
		}

		g.Go(func() error {
			res := d.downloadOne(gctx, album, dl, dir, art, progress)
			result.Files[i] = res

			step := int(atomic.AddInt32(&completed, 1))
			if res.Err != nil {
				d.logger.Warn("download failed", "album", album.ID, "track", dl.Track.ID, "error", res.Err)
				sendProgress(progress, trackFailedUpdate(step, len(downloads), res))
				return nil
			}
			atomic.AddInt32(&succeeded, 1)
			sendProgress(progress, trackDoneUpdate(step, len(downloads), res))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Succeeded = int(succeeded)
	result.Failed = len(downloads) - result.Succeeded
	for i := range result.Files {
		if result.Files[i].Download.URL == "" && result.Files[i].Err == nil {
			result.Files[i] = FileResult{Download: downloads[i], Err: fmt.Errorf("download not started")}
		}
	}

	d.logger.Info("album download finished", "album", album.ID, "succeeded", result.Succeeded, "failed", result.Failed)
	sendProgress(progress, completeUpdate(result.Succeeded, result.Failed))
	return result, nil
}

func (d *Downloader) downloadOne(ctx context.Context, album models.Album, dl gate.Download, dir string, art *coverArt, progress chan<- ProgressUpdate) FileResult {
	res := FileResult{Download: dl, Path: filepath.Join(dir, dl.FileName)}

	var err error
	for tries := range d.opts.MaxRetries {
		res.Bytes, err = d.fetchFile(ctx, dl.URL, res.Path)
		if err == nil || ctx.Err() != nil || tries == d.opts.MaxRetries-1 {
			break
		}
		d.logger.Debug("retrying download", "file", dl.FileName, "attempt", tries+1, "error", err)
		d.waitForRetry(ctx, tries)
	}
	if err != nil {
		res.Err = err
		return res
	}
	atomic.AddInt64(&d.receivedBytes, res.Bytes)

	if art != nil {
		cover := art.get(ctx, dl.Track.Art, func(url string, err error) {
			sendProgress(progress, artworkUpdate(url, err))
		})
		if err := writeTags(res.Path, album, dl.Track, cover); err != nil {
			sendProgress(progress, tagFailedUpdate(dl.FileName, err))
		} else {
			res.Tagged = true
		}
	}

	if length, err := TrackLength(res.Path); err != nil {
		d.logger.Debug("no readable length", "file", dl.FileName, "error", err)
	} else {
		res.Duration = length
	}
	return res
}

// fetchFile streams url into a temporary file next to dest and renames it into place.
func (d *Downloader) fetchFile(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: HTTP %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".part-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", filepath.Base(dest), err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("failed to move %s into place: %w", filepath.Base(dest), err)
	}
	return n, nil
}

func (d *Downloader) waitForRetry(ctx context.Context, tries int) {
	cooldown := time.Duration(float64(retryCooldown) * math.Pow(2, float64(tries)))
	select {
	case <-ctx.Done():
	case <-time.After(cooldown):
	}
}
