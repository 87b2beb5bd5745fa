package tasks

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"io"
	"net/http"
	"sync"

	"golang.org/x/image/draw"

	"github.com/desertthunder/albumgate/internal/shared"
)

const (
	defaultArtSize = 500
	maxArtBytes    = 10 << 20
)

// coverArt fetches each artwork URL at most once per run and caches the resized JPEG.
type coverArt struct {
	client   *http.Client
	size     int
	albumURL string

	mu      sync.Mutex
	entries map[string]*artEntry
}

type artEntry struct {
	once sync.Once
	data []byte
}

func newCoverArt(client *http.Client, size int, albumURL string) *coverArt {
	return &coverArt{client: client, size: size, albumURL: albumURL, entries: make(map[string]*artEntry)}
}

// get returns the album art, or trackArt when the album has none. report is called once per
// URL with the outcome of the fetch. A nil result means no usable artwork.
func (c *coverArt) get(ctx context.Context, trackArt string, report func(url string, err error)) []byte {
	url := c.albumURL
	if url == "" {
		url = trackArt
	}
	if url == "" {
		return nil
	}

	c.mu.Lock()
	e, ok := c.entries[url]
	if !ok {
		e = &artEntry{}
		c.entries[url] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		data, err := c.fetch(ctx, url)
		if err == nil {
			data, err = resizeCover(data, c.size)
		}
		if report != nil {
			report(url, err)
		}
		if err == nil {
			e.data = data
		}
	})
	return e.data
}

func (c *coverArt) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxArtBytes))
}

// resizeCover scales an image to fit within size x size, preserving the aspect ratio,
// and re-encodes it as JPEG. Smaller images keep their dimensions.
func resizeCover(data []byte, size int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), size)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode artwork: %w", err)
	}
	return buf.Bytes(), nil
}

func fitWithin(width, height, size int) (int, int) {
	if width <= size && height <= size {
		return width, height
	}
	if width >= height {
		return size, max(1, height*size/width)
	}
	return max(1, width*size/height), size
}
