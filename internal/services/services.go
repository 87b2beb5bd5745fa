// package services defines the AlbumSource interface and its implementations:
// published sheet CSV, hosted PostgREST table and the built-in sample catalog
package services

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/albumgate/internal/models"
)

// AlbumSource produces the album catalog. Implementations never hand back a partially built catalog.
type AlbumSource interface {
	// Name identifies the source in status messages (e.g. "csv", "table").
	Name() string

	// FetchAlbums loads every album, keyed by id in source order.
	FetchAlbums(ctx context.Context) (*models.Catalog, error)
}

// AlbumFetcher is implemented by sources that can load one album without the whole catalog.
type AlbumFetcher interface {
	FetchAlbum(ctx context.Context, albumID string) (models.Album, error)
}

// Sheet column names shared by the CSV export and the hosted table.
const (
	ColAlbumID     = "AlbumID"
	ColDomain      = "DOMAIN"
	ColTitle       = "Album Title"
	ColArt         = "Album Art"
	ColTheme       = "Theme"
	ColLock        = "Lock"
	ColDownload    = "Download"
	ColPaymentLink = "Stripe Payment Links"
	ColPrice       = "Price"
)

// TrackColumn returns the column holding track n's audio URL.
func TrackColumn(n int) string { return fmt.Sprintf("Track %d", n) }

// TrackArtColumn returns the column holding track n's artwork URL.
func TrackArtColumn(n int) string { return fmt.Sprintf("Track %d art", n) }

// row is one album record with trimmed values; a missing column reads as "".
type row map[string]string

func (r row) get(col string) string { return strings.TrimSpace(r[col]) }

// albumFromRow maps a sheet row onto an album. It reports false for rows that do not make a
// valid album, such as rows without an id.
func albumFromRow(r row, currency string) (models.Album, bool) {
	id := r.get(ColAlbumID)
	album := models.Album{
		ID:          id,
		Domain:      r.get(ColDomain),
		Title:       r.get(ColTitle),
		AlbumArt:    r.get(ColArt),
		Theme:       models.ParseTheme(r.get(ColTheme)),
		Lock:        strings.EqualFold(r.get(ColLock), "yes"),
		Download:    true,
		PaymentLink: r.get(ColPaymentLink),
	}
	if album.Title == "" {
		album.Title = id
	}
	if v := r.get(ColDownload); v != "" {
		album.Download = strings.EqualFold(v, "yes")
	}
	if price, err := models.ParsePrice(r.get(ColPrice), currency); err == nil {
		album.Price = price
	}

	album.Tracks = tracksFromRow(r)
	if err := album.Validate(); err != nil {
		return models.Album{}, false
	}
	return album, true
}

// tracksFromRow reads the "Track N" columns. Only non-empty cells become tracks, keeping N as the ordinal.
func tracksFromRow(r row) []models.Track {
	var tracks []models.Track
	for n := 1; n <= models.MaxTracks; n++ {
		src := extractURL(r.get(TrackColumn(n)))
		if src == "" {
			continue
		}
		tracks = append(tracks, models.Track{
			ID:       n,
			Title:    TitleFromURL(src),
			Src:      src,
			Art:      r.get(TrackArtColumn(n)),
			Duration: models.DefaultTrackDuration,
		})
	}
	return tracks
}

var urlPattern = regexp.MustCompile(`https?://[^\s)]+`)

// extractURL pulls the first http(s) URL out of a cell such as "Listen: https://x/y.mp3",
// returning the trimmed cell when there is none.
func extractURL(cell string) string {
	if m := urlPattern.FindString(cell); m != "" {
		return m
	}
	return strings.TrimSpace(cell)
}

var (
	audioExt   = regexp.MustCompile(`\.(mp3|wav|ogg)$`)
	whitespace = regexp.MustCompile(`\s+`)
)

// TitleFromURL derives a display title from an audio URL's file name:
// "Te-Moana-Calls.mp3" becomes "Te Moana Calls".
func TitleFromURL(src string) string {
	name := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		name = u.Path
	}
	name = path.Base(name)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" || name == "." || name == "/" {
		return ""
	}

	name = audioExt.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.TrimSpace(whitespace.ReplaceAllString(name, " "))

	words := strings.Split(name, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
