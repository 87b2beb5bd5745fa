// Built-in sample catalog, used when no source is configured or the configured one fails
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/albumgate/internal/models"
)

const (
	sampleDomain  = "bilingualbeats.ai"
	sampleUploads = "https://bilingualbeats.ai/wp-content/uploads/2025/04/"
	samplePayment = "https://buy.stripe.com/14k7w75i8fGzaIgaEG"
	sampleArt     = "https://via.placeholder.com/300x300?text=Album+Art"
)

var fillerTitles = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten", "Eleven", "Twelve"}

type sampleTrack struct {
	title   string
	file    string
	seconds int
}

// sampleTracks builds a full twelve-track list: the named tracks first, then "Track N" fillers.
func sampleTracks(named []sampleTrack, withArt bool) []models.Track {
	tracks := make([]models.Track, 0, models.MaxTracks)
	for n := 1; n <= models.MaxTracks; n++ {
		t := models.Track{
			ID:       n,
			Title:    "Track " + fillerTitles[n],
			Src:      fmt.Sprintf("https://example.com/track%d.mp3", n),
			Duration: models.DefaultTrackDuration,
		}
		if n <= len(named) {
			t.Title = named[n-1].title
			t.Src = sampleUploads + named[n-1].file
			t.Duration = time.Duration(named[n-1].seconds) * time.Second
		}
		if withArt {
			t.Art = fmt.Sprintf("https://via.placeholder.com/100x100?text=Track+%d", n)
		}
		tracks = append(tracks, t)
	}
	return tracks
}

// SampleAlbums returns the four-album sample catalog.
func SampleAlbums() *models.Catalog {
	return models.NewCatalog(
		models.Album{
			ID:          "album001",
			Domain:      sampleDomain,
			Title:       "Maori and English Bilingual Tribute Album",
			AlbumArt:    sampleArt,
			Theme:       models.ThemeDefault,
			Lock:        true,
			Download:    true,
			PaymentLink: samplePayment,
			Tracks: sampleTracks([]sampleTrack{
				{"Whenua & Home", "Whenua-Home-.mp3", 225},
				{"Te Moana Calls", "Te-Moana-Calls.mp3", 198},
				{"Whānau Ties", "Whanau-Ties.mp3", 210},
				{"Ngahere Groove", "Ngahere-Groove.mp3", 183},
				{"Tūmanako (Hope)", "Tumanako-Hope.mp3", 240},
				{"Aroha Rawa (So Much Love)", "Aroha-Rawa-So-Much-Love.mp3", 195},
			}, true),
		},
		models.Album{
			ID:       "album002",
			Domain:   sampleDomain,
			Title:    "Terrific Toddlers at 2 Mandarin-English Early Learners",
			AlbumArt: sampleArt,
			Theme:    models.ThemeCyberpunk,
			Download: true,
			Tracks: sampleTracks([]sampleTrack{
				{"Terrific Two Year Olds Lets Create", "ENGLISH-MANDARIN-Terrific-Two-Year-Olds-Lets-Create.mp3", 225},
				{"Terrific Two Year Olds Lets Create 1", "ENGLISH-MANDARIN-Terrific-Two-Year-Olds-Lets-Create-1.mp3", 198},
				{"Terrific Two Year Olds Lets Create 2", "ENGLISH-MANDARIN-Terrific-Two-Year-Olds-Lets-Create-2.mp3", 210},
			}, true),
		},
		models.Album{
			ID:       "album003",
			Domain:   sampleDomain,
			Title:    "Getting ready to blitz through School",
			AlbumArt: sampleArt,
			Theme:    models.ThemeNeonSunset,
			Download: true,
			Tracks: sampleTracks([]sampleTrack{
				{"School Ready", "Whenua-Home-.mp3", 225},
				{"Learning Fun", "Te-Moana-Calls.mp3", 198},
			}, false),
		},
		models.Album{
			ID:          "album004",
			Domain:      sampleDomain,
			Title:       "Mandarin English Bilingual ABC",
			Theme:       models.ThemeDigitalOcean,
			Lock:        true,
			Download:    true,
			PaymentLink: samplePayment,
			Tracks: sampleTracks([]sampleTrack{
				{"ABC Song", "Whenua-Home-.mp3", 225},
				{"Numbers Fun", "Te-Moana-Calls.mp3", 198},
			}, false),
		},
	)
}

// SampleSource serves [SampleAlbums].
type SampleSource struct{}

// Name returns the source name.
func (SampleSource) Name() string { return "sample" }

// FetchAlbums returns a fresh copy of the sample catalog.
func (SampleSource) FetchAlbums(ctx context.Context) (*models.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return SampleAlbums(), nil
}
