// package formatter renders album data for people and files: play times, download file names
// and catalog exports (sheet CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/albumgate/internal/models"
)

// FormatTime renders a position or duration as m:ss. Negative values render as 0:00.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ParseTime reads "m:ss" (or a bare number of seconds) into a duration.
func ParseTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}

	minutes, seconds, found := strings.Cut(s, ":")
	if !found {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}

	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("invalid minutes in %q", s)
	}
	sec, err := strconv.Atoi(seconds)
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid seconds in %q", s)
	}
	return time.Duration(m*60+sec) * time.Second, nil
}

// TrackNumber zero-pads a track ordinal to two digits.
func TrackNumber(id int) string {
	return fmt.Sprintf("%02d", id)
}

var unsafeName = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "\x00", "")

// TrackFileName is the name a downloaded track is saved under, e.g. "03 - Night Drive.mp3".
func TrackFileName(t models.Track) string {
	title := strings.TrimSpace(unsafeName.Replace(t.Title))
	if title == "" {
		title = "Track"
	}
	return fmt.Sprintf("%s - %s.mp3", TrackNumber(t.ID), title)
}

// AlbumDirName is the directory an album's downloads are grouped under.
func AlbumDirName(a models.Album) string {
	name := strings.TrimSpace(unsafeName.Replace(a.Title))
	if name == "" || name == "." || name == ".." {
		name = a.ID
	}
	return name
}

// SheetHeaders returns the column layout of the published album sheet.
func SheetHeaders() []string {
	headers := []string{"AlbumID", "DOMAIN", "Album Title", "Album Art", "Theme", "Lock", "Download", "Stripe Payment Links", "Price"}
	for i := 1; i <= models.MaxTracks; i++ {
		headers = append(headers, fmt.Sprintf("Track %d", i))
	}
	for i := 1; i <= models.MaxTracks; i++ {
		headers = append(headers, fmt.Sprintf("Track %d art", i))
	}
	return headers
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ExportSheetCSV writes albums back into the sheet layout so the result can be served as a CSV source.
//
// Tracks are placed in the column matching their ordinal; ordinals beyond [models.MaxTracks] are dropped.
func ExportSheetCSV(albums []models.Album) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(SheetHeaders()); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range albums {
		record := []string{
			a.ID,
			a.Domain,
			a.Title,
			a.AlbumArt,
			string(a.Theme),
			yesNo(a.Lock),
			yesNo(a.Download),
			a.PaymentLink,
			a.Price.Sheet(),
		}

		srcs := make([]string, models.MaxTracks)
		arts := make([]string, models.MaxTracks)
		for _, t := range a.Tracks {
			if t.ID < 1 || t.ID > models.MaxTracks {
				continue
			}
			srcs[t.ID-1] = t.Src
			arts[t.ID-1] = t.Art
		}
		record = append(record, srcs...)
		record = append(record, arts...)

		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func accessLabel(a models.Album) string {
	if a.Lock {
		return "locked (30s previews)"
	}
	return "free"
}

// ExportMarkdown renders one album as a Markdown document with an optional cover image.
func ExportMarkdown(a models.Album) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", a.Title)
	if a.AlbumArt != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", a.AlbumArt)
	}

	fmt.Fprintf(&buf, "**ID**: %s\n", a.ID)
	if a.Domain != "" {
		fmt.Fprintf(&buf, "**Domain**: %s\n", a.Domain)
	}
	fmt.Fprintf(&buf, "**Theme**: %s\n", a.Theme.Name())
	fmt.Fprintf(&buf, "**Access**: %s\n", accessLabel(a))
	if !a.Price.IsZero() {
		fmt.Fprintf(&buf, "**Price**: %s\n", a.Price.Display())
	}
	if a.PaymentLink != "" {
		fmt.Fprintf(&buf, "**Purchase**: [%s](%s)\n", a.PurchaseLabel(), a.PaymentLink)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d (%s)\n\n", len(a.Tracks), FormatTime(a.TotalDuration()))

	buf.WriteString("## Tracks\n\n")
	for _, t := range a.Tracks {
		fmt.Fprintf(&buf, "%d. %s [%s]\n", t.ID, t.Title, FormatTime(t.Duration))
	}

	return buf.Bytes()
}

// ExportText renders albums as a plain text listing.
func ExportText(albums []models.Album) []byte {
	var buf bytes.Buffer

	for i, a := range albums {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "Album: %s (%s)\n", a.Title, a.ID)
		fmt.Fprintf(&buf, "Access: %s\n", accessLabel(a))
		fmt.Fprintf(&buf, "Tracks: %d\n", len(a.Tracks))
		for _, t := range a.Tracks {
			fmt.Fprintf(&buf, "  %s. %s (%s)\n", TrackNumber(t.ID), t.Title, FormatTime(t.Duration))
		}
	}

	return buf.Bytes()
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
