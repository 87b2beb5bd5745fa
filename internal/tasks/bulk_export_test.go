package tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/albumgate/internal/models"
	th "github.com/desertthunder/albumgate/internal/testing"
)

func exportAlbums() []models.Album {
	return []models.Album{
		{ID: "a1", Title: "First Album", Lock: true, Download: true, Price: models.NewPrice(999, "USD"),
			Tracks: []models.Track{{ID: 1, Title: "Intro", Src: "https://example.com/intro.mp3", Duration: 90 * time.Second}}},
		{ID: "a2", Title: "Second Album", Download: true,
			Tracks: []models.Track{{ID: 1, Title: "Outro", Src: "https://example.com/outro.mp3", Duration: 2 * time.Minute}}},
	}
}

func TestExportAlbums(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantFile string
		contains string
	}{
		{name: "json export", format: FormatJSON, wantFile: "First Album.json", contains: `"id": "a1"`},
		{name: "default format is json", format: "", wantFile: "First Album.json", contains: `"title": "First Album"`},
		{name: "csv export", format: FormatCSV, wantFile: "First Album.csv", contains: "AlbumID"},
		{name: "markdown export", format: FormatMarkdown, wantFile: filepath.Join("First Album", "README.md"), contains: "# First Album"},
		{name: "text export", format: FormatText, wantFile: "First Album_tracks.txt", contains: "Intro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			res, err := ExportAlbums(context.Background(), nil, exportAlbums(), ExportOpts{Format: tt.format, OutputDir: dir})
			if err != nil {
				t.Fatalf("ExportAlbums failed: %v", err)
			}
			if res.Succeeded != 2 || res.Failed != 0 || res.Total != 2 {
				t.Errorf("unexpected counts %+v", res)
			}

			path := filepath.Join(dir, tt.wantFile)
			th.AssertFileExists(t, path)
			if content := th.MustReadFile(t, path); !strings.Contains(content, tt.contains) {
				t.Errorf("expected %q in %s, got:\n%s", tt.contains, tt.wantFile, content)
			}
		})
	}
}

func TestExportAlbums_Manifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	progress := make(chan ProgressUpdate, 10)

	res, err := ExportAlbums(context.Background(), progress, exportAlbums(), ExportOpts{Format: FormatText, OutputDir: dir, NumWorkers: 50})
	close(progress)
	if err != nil {
		t.Fatalf("ExportAlbums failed: %v", err)
	}

	th.AssertDirExists(t, dir)
	if res.ManifestPath != filepath.Join(dir, "export_manifest.json") {
		t.Errorf("unexpected manifest path %s", res.ManifestPath)
	}

	var manifest ExportResult
	if err := json.Unmarshal([]byte(th.MustReadFile(t, res.ManifestPath)), &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if manifest.Total != 2 || manifest.Succeeded != 2 || len(manifest.Results) != 2 || manifest.Format != FormatText {
		t.Errorf("unexpected manifest %+v", manifest)
	}

	var exports int
	for u := range progress {
		if u.Phase == ExportAlbum {
			exports++
		}
	}
	if exports != 2 {
		t.Errorf("expected 2 export updates, got %d", exports)
	}
}

func TestExportAlbums_Errors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		if _, err := ExportAlbums(context.Background(), nil, exportAlbums(), ExportOpts{Format: "xml", OutputDir: t.TempDir()}); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("unwritable output is collected per album", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		res, err := ExportAlbums(context.Background(), nil, exportAlbums(), ExportOpts{Format: FormatMarkdown, OutputDir: blocker})
		if err == nil {
			t.Error("expected manifest write to fail")
		}
		if res == nil || res.Failed != 2 {
			t.Fatalf("expected both albums to fail, got %+v", res)
		}
		if res.Results[0].Error == "" {
			t.Error("expected error text in result")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := ExportAlbums(ctx, nil, exportAlbums(), ExportOpts{OutputDir: t.TempDir(), RateLimit: 1}); err == nil {
			t.Error("expected cancellation error")
		}
	})
}
