package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/services"
	"github.com/desertthunder/albumgate/internal/shared"
	"github.com/desertthunder/albumgate/internal/tasks"
	th "github.com/desertthunder/albumgate/internal/testing"
)

type fakeDownloader struct {
	calls     int
	downloads []gate.Download
	lengths   map[int]time.Duration
	err       error
}

func (f *fakeDownloader) Run(ctx context.Context, album models.Album, downloads []gate.Download, progress chan<- tasks.ProgressUpdate) (*tasks.DownloadResult, error) {
	f.calls++
	f.downloads = downloads
	if f.err != nil {
		return nil, f.err
	}

	result := &tasks.DownloadResult{AlbumID: album.ID, Directory: "out/" + album.Title}
	for i, d := range downloads {
		progress <- tasks.ProgressUpdate{Phase: tasks.DownloadTrack, Step: i + 1, Total: len(downloads), Message: d.FileName}
		result.Files = append(result.Files, tasks.FileResult{Download: d, Path: d.FileName, Duration: f.lengths[d.Track.ID]})
		result.Succeeded++
	}
	return result, nil
}

type failingCatalog struct{ err error }

func (f failingCatalog) Albums(context.Context) (*models.Catalog, error) { return nil, f.err }
func (f failingCatalog) Status() services.Status                        { return services.Status{} }

func testAlbums() []models.Album {
	return []models.Album{
		{
			ID: "album001", Title: "Neon Dreams", Theme: models.ThemeCyberpunk,
			Lock: true, Download: true, PaymentLink: "https://pay.example.com/neon",
			Price: models.NewPrice(999, "USD"),
			Tracks: []models.Track{
				{ID: 1, Title: "Intro", Src: "https://cdn.example.com/1.mp3", Duration: 225 * time.Second},
				{ID: 2, Title: "Outro", Src: "https://cdn.example.com/2.mp3", Duration: 200 * time.Second},
				{ID: 3, Title: "Silent", Duration: 60 * time.Second},
			},
		},
		{
			ID: "album002", Title: "Open Air", Theme: models.ThemeDigitalOcean,
			Lock: false, Download: false,
			Tracks: []models.Track{
				{ID: 1, Title: "Breeze", Src: "https://cdn.example.com/b.mp3", Duration: 90 * time.Second},
			},
		},
		{
			ID: "album003", Title: "No Link", Lock: true, Download: true,
			Tracks: []models.Track{
				{ID: 1, Title: "Only", Src: "https://cdn.example.com/o.mp3", Duration: 120 * time.Second},
			},
		},
	}
}

type harness struct {
	m      *Model
	store  *gate.MemoryStore
	deck   *gate.Deck
	opener *th.MockOpener
	dl     *fakeDownloader
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		store:  gate.NewMemoryStore(),
		deck:   gate.NewDeck(),
		opener: &th.MockOpener{},
		dl:     &fakeDownloader{},
	}
	g := gate.New(h.store, h.deck, gate.Options{})
	catalog := services.NewCatalog(th.NewMockSource("mock", th.MockResult{Albums: testAlbums()}), nil)

	if opts.Open == nil {
		opts.Open = h.opener.Open
	}
	h.m = NewModel(context.Background(), catalog, g, h.deck, h.dl, opts)
	t.Cleanup(h.m.Close)

	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.send(h.m.loadAlbums()())
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.m.Update(msg)
	return cmd
}

func (h *harness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = h.send(keyMsg(k))
	}
	return cmd
}

func (h *harness) ticks(n int) {
	for range n {
		h.send(tickMsg(time.Now()))
	}
}

// openAlbum moves the album list cursor to index and enters the album.
func (h *harness) openAlbum(index int) {
	for range index {
		h.press("down")
	}
	h.press("enter")
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func TestModel_Albums(t *testing.T) {
	t.Run("lists albums after loading", func(t *testing.T) {
		h := newHarness(t, Options{})

		view := h.m.View()
		for _, want := range []string{"Neon Dreams", "Open Air", "$9.99", "free", "Loaded 3 albums from mock"} {
			if !strings.Contains(view, want) {
				t.Errorf("album list missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("shows loading before albums arrive", func(t *testing.T) {
		g := gate.New(gate.NewMemoryStore(), gate.NewDeck(), gate.Options{})
		m := NewModel(context.Background(), services.NewCatalog(nil, nil), g, gate.NewDeck(), nil, Options{})

		if !strings.Contains(m.View(), "Loading albums") {
			t.Errorf("expected loading view, got %q", m.View())
		}
	})

	t.Run("source errors are fatal", func(t *testing.T) {
		g := gate.New(gate.NewMemoryStore(), gate.NewDeck(), gate.Options{})
		m := NewModel(context.Background(), failingCatalog{err: shared.ErrSourceUnavailable}, g, gate.NewDeck(), nil, Options{})
		m.Update(m.loadAlbums()())

		if !strings.Contains(m.View(), "Error:") {
			t.Errorf("expected error view, got %q", m.View())
		}
		if _, cmd := m.Update(keyMsg("q")); cmd == nil {
			t.Error("expected quit command")
		}
	})

	t.Run("fallback is reported as a warning", func(t *testing.T) {
		g := gate.New(gate.NewMemoryStore(), gate.NewDeck(), gate.Options{})
		source := th.NewMockSource("csv", th.MockResult{Err: shared.ErrSourceUnavailable})
		m := NewModel(context.Background(), services.NewCatalog(source, nil), g, gate.NewDeck(), nil, Options{})
		m.Update(m.loadAlbums()())

		if m.status.level != statusWarn || !strings.Contains(m.status.text, "sample albums") {
			t.Errorf("unexpected status %+v", m.status)
		}
		if m.albums.Len() != 4 {
			t.Errorf("expected 4 sample albums, got %d", m.albums.Len())
		}
	})
}

func TestModel_Playback(t *testing.T) {
	t.Run("preview stops at the limit", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)

		if h.m.view != TrackView {
			t.Fatalf("expected track view, got %v", h.m.view)
		}
		if !strings.Contains(h.m.View(), "PREVIEW MODE - 30 SEC") {
			t.Errorf("expected preview banner:\n%s", h.m.View())
		}

		h.press("enter")
		if !h.m.session.Playing(1) || !h.deck.IsPlaying(1) {
			t.Fatal("expected track 1 to play")
		}

		h.ticks(29)
		if !h.m.session.Playing(1) {
			t.Fatal("track cut before the limit")
		}

		h.ticks(1)
		if h.m.session.Playing(1) || h.deck.IsPlaying(1) {
			t.Error("expected track to stop at the limit")
		}
		if got := h.m.session.Position(1); got != 0 {
			t.Errorf("expected rewind to 0, got %v", got)
		}
		if h.m.status.text != PreviewEndedMessage {
			t.Errorf("expected preview ended status, got %q", h.m.status.text)
		}
		if h.m.pulse != pulseTicks {
			t.Errorf("expected pulse %d, got %d", pulseTicks, h.m.pulse)
		}

		h.ticks(pulseTicks)
		if h.m.pulse != 0 {
			t.Errorf("expected pulse to decay, got %d", h.m.pulse)
		}
	})

	t.Run("space toggles pause", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)

		h.press(" ")
		h.ticks(5)
		h.press(" ")

		if h.m.session.Playing(1) {
			t.Error("expected track paused")
		}
		if got := h.m.session.Position(1); got != 5*time.Second {
			t.Errorf("expected position kept at 5s, got %v", got)
		}
		if !strings.Contains(h.m.status.text, "Paused Intro at 0:05") {
			t.Errorf("unexpected status %q", h.m.status.text)
		}
	})

	t.Run("one track at a time", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)

		h.press("enter")
		h.ticks(3)
		h.press("down", "enter")

		if h.deck.PlayingCount() != 1 || !h.deck.IsPlaying(2) {
			t.Errorf("expected only track 2 playing, count=%d", h.deck.PlayingCount())
		}
		if got := h.m.session.Position(1); got != 0 {
			t.Errorf("expected preempted track rewound, got %v", got)
		}
	})

	t.Run("track without audio", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)

		h.press("down", "down", "enter")
		if want := `No audio file available for "Silent"`; h.m.status.text != want {
			t.Errorf("expected %q, got %q", want, h.m.status.text)
		}
		if h.m.status.level != statusErr {
			t.Error("expected error status")
		}
	})

	t.Run("free album plays past the preview", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(1)

		if !strings.Contains(h.m.View(), "FULL ACCESS") {
			t.Errorf("expected full access banner:\n%s", h.m.View())
		}

		h.press("enter")
		h.ticks(45)
		if !h.m.session.Playing(1) {
			t.Error("expected free track to keep playing")
		}
		if h.store.Reads() != 0 {
			t.Errorf("free album should not read the store, got %d reads", h.store.Reads())
		}

		h.ticks(45)
		if h.m.session.Playing(1) {
			t.Error("expected track to end")
		}
		if !strings.Contains(h.m.status.text, "Breeze finished") {
			t.Errorf("unexpected status %q", h.m.status.text)
		}
	})

	t.Run("esc pauses and returns to albums", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)
		h.press("enter")
		h.ticks(2)
		h.press("esc")

		if h.m.view != AlbumListView || h.m.session != nil {
			t.Errorf("expected album list without a session, view=%v", h.m.view)
		}
		if h.deck.PlayingCount() != 0 {
			t.Error("expected deck to be silent")
		}

		h.ticks(1)
	})
}

func TestModel_Purchase(t *testing.T) {
	t.Run("opens the payment link and unlocks on confirm", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)

		cmd := h.press("p")
		if h.m.view != ConfirmPurchaseView {
			t.Fatalf("expected confirm view, got %v", h.m.view)
		}
		if cmd == nil {
			t.Fatal("expected a command opening the payment link")
		}
		h.send(cmd())

		if links := h.opener.Opened(); len(links) != 1 || links[0] != "https://pay.example.com/neon" {
			t.Errorf("unexpected links %v", links)
		}
		if !strings.Contains(h.m.View(), "Buy Full Album for $9.99") {
			t.Errorf("expected purchase label:\n%s", h.m.View())
		}

		h.press("y")
		if h.m.view != TrackView || !h.m.session.Purchased() {
			t.Fatal("expected unlocked session in track view")
		}
		if h.store.Token("album001") == "" {
			t.Error("expected a persisted purchase token")
		}
		if h.m.status.text != "✓ Full access unlocked" {
			t.Errorf("unexpected status %q", h.m.status.text)
		}

		h.press("enter")
		h.ticks(40)
		if !h.m.session.Playing(1) {
			t.Error("expected purchased track to play past the preview")
		}

		h.press("p")
		if h.m.view != TrackView {
			t.Error("purchasing twice should not prompt")
		}
	})

	t.Run("declining keeps the album locked", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)
		h.press("p", "n")

		if h.m.view != TrackView || h.m.session.Purchased() {
			t.Error("expected locked session")
		}
		if h.m.status.text != "Purchase cancelled" {
			t.Errorf("unexpected status %q", h.m.status.text)
		}
	})

	t.Run("album without a payment link", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(2)

		if cmd := h.press("p"); cmd != nil {
			t.Error("expected no link to open")
		}
		if !strings.Contains(h.m.View(), "would normally redirect") {
			t.Errorf("unexpected confirm view:\n%s", h.m.View())
		}
	})

	t.Run("opener failure becomes a warning", func(t *testing.T) {
		opener := &th.MockOpener{Err: errors.New("no browser")}
		h := newHarness(t, Options{Open: opener.Open})
		h.openAlbum(0)

		h.send(h.press("p")())
		if !strings.Contains(h.m.status.text, "Could not open the payment page") {
			t.Errorf("unexpected status %q", h.m.status.text)
		}
	})
}

func TestModel_Downloads(t *testing.T) {
	t.Run("locked albums cannot download", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)

		if cmd := h.press("d"); cmd != nil {
			t.Error("expected no download")
		}
		if h.m.status.text != "Purchase the album to download tracks" {
			t.Errorf("unexpected status %q", h.m.status.text)
		}
	})

	t.Run("download disabled", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(1)

		h.press("D")
		if h.m.status.text != "Downloads are disabled for this album" {
			t.Errorf("unexpected status %q", h.m.status.text)
		}
		if h.dl.calls != 0 {
			t.Error("downloader should not run")
		}
	})

	t.Run("download all after purchase", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)
		h.press("p", "y")

		cmd := h.press("D")
		if h.m.view != DownloadView || !h.m.downloading {
			t.Fatalf("expected download view, got %v", h.m.view)
		}

		for cmd != nil {
			cmd = h.send(cmd())
		}

		if h.m.downloading {
			t.Error("expected download to finish")
		}
		if len(h.dl.downloads) != 2 {
			t.Errorf("expected the two tracks with audio, got %d", len(h.dl.downloads))
		}
		if want := "✓ Downloaded 2 files to out/Neon Dreams"; h.m.status.text != want {
			t.Errorf("expected %q, got %q", want, h.m.status.text)
		}

		h.press("esc")
		if h.m.view != TrackView {
			t.Error("expected esc to return to tracks")
		}
	})

	t.Run("downloaded files refine track lengths", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.dl.lengths = map[int]time.Duration{1: 4*time.Minute + 5*time.Second}
		h.openAlbum(0)
		h.press("p", "y")

		cmd := h.press("D")
		for cmd != nil {
			cmd = h.send(cmd())
		}

		if got := h.m.session.Duration(1); got != 4*time.Minute+5*time.Second {
			t.Errorf("expected the file's length to replace the estimate, got %v", got)
		}
		if got := h.m.session.Duration(2); got != 200*time.Second {
			t.Errorf("expected track 2 to keep its length, got %v", got)
		}
	})

	t.Run("single track without audio", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.openAlbum(0)
		h.press("p", "y", "down", "down", "d")

		if want := `No audio file available for "Silent"`; h.m.status.text != want {
			t.Errorf("expected %q, got %q", want, h.m.status.text)
		}
	})

	t.Run("failed download", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.dl.err = shared.ErrSourceUnavailable
		h.openAlbum(0)
		h.press("p", "y")

		cmd := h.press("d")
		for cmd != nil {
			cmd = h.send(cmd())
		}
		if h.m.status.level != statusErr || !strings.Contains(h.m.status.text, "Download failed") {
			t.Errorf("unexpected status %+v", h.m.status)
		}
	})
}

func TestModel_Themes(t *testing.T) {
	t.Run("album theme with cycling", func(t *testing.T) {
		h := newHarness(t, Options{})
		if h.m.theme != models.ThemeDefault {
			t.Errorf("expected default theme on the album list, got %s", h.m.theme)
		}

		h.openAlbum(0)
		if h.m.theme != models.ThemeCyberpunk {
			t.Errorf("expected album theme, got %s", h.m.theme)
		}

		h.press("t")
		if h.m.theme != models.ThemeNeonSunset {
			t.Errorf("expected next theme, got %s", h.m.theme)
		}
		if h.m.palette != PaletteFor(models.ThemeNeonSunset) {
			t.Error("palette did not follow the theme")
		}
		if h.m.status.text != "Theme: neon-sunset" {
			t.Errorf("unexpected status %q", h.m.status.text)
		}

		h.press("esc")
		if h.m.theme != models.ThemeDefault {
			t.Errorf("expected default theme after leaving, got %s", h.m.theme)
		}
	})

	t.Run("forced theme", func(t *testing.T) {
		h := newHarness(t, Options{Theme: models.ThemeNeonSunset})
		h.openAlbum(1)
		if h.m.theme != models.ThemeNeonSunset {
			t.Errorf("expected forced theme, got %s", h.m.theme)
		}
	})

	t.Run("unknown theme uses the default palette", func(t *testing.T) {
		if PaletteFor(models.Theme("theme-vaporwave")) != PaletteFor(models.ThemeDefault) {
			t.Error("expected default palette")
		}
	})
}
