package gate

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
)

type recorder struct {
	events []Event
}

func (r *recorder) Notify(e Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []EventKind {
	kinds := make([]EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (r *recorder) count(k EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func (r *recorder) reset() { r.events = nil }

type failingStore struct {
	*MemoryStore
	failRead, failWrite bool
}

func (s *failingStore) Purchased(albumID string) (bool, error) {
	if s.failRead {
		return false, fmt.Errorf("disk on fire")
	}
	return s.MemoryStore.Purchased(albumID)
}

func (s *failingStore) Record(albumID, token string) error {
	if s.failWrite {
		return fmt.Errorf("read-only")
	}
	return s.MemoryStore.Record(albumID, token)
}

func testAlbum(lock bool) models.Album {
	return models.Album{
		ID:       "album001",
		Title:    "Tribute",
		Lock:     lock,
		Download: true,
		Tracks: []models.Track{
			{ID: 1, Title: "First Light", Src: "https://example.com/first-light.mp3", Duration: 225 * time.Second},
			{ID: 2, Title: "Second Wind", Src: "https://example.com/second-wind.mp3", Duration: 198 * time.Second},
			{ID: 3, Title: "Short", Src: "https://example.com/short.ogg", Duration: 20 * time.Second},
		},
	}
}

func newTestGate(store PurchaseStore, reset bool) (*Gate, *Deck, *recorder) {
	deck := NewDeck()
	g := New(store, deck, Options{ResetOnLoad: reset, Now: func() time.Time { return time.UnixMilli(1700000000000) }})
	rec := &recorder{}
	g.Subscribe(rec)
	return g, deck, rec
}

func TestLoadAlbum(t *testing.T) {
	t.Run("locked album without a record starts in preview", func(t *testing.T) {
		store := NewMemoryStore()
		g, _, rec := newTestGate(store, false)

		s := g.LoadAlbum(testAlbum(true))
		if s.Purchased() || s.State() != LockedPreview {
			t.Errorf("expected LOCKED_PREVIEW, got %s", s.State())
		}
		if store.Reads() != 1 {
			t.Errorf("expected one store lookup, got %d", store.Reads())
		}
		if len(rec.events) != 0 {
			t.Errorf("expected no events, got %v", rec.kinds())
		}
	})

	t.Run("unlocked album skips the store and announces access", func(t *testing.T) {
		store := NewMemoryStore()
		g, _, rec := newTestGate(store, true)

		s := g.LoadAlbum(testAlbum(false))
		if !s.Purchased() || s.State() != Unlocked {
			t.Errorf("expected UNLOCKED, got %s", s.State())
		}
		if store.Reads() != 0 {
			t.Errorf("expected no store lookup, got %d", store.Reads())
		}
		if rec.count(AccessUnlocked) != 1 {
			t.Errorf("expected AccessUnlocked on load, got %v", rec.kinds())
		}
	})

	t.Run("existing record unlocks a locked album when reset is off", func(t *testing.T) {
		store := NewMemoryStore()
		_ = store.Record("album001", "purchased-1")
		g, _, _ := newTestGate(store, false)

		if s := g.LoadAlbum(testAlbum(true)); !s.Purchased() {
			t.Error("expected persisted record to unlock album")
		}
	})

	t.Run("reset on load clears the incoming record", func(t *testing.T) {
		store := NewMemoryStore()
		_ = store.Record("album001", "purchased-1")
		_ = store.Record("album002", "purchased-2")
		g, _, _ := newTestGate(store, true)

		if s := g.LoadAlbum(testAlbum(true)); s.Purchased() {
			t.Error("expected reset to relock the album")
		}
		if store.Token("album001") != "" {
			t.Error("expected record for incoming album to be cleared")
		}
		if store.Token("album002") == "" {
			t.Error("records of other albums must survive")
		}
	})

	t.Run("empty token is not a purchase", func(t *testing.T) {
		store := NewMemoryStore()
		_ = store.Record("album001", "")
		g, _, _ := newTestGate(store, false)

		if s := g.LoadAlbum(testAlbum(true)); s.Purchased() {
			t.Error("empty token should not unlock")
		}
	})

	t.Run("store failure leaves the album locked", func(t *testing.T) {
		store := &failingStore{MemoryStore: NewMemoryStore(), failRead: true}
		g, _, _ := newTestGate(store, false)

		if s := g.LoadAlbum(testAlbum(true)); s.Purchased() {
			t.Error("expected lookup failure to keep album locked")
		}
	})

	t.Run("loading resets purchased from lock before the record", func(t *testing.T) {
		store := NewMemoryStore()
		g, _, _ := newTestGate(store, true)

		free := g.LoadAlbum(testAlbum(false))
		if !free.Purchased() {
			t.Fatal("expected free album to start purchased")
		}

		locked := g.LoadAlbum(testAlbum(true))
		if locked.Purchased() {
			t.Error("a new locked album must not inherit the previous album's access")
		}
		if locked.ID == free.ID {
			t.Error("expected distinct session ids")
		}
	})
}

func TestPreviewLimit(t *testing.T) {
	t.Run("locked track is cut at exactly the limit and rewound", func(t *testing.T) {
		g, deck, rec := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(true))

		if err := g.Play(s, 1); err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		if g.OnTimeUpdate(s, 1, 29*time.Second+999*time.Millisecond) {
			t.Fatal("cut before the limit")
		}
		if s.Position(1) != 29*time.Second+999*time.Millisecond {
			t.Errorf("position not recorded: %v", s.Position(1))
		}

		rec.reset()
		if !g.OnTimeUpdate(s, 1, 30*time.Second) {
			t.Fatal("expected cut at 30s")
		}
		if s.Position(1) != 0 || deck.Position(1) != 0 {
			t.Errorf("expected rewind to 0, got session=%v deck=%v", s.Position(1), deck.Position(1))
		}
		if deck.IsPlaying(1) {
			t.Error("expected output paused")
		}
		if _, ok := s.Active(); ok {
			t.Error("expected no active track")
		}

		kinds := rec.kinds()
		if len(kinds) != 2 || kinds[0] != TrackStopped || kinds[1] != PreviewExpired {
			t.Fatalf("expected [TrackStopped PreviewExpired], got %v", kinds)
		}
		if rec.events[0].Reason != StopPreviewLimit {
			t.Errorf("expected preview limit reason, got %s", rec.events[0].Reason)
		}
		if rec.events[1].Track == nil || rec.events[1].Track.ID != 1 {
			t.Error("PreviewExpired must carry the track")
		}
	})

	t.Run("overshooting ticks are cut too", func(t *testing.T) {
		g, _, _ := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(true))
		_ = g.Play(s, 2)

		if !g.OnTimeUpdate(s, 2, 31500*time.Millisecond) {
			t.Error("expected cut past the limit")
		}
	})

	t.Run("purchased album plays uncut to the natural end", func(t *testing.T) {
		g, _, rec := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(false))
		_ = g.Play(s, 1)

		for pos := time.Duration(0); pos <= 225*time.Second; pos += time.Second {
			if g.OnTimeUpdate(s, 1, pos) {
				t.Fatalf("unexpected cut at %v", pos)
			}
		}
		g.OnEnded(s, 1)

		if rec.count(PreviewExpired) != 0 {
			t.Error("purchased playback must never expire")
		}
		last := rec.events[len(rec.events)-1]
		if last.Kind != TrackStopped || last.Reason != StopEnded {
			t.Errorf("expected ended stop, got %v/%s", last.Kind, last.Reason)
		}
		if s.Position(1) != 0 {
			t.Error("expected rewind after natural end")
		}
	})

	t.Run("custom limit", func(t *testing.T) {
		g := New(NewMemoryStore(), NewDeck(), Options{PreviewLimit: 10 * time.Second})
		s := g.LoadAlbum(testAlbum(true))
		_ = g.Play(s, 1)

		if !g.OnTimeUpdate(s, 1, 10*time.Second) {
			t.Error("expected cut at custom limit")
		}
		if g.PreviewLimit() != 10*time.Second {
			t.Errorf("unexpected limit %v", g.PreviewLimit())
		}
	})

	t.Run("unknown track is ignored", func(t *testing.T) {
		g, _, rec := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(true))
		if g.OnTimeUpdate(s, 99, time.Minute) {
			t.Error("unexpected cut for unknown track")
		}
		if len(rec.events) != 0 {
			t.Errorf("unexpected events %v", rec.kinds())
		}
	})
}

func TestMutualExclusion(t *testing.T) {
	t.Run("starting a track stops and rewinds the active one", func(t *testing.T) {
		g, deck, rec := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(false))

		_ = g.Play(s, 1)
		g.OnTimeUpdate(s, 1, 42*time.Second)
		rec.reset()

		if err := g.Play(s, 2); err != nil {
			t.Fatalf("Play failed: %v", err)
		}

		kinds := rec.kinds()
		if len(kinds) != 2 || kinds[0] != TrackStopped || kinds[1] != TrackStarted {
			t.Fatalf("expected stop before start, got %v", kinds)
		}
		if rec.events[0].Reason != StopPreempted || rec.events[0].Position != 42*time.Second {
			t.Errorf("unexpected stop event %+v", rec.events[0])
		}
		if s.Position(1) != 0 || deck.IsPlaying(1) {
			t.Error("preempted track must be paused and rewound")
		}
		if !s.Playing(2) || s.Playing(1) {
			t.Error("expected only track 2 active")
		}
	})

	t.Run("at most one track plays across any sequence of operations", func(t *testing.T) {
		g, deck, _ := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(true))

		ops := []func(){
			func() { _ = g.Play(s, 1) },
			func() { _ = g.Play(s, 2) },
			func() { _ = g.Toggle(s, 3) },
			func() { _ = g.Play(s, 1) },
			func() { g.OnTimeUpdate(s, 1, 30*time.Second) },
			func() { _ = g.Toggle(s, 2) },
			func() { _ = g.Toggle(s, 2) },
			func() { _ = g.Play(s, 3) },
			func() { g.OnEnded(s, 3) },
			func() { _ = g.Play(s, 2) },
		}
		for i, op := range ops {
			op()
			if n := deck.PlayingCount(); n > 1 {
				t.Fatalf("after op %d: %d tracks playing", i, n)
			}
			active := 0
			for _, tr := range s.Tracks() {
				if s.Playing(tr.ID) {
					active++
				}
			}
			if active > 1 {
				t.Fatalf("after op %d: %d tracks active", i, active)
			}
		}
		if deck.Peak() != 1 {
			t.Errorf("expected peak of 1 playing track, got %d", deck.Peak())
		}
	})

	t.Run("playing the active track again is a no-op", func(t *testing.T) {
		g, _, rec := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(false))
		_ = g.Play(s, 1)
		rec.reset()

		if err := g.Play(s, 1); err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		if len(rec.events) != 0 {
			t.Errorf("unexpected events %v", rec.kinds())
		}
	})

	t.Run("pause keeps position and toggle resumes", func(t *testing.T) {
		g, _, rec := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(false))
		_ = g.Play(s, 1)
		g.OnTimeUpdate(s, 1, 12*time.Second)

		if err := g.Toggle(s, 1); err != nil {
			t.Fatalf("Toggle failed: %v", err)
		}
		if _, ok := s.Active(); ok {
			t.Error("expected pause")
		}
		if s.Position(1) != 12*time.Second {
			t.Errorf("pause must keep position, got %v", s.Position(1))
		}

		last := rec.events[len(rec.events)-1]
		if last.Reason != StopPaused {
			t.Errorf("expected paused reason, got %s", last.Reason)
		}

		_ = g.Toggle(s, 1)
		if !s.Playing(1) {
			t.Error("expected toggle to resume")
		}
	})

	t.Run("pausing an idle track does nothing", func(t *testing.T) {
		g, _, rec := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(false))
		rec.reset()
		g.Pause(s, 2)
		if len(rec.events) != 0 {
			t.Errorf("unexpected events %v", rec.kinds())
		}
	})
}

func TestPlaybackErrors(t *testing.T) {
	g, _, rec := newTestGate(NewMemoryStore(), true)
	album := testAlbum(false)
	album.Tracks = append(album.Tracks, models.Track{ID: 4, Title: "Bad", Src: "https://example.com/bad.flac"})
	s := g.LoadAlbum(album)
	rec.reset()

	err := g.Play(s, 4)
	if !errors.Is(err, shared.ErrPlayback) {
		t.Fatalf("expected ErrPlayback, got %v", err)
	}
	if _, ok := s.Active(); ok {
		t.Error("failed playback must leave no active track")
	}
	if rec.count(TrackStarted) != 0 {
		t.Error("failed playback must not announce a start")
	}
	if !s.Purchased() {
		t.Error("playback errors must not change access")
	}

	if err := g.Play(s, 42); !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestUnlock(t *testing.T) {
	t.Run("unlock persists a record and announces access once", func(t *testing.T) {
		store := NewMemoryStore()
		g, _, rec := newTestGate(store, true)
		s := g.LoadAlbum(testAlbum(true))

		if err := g.Unlock(s); err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
		if err := g.Unlock(s); err != nil {
			t.Fatalf("second Unlock failed: %v", err)
		}

		if !s.Purchased() || s.State() != Unlocked {
			t.Error("expected UNLOCKED")
		}
		if rec.count(AccessUnlocked) != 1 {
			t.Errorf("expected one AccessUnlocked, got %d", rec.count(AccessUnlocked))
		}
		if store.Len() != 1 {
			t.Errorf("expected a single record, got %d", store.Len())
		}
		if got := store.Token("album001"); got != "purchased-1700000000000" {
			t.Errorf("unexpected token %q", got)
		}
		if ok, _ := store.Purchased("album001"); !ok {
			t.Error("record must be truthy")
		}
	})

	t.Run("unlock lifts the cap mid-playback", func(t *testing.T) {
		g, _, _ := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(true))
		_ = g.Play(s, 1)
		g.OnTimeUpdate(s, 1, 20*time.Second)

		_ = g.Unlock(s)
		if g.OnTimeUpdate(s, 1, 45*time.Second) {
			t.Error("unlocked playback must not be cut")
		}
	})

	t.Run("unlock of a free album records it without a second announcement", func(t *testing.T) {
		store := NewMemoryStore()
		g, _, rec := newTestGate(store, true)
		s := g.LoadAlbum(testAlbum(false))
		rec.reset()

		if err := g.Unlock(s); err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
		if got := store.Token("album001"); got != "purchased-1700000000000" {
			t.Errorf("expected the record to be written, got %q", got)
		}
		if len(rec.events) != 0 {
			t.Errorf("free albums start unlocked, got events %v", rec.kinds())
		}
	})

	t.Run("store failure returns an error but unlock stands", func(t *testing.T) {
		store := &failingStore{MemoryStore: NewMemoryStore(), failWrite: true}
		g, _, rec := newTestGate(store, true)
		s := g.LoadAlbum(testAlbum(true))

		err := g.Unlock(s)
		if !errors.Is(err, shared.ErrPersist) {
			t.Errorf("expected ErrPersist, got %v", err)
		}
		if !s.Purchased() || rec.count(AccessUnlocked) != 1 {
			t.Error("in-memory unlock must stand")
		}
	})

	t.Run("unlock then fresh load of the same album", func(t *testing.T) {
		tc := []struct {
			name  string
			reset bool
			want  bool
		}{
			{name: "record honoured without reset", reset: false, want: true},
			{name: "record cleared with reset", reset: true, want: false},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				store := NewMemoryStore()
				first, _, _ := newTestGate(store, tt.reset)
				_ = first.Unlock(first.LoadAlbum(testAlbum(true)))

				fresh, _, _ := newTestGate(store, tt.reset)
				if got := fresh.LoadAlbum(testAlbum(true)).Purchased(); got != tt.want {
					t.Errorf("purchased = %v, want %v", got, tt.want)
				}
			})
		}
	})
}

func TestDownload(t *testing.T) {
	t.Run("refused while locked", func(t *testing.T) {
		g, _, _ := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(true))

		if _, ok := g.Download(s, 1); ok {
			t.Error("download must be refused while locked")
		}
		if d := g.DownloadAll(s); d != nil {
			t.Errorf("expected no downloads, got %d", len(d))
		}
	})

	t.Run("allowed after unlock", func(t *testing.T) {
		g, _, _ := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(true))
		_ = g.Unlock(s)

		d, ok := g.Download(s, 2)
		if !ok {
			t.Fatal("expected download after unlock")
		}
		if d.FileName != "02 - Second Wind.mp3" || d.URL != "https://example.com/second-wind.mp3" || d.AlbumID != "album001" {
			t.Errorf("unexpected download %+v", d)
		}

		all := g.DownloadAll(s)
		if len(all) != 3 || all[0].Track.ID != 1 || all[2].Track.ID != 3 {
			t.Errorf("unexpected downloads %+v", all)
		}
	})

	t.Run("album may disable downloads", func(t *testing.T) {
		g, _, _ := newTestGate(NewMemoryStore(), true)
		album := testAlbum(false)
		album.Download = false
		s := g.LoadAlbum(album)

		if g.CanDownload(s) {
			t.Error("expected downloads disabled")
		}
		if _, ok := g.Download(s, 1); ok {
			t.Error("expected refusal")
		}
	})
}

func TestSessionQueries(t *testing.T) {
	g, _, _ := newTestGate(NewMemoryStore(), true)
	s := g.LoadAlbum(testAlbum(true))

	if s.Audible(1) != 30*time.Second {
		t.Errorf("locked long track audible = %v", s.Audible(1))
	}
	if s.Audible(3) != 20*time.Second {
		t.Errorf("locked short track audible = %v", s.Audible(3))
	}

	g.OnTimeUpdate(s, 1, 15*time.Second)
	if p := s.Progress(1); p != 0.5 {
		t.Errorf("expected half way through preview, got %v", p)
	}

	g.OnDurationLoaded(s, 1, 240*time.Second)
	if s.Duration(1) != 240*time.Second {
		t.Errorf("duration not refined: %v", s.Duration(1))
	}
	g.OnDurationLoaded(s, 1, 0)
	if s.Duration(1) != 240*time.Second {
		t.Error("zero duration must be ignored")
	}

	_ = g.Unlock(s)
	if s.Audible(1) != 240*time.Second {
		t.Errorf("unlocked audible = %v", s.Audible(1))
	}
	if p := s.Progress(1); p != 0.0625 {
		t.Errorf("unexpected unlocked progress %v", p)
	}
	if s.Album().ID != "album001" || len(s.Tracks()) != 3 {
		t.Error("unexpected album snapshot")
	}
}

func TestDeckDrivenScenario(t *testing.T) {
	t.Run("locked 225s track is cut at 30s with a prompt", func(t *testing.T) {
		g, deck, rec := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(true))
		_ = g.Play(s, 1)

		for i := 0; i < 40; i++ {
			for _, tick := range deck.Advance(time.Second) {
				g.Feed(s, tick)
			}
		}

		if rec.count(PreviewExpired) != 1 {
			t.Fatalf("expected a single prompt, got %v", rec.kinds())
		}
		if deck.IsPlaying(1) || deck.Position(1) != 0 {
			t.Error("expected deck stopped and rewound")
		}
		if deck.Peak() != 1 {
			t.Errorf("unexpected peak %d", deck.Peak())
		}
	})

	t.Run("short locked track ends naturally before the cap", func(t *testing.T) {
		g, deck, rec := newTestGate(NewMemoryStore(), true)
		s := g.LoadAlbum(testAlbum(true))
		_ = g.Play(s, 3)

		for i := 0; i < 25; i++ {
			for _, tick := range deck.Advance(time.Second) {
				g.Feed(s, tick)
			}
		}

		if rec.count(PreviewExpired) != 0 {
			t.Error("20s track must end before the 30s cap")
		}
		last := rec.events[len(rec.events)-1]
		if last.Reason != StopEnded {
			t.Errorf("expected natural end, got %s", last.Reason)
		}
	})
}

func TestSubscribe(t *testing.T) {
	g := New(NewMemoryStore(), NewDeck(), DefaultOptions())

	var log []string
	unsubscribe := g.Subscribe(ObserverFunc(func(e Event) { log = append(log, "a:"+e.Kind.String()) }))
	g.Subscribe(ObserverFunc(func(e Event) { log = append(log, "b:"+e.Kind.String()) }))

	g.LoadAlbum(testAlbum(false))
	unsubscribe()
	g.LoadAlbum(testAlbum(false))

	if got := strings.Join(log, ","); got != "a:access_unlocked,b:access_unlocked,b:access_unlocked" {
		t.Errorf("unexpected delivery %q", got)
	}
}

func TestPurchaseKey(t *testing.T) {
	if PurchaseKey("album001") != "albumPurchaseToken-album001" {
		t.Errorf("unexpected key %q", PurchaseKey("album001"))
	}
	if PurchaseToken(time.UnixMilli(42)) != "purchased-42" {
		t.Errorf("unexpected token %q", PurchaseToken(time.UnixMilli(42)))
	}

	store := NewMemoryStore()
	_ = store.Record("a", "x")
	_ = store.Clear("a")
	_ = store.Clear("missing")
	if store.Len() != 0 {
		t.Error("expected empty store")
	}
}
