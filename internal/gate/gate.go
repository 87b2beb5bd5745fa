package gate

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/albumgate/internal/formatter"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
)

// DefaultPreviewLimit is how much of a locked track may be heard.
const DefaultPreviewLimit = 30 * time.Second

// AudioOutput is whatever actually produces sound. The gate decides, the output obeys.
type AudioOutput interface {
	Play(t models.Track) error
	Pause(t models.Track)
	Seek(t models.Track, pos time.Duration)
}

// Options configures a [Gate].
type Options struct {
	PreviewLimit time.Duration    // defaults to [DefaultPreviewLimit]
	ResetOnLoad  bool             // clear the incoming album's purchase record before checking it
	Logger       *log.Logger      // defaults to a discarding logger
	Now          func() time.Time // clock for purchase tokens
}

// DefaultOptions mirrors the stock player: 30s previews with the purchase record reset on load.
func DefaultOptions() Options {
	return Options{PreviewLimit: DefaultPreviewLimit, ResetOnLoad: true}
}

// Gate enforces preview limits and owns the purchased flag lifecycle.
type Gate struct {
	store     PurchaseStore
	out       AudioOutput
	opts      Options
	logger    *log.Logger
	observers map[int]Observer
	nextObs   int
}

// New creates a gate over store and out.
func New(store PurchaseStore, out AudioOutput, opts Options) *Gate {
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = DefaultPreviewLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}

	return &Gate{
		store:     store,
		out:       out,
		opts:      opts,
		logger:    logger,
		observers: make(map[int]Observer),
	}
}

// PreviewLimit returns the configured cap.
func (g *Gate) PreviewLimit() time.Duration { return g.opts.PreviewLimit }

// Subscribe registers o for every subsequent event and returns a func that removes it.
func (g *Gate) Subscribe(o Observer) (unsubscribe func()) {
	id := g.nextObs
	g.nextObs++
	g.observers[id] = o
	return func() { delete(g.observers, id) }
}

func (g *Gate) emit(e Event) {
	for i := 0; i < g.nextObs; i++ {
		if o, ok := g.observers[i]; ok {
			o.Notify(e)
		}
	}
}

// LoadAlbum starts a fresh session for album.
//
// purchased starts as !album.Lock. Only a locked album consults the store, and a store error
// is logged and treated as not purchased. Albums that start unlocked emit [AccessUnlocked].
func (g *Gate) LoadAlbum(album models.Album) *Session {
	s := newSession(album, g.opts.PreviewLimit)

	if g.opts.ResetOnLoad {
		if err := g.store.Clear(album.ID); err != nil {
			g.logger.Warn("failed to reset purchase record", "album", album.ID, "error", err)
		}
	}

	s.purchased = !album.Lock
	if album.Lock {
		purchased, err := g.store.Purchased(album.ID)
		if err != nil {
			g.logger.Warn("purchase lookup failed, staying locked", "album", album.ID, "error", err)
		}
		s.purchased = err == nil && purchased
	}

	g.logger.Debug("album loaded", "album", album.ID, "session", s.ID, "state", s.State())
	if s.purchased {
		g.emit(Event{Kind: AccessUnlocked, AlbumID: album.ID})
	}
	return s
}

// Play starts trackID, stopping and rewinding whichever track was active first.
// Playing the already active track does nothing.
func (g *Gate) Play(s *Session, trackID int) error {
	ts, ok := s.tracks[trackID]
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrTrackNotFound, trackID)
	}
	if s.active == trackID {
		return nil
	}

	if prev, ok := s.tracks[s.active]; ok {
		g.stop(s, prev, StopPreempted, true)
	}

	if err := g.out.Play(ts.track); err != nil {
		g.logger.Error("playback failed", "album", s.album.ID, "track", trackID, "error", err)
		return fmt.Errorf("%w: %s: %v", shared.ErrPlayback, ts.track.Title, err)
	}

	s.active = trackID
	track := ts.track
	g.emit(Event{Kind: TrackStarted, AlbumID: s.album.ID, Track: &track, Position: ts.position})
	return nil
}

// Pause stops trackID where it is. It is a no-op unless trackID is active.
func (g *Gate) Pause(s *Session, trackID int) {
	if s.active != trackID {
		return
	}
	g.stop(s, s.tracks[trackID], StopPaused, false)
}

// Toggle plays trackID if it is idle and pauses it if it is active.
func (g *Gate) Toggle(s *Session, trackID int) error {
	if s.active == trackID {
		g.Pause(s, trackID)
		return nil
	}
	return g.Play(s, trackID)
}

func (g *Gate) stop(s *Session, ts *trackState, reason StopReason, rewind bool) {
	at := ts.position
	g.out.Pause(ts.track)
	if rewind {
		g.out.Seek(ts.track, 0)
		ts.position = 0
	}
	if s.active == ts.track.ID {
		s.active = 0
	}

	track := ts.track
	g.emit(Event{Kind: TrackStopped, AlbumID: s.album.ID, Track: &track, Reason: reason, Position: at})
}

// OnTimeUpdate records the playback position of trackID and enforces the preview cap.
//
// While not purchased, reaching the limit pauses the track, rewinds it to 0 and emits
// [TrackStopped] followed by [PreviewExpired]. It reports whether the track was cut.
func (g *Gate) OnTimeUpdate(s *Session, trackID int, pos time.Duration) bool {
	ts, ok := s.tracks[trackID]
	if !ok {
		return false
	}
	ts.position = pos

	if s.purchased || pos < g.opts.PreviewLimit {
		return false
	}

	wasActive := s.active == trackID
	g.out.Pause(ts.track)
	g.out.Seek(ts.track, 0)
	ts.position = 0

	track := ts.track
	if wasActive {
		s.active = 0
		g.emit(Event{Kind: TrackStopped, AlbumID: s.album.ID, Track: &track, Reason: StopPreviewLimit, Position: pos})
	}
	g.emit(Event{Kind: PreviewExpired, AlbumID: s.album.ID, Track: &track, Position: pos})
	g.logger.Debug("preview expired", "album", s.album.ID, "track", trackID, "at", pos)
	return true
}

// OnDurationLoaded refines a track's duration once real metadata is known.
func (g *Gate) OnDurationLoaded(s *Session, trackID int, d time.Duration) {
	if ts, ok := s.tracks[trackID]; ok && d > 0 {
		ts.track.Duration = d
	}
}

// OnEnded handles a track reaching its natural end: it rewinds and goes idle.
func (g *Gate) OnEnded(s *Session, trackID int) {
	ts, ok := s.tracks[trackID]
	if !ok {
		return
	}
	g.stop(s, ts, StopEnded, true)
}

// Feed applies a tick reported by the audio output: a position update, then the natural end if reached.
func (g *Gate) Feed(s *Session, t Tick) {
	if g.OnTimeUpdate(s, t.Track.ID, t.Position) {
		return
	}
	if t.Ended {
		g.OnEnded(s, t.Track.ID)
	}
}

// Unlock moves the session to UNLOCKED and persists a purchase record for the album.
//
// Calling it again is harmless: the record is rewritten with a fresh token and no second
// [AccessUnlocked] is emitted. A store error is returned but the in-memory unlock stands.
func (g *Gate) Unlock(s *Session) error {
	var err error
	if recErr := g.store.Record(s.album.ID, PurchaseToken(g.opts.Now())); recErr != nil {
		g.logger.Error("failed to persist purchase", "album", s.album.ID, "error", recErr)
		err = fmt.Errorf("%w: %v", shared.ErrPersist, recErr)
	}

	if s.purchased {
		return err
	}
	s.purchased = true
	g.logger.Info("access unlocked", "album", s.album.ID, "session", s.ID)
	g.emit(Event{Kind: AccessUnlocked, AlbumID: s.album.ID})
	return err
}

// Download describes a file the caller may fetch. The gate itself performs no I/O.
type Download struct {
	AlbumID  string
	Track    models.Track
	URL      string
	FileName string
}

// CanDownload reports whether downloads are allowed for the session right now.
func (g *Gate) CanDownload(s *Session) bool {
	return s.purchased && s.album.Download
}

// Download returns the download for trackID, or false when the session may not download it.
func (g *Gate) Download(s *Session, trackID int) (Download, bool) {
	ts, ok := s.tracks[trackID]
	if !ok || !g.CanDownload(s) || ts.track.Src == "" {
		return Download{}, false
	}
	return newDownload(s.album.ID, ts.track), true
}

// DownloadAll returns downloads for every track in album order, or nil when not permitted.
func (g *Gate) DownloadAll(s *Session) []Download {
	if !g.CanDownload(s) {
		return nil
	}

	downloads := make([]Download, 0, len(s.order))
	for _, id := range s.order {
		if d, ok := g.Download(s, id); ok {
			downloads = append(downloads, d)
		}
	}
	return downloads
}

func newDownload(albumID string, t models.Track) Download {
	return Download{AlbumID: albumID, Track: t, URL: t.Src, FileName: formatter.TrackFileName(t)}
}
