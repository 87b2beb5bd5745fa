package gate

import (
	"time"

	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
)

// State is the per-album access state.
type State int

const (
	LockedPreview State = iota
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "UNLOCKED"
	}
	return "LOCKED_PREVIEW"
}

type trackState struct {
	track    models.Track
	position time.Duration
}

// Session is the playback state of one loaded album. Create one with [Gate.LoadAlbum].
type Session struct {
	ID string

	album     models.Album
	limit     time.Duration
	purchased bool
	active    int // 0 when nothing plays
	order     []int
	tracks    map[int]*trackState
}

func newSession(album models.Album, limit time.Duration) *Session {
	s := &Session{
		ID:     shared.GenerateID(),
		album:  album,
		limit:  limit,
		order:  make([]int, 0, len(album.Tracks)),
		tracks: make(map[int]*trackState, len(album.Tracks)),
	}
	for _, t := range album.Tracks {
		if _, dup := s.tracks[t.ID]; dup {
			continue
		}
		s.order = append(s.order, t.ID)
		s.tracks[t.ID] = &trackState{track: t}
	}
	return s
}

// Album returns the album the session was loaded with.
func (s *Session) Album() models.Album { return s.album }

// Purchased reports whether full playback and downloads are allowed.
func (s *Session) Purchased() bool { return s.purchased }

// State returns LOCKED_PREVIEW or UNLOCKED.
func (s *Session) State() State {
	if s.purchased {
		return Unlocked
	}
	return LockedPreview
}

// Active returns the ordinal of the playing track.
func (s *Session) Active() (int, bool) { return s.active, s.active != 0 }

// Playing reports whether trackID is the active track.
func (s *Session) Playing(trackID int) bool { return s.active != 0 && s.active == trackID }

// Tracks returns the session's tracks (with refined durations) in album order.
func (s *Session) Tracks() []models.Track {
	tracks := make([]models.Track, 0, len(s.order))
	for _, id := range s.order {
		tracks = append(tracks, s.tracks[id].track)
	}
	return tracks
}

// Track returns one track by ordinal.
func (s *Session) Track(trackID int) (models.Track, bool) {
	ts, ok := s.tracks[trackID]
	if !ok {
		return models.Track{}, false
	}
	return ts.track, true
}

// Position returns the last known position of trackID.
func (s *Session) Position(trackID int) time.Duration {
	if ts, ok := s.tracks[trackID]; ok {
		return ts.position
	}
	return 0
}

// Duration returns the known duration of trackID.
func (s *Session) Duration(trackID int) time.Duration {
	if ts, ok := s.tracks[trackID]; ok {
		return ts.track.Duration
	}
	return 0
}

// Audible returns how much of trackID may be heard: the whole track when purchased,
// otherwise the preview limit or the track duration, whichever is shorter.
func (s *Session) Audible(trackID int) time.Duration {
	d := s.Duration(trackID)
	if s.purchased {
		return d
	}
	if d > 0 && d < s.limit {
		return d
	}
	return s.limit
}

// Progress returns how far through its audible span trackID is, in [0, 1].
func (s *Session) Progress(trackID int) float64 {
	span := s.Audible(trackID)
	if span <= 0 {
		return 0
	}
	p := float64(s.Position(trackID)) / float64(span)
	if p > 1 {
		return 1
	}
	return p
}
