package gate

import (
	"fmt"
	"maps"
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/albumgate/internal/models"
)

var supportedFormats = map[string]bool{"": true, ".mp3": true, ".wav": true, ".ogg": true}

// Tick is a position report from a [Deck].
type Tick struct {
	Track    models.Track
	Position time.Duration
	Ended    bool
}

type deckTrack struct {
	track    models.Track
	position time.Duration
	playing  bool
}

// Deck is a virtual [AudioOutput]: it plays nothing, but keeps per-track positions that advance
// with [Deck.Advance]. It does not enforce one-at-a-time playback; that is the gate's job.
type Deck struct {
	mu     sync.Mutex
	tracks map[int]*deckTrack
	peak   int
}

// NewDeck returns an idle deck.
func NewDeck() *Deck {
	return &Deck{tracks: make(map[int]*deckTrack)}
}

func (d *Deck) get(t models.Track) *deckTrack {
	dt, ok := d.tracks[t.ID]
	if !ok {
		dt = &deckTrack{track: t}
		d.tracks[t.ID] = dt
	}
	return dt
}

// Play starts t from its current position. Sources with an unsupported extension fail.
func (d *Deck) Play(t models.Track) error {
	if t.Src == "" {
		return fmt.Errorf("track %d has no source", t.ID)
	}
	if ext := sourceExt(t.Src); !supportedFormats[ext] {
		return fmt.Errorf("unsupported format %q", ext)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	dt := d.get(t)
	dt.track = t
	dt.playing = true
	if n := d.playingLocked(); n > d.peak {
		d.peak = n
	}
	return nil
}

func (d *Deck) Pause(t models.Track) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.get(t).playing = false
}

func (d *Deck) Seek(t models.Track, pos time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.get(t).position = pos
}

// Advance moves every playing track forward by dt and reports where each one is.
// A track reaching its duration stops and is reported as ended.
func (d *Deck) Advance(dt time.Duration) []Tick {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ticks []Tick
	for _, id := range slices.Sorted(maps.Keys(d.tracks)) {
		tr := d.tracks[id]
		if !tr.playing {
			continue
		}
		tr.position += dt
		tick := Tick{Track: tr.track, Position: tr.position}
		if tr.track.Duration > 0 && tr.position >= tr.track.Duration {
			tr.position = tr.track.Duration
			tr.playing = false
			tick.Position = tr.position
			tick.Ended = true
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

// Position returns the deck's position for a track ordinal.
func (d *Deck) Position(trackID int) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tr, ok := d.tracks[trackID]; ok {
		return tr.position
	}
	return 0
}

// IsPlaying reports whether a track ordinal is currently playing.
func (d *Deck) IsPlaying(trackID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	tr, ok := d.tracks[trackID]
	return ok && tr.playing
}

// PlayingCount returns how many tracks are playing right now.
func (d *Deck) PlayingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playingLocked()
}

// Peak returns the most tracks ever playing at once.
func (d *Deck) Peak() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peak
}

// Reset stops everything and forgets all positions.
func (d *Deck) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tracks = make(map[int]*deckTrack)
}

func (d *Deck) playingLocked() int {
	n := 0
	for _, tr := range d.tracks {
		if tr.playing {
			n++
		}
	}
	return n
}

func sourceExt(src string) string {
	p := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}
