package gate

import (
	"time"

	"github.com/desertthunder/albumgate/internal/models"
)

// EventKind enumerates what the gate tells rendering adapters.
type EventKind int

const (
	TrackStarted EventKind = iota
	TrackStopped
	PreviewExpired
	AccessUnlocked
)

func (k EventKind) String() string {
	switch k {
	case TrackStarted:
		return "track_started"
	case TrackStopped:
		return "track_stopped"
	case PreviewExpired:
		return "preview_expired"
	case AccessUnlocked:
		return "access_unlocked"
	default:
		return "unknown"
	}
}

// StopReason says why a [TrackStopped] event fired.
type StopReason int

const (
	StopNone StopReason = iota
	StopPaused
	StopPreempted
	StopPreviewLimit
	StopEnded
)

func (r StopReason) String() string {
	switch r {
	case StopPaused:
		return "paused"
	case StopPreempted:
		return "preempted"
	case StopPreviewLimit:
		return "preview_limit"
	case StopEnded:
		return "ended"
	default:
		return "none"
	}
}

// Event is emitted synchronously to every subscribed [Observer].
type Event struct {
	Kind     EventKind
	AlbumID  string
	Track    *models.Track // nil for AccessUnlocked
	Reason   StopReason    // set for TrackStopped
	Position time.Duration // position at the moment of the event
}

// Observer receives gate events.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to [Observer].
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }
