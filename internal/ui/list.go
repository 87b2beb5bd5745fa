package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/albumgate/internal/formatter"
	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
)

var (
	_ list.Item = albumItem{}
	_ list.Item = trackItem{}
)

// albumItem wraps [models.Album] to implement [list.Item].
type albumItem struct {
	album models.Album
}

func (i albumItem) FilterValue() string { return i.album.Title }
func (i albumItem) Title() string       { return i.album.Title }
func (i albumItem) Description() string {
	parts := []string{
		fmt.Sprintf("%d tracks", len(i.album.Tracks)),
		formatter.FormatTime(i.album.TotalDuration()),
	}
	if i.album.Lock {
		parts = append(parts, "preview")
		if price := i.album.Price.Display(); price != "" {
			parts = append(parts, price)
		}
	} else {
		parts = append(parts, "free")
	}
	return strings.Join(parts, " • ")
}

// trackItem is a snapshot of one track within a session, rebuilt after every state change.
type trackItem struct {
	track    models.Track
	playing  bool
	position time.Duration
	limit    time.Duration // zero once purchased
}

func newTrackItems(s *gate.Session, limit time.Duration) []list.Item {
	if s.Purchased() {
		limit = 0
	}
	tracks := s.Tracks()
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{
			track:    t,
			playing:  s.Playing(t.ID),
			position: s.Position(t.ID),
			limit:    limit,
		}
	}
	return items
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string {
	marker := "  "
	if i.playing {
		marker = "▶ "
	}
	return fmt.Sprintf("%s%s. %s", marker, formatter.TrackNumber(i.track.ID), i.track.Title)
}

func (i trackItem) Description() string {
	desc := formatter.FormatTime(i.track.Duration)
	if i.position > 0 {
		desc = formatter.FormatTime(i.position) + " / " + desc
	}
	if i.limit > 0 {
		desc = fmt.Sprintf("%s • preview %s", desc, formatter.FormatTime(i.limit))
	}
	if i.track.Src == "" {
		desc += " • no audio"
	}
	return desc
}
