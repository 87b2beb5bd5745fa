package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DefaultTrackDuration is assumed for a track until real metadata is known.
const DefaultTrackDuration = 180 * time.Second

// MaxTracks is the number of track columns an album row can carry.
const MaxTracks = 12

// Album is a titled collection of tracks with its lock, theme and payment configuration.
type Album struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Domain      string  `json:"domain,omitempty"`
	AlbumArt    string  `json:"album_art,omitempty"`
	Theme       Theme   `json:"theme"`
	Lock        bool    `json:"lock"`
	Download    bool    `json:"download"`
	PaymentLink string  `json:"payment_link,omitempty"`
	Price       *Price  `json:"price,omitempty"`
	Tracks      []Track `json:"tracks"`
}

// Track is a single playable audio item.
type Track struct {
	ID       int           `json:"id"` // 1-based ordinal within the album
	Title    string        `json:"title"`
	Src      string        `json:"src"`
	Art      string        `json:"art,omitempty"`
	Duration time.Duration `json:"duration"` // encoded as seconds
}

// MarshalJSON writes the duration in seconds.
func (t Track) MarshalJSON() ([]byte, error) {
	type plain Track
	return json.Marshal(struct {
		plain
		Duration float64 `json:"duration"`
	}{plain(t), t.Duration.Seconds()})
}

// UnmarshalJSON reads a duration given in seconds.
func (t *Track) UnmarshalJSON(data []byte) error {
	type plain Track
	aux := struct {
		*plain
		Duration float64 `json:"duration"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Duration = time.Duration(math.Round(aux.Duration * float64(time.Second)))
	return nil
}

// Track returns the track with the given ordinal.
func (a *Album) Track(id int) (Track, bool) {
	for _, t := range a.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// HasPaymentLink reports whether a purchase should redirect somewhere.
func (a *Album) HasPaymentLink() bool {
	return a.PaymentLink != ""
}

// PurchaseLabel is the call to action shown on the purchase control.
func (a *Album) PurchaseLabel() string {
	if a.Price != nil && !a.Price.IsZero() {
		return fmt.Sprintf("Buy Full Album for %s", a.Price.Display())
	}
	return "Buy Full Album"
}

// TotalDuration sums the known durations of every track.
func (a *Album) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range a.Tracks {
		total += t.Duration
	}
	return total
}

// Validate checks the album carries an id and unique positive track ordinals.
func (a *Album) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("album id is required")
	}

	seen := make(map[int]bool, len(a.Tracks))
	for _, t := range a.Tracks {
		if t.ID < 1 {
			return fmt.Errorf("album %s: track ordinal must be positive, got %d", a.ID, t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("album %s: duplicate track ordinal %d", a.ID, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}
