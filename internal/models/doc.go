// Package models defines the album catalog data model shared by sources, the playback gate and renderers.
//
//   - [Album] : a titled collection of tracks with lock, theme, price and payment configuration
//   - [Track] : a single playable item with a 1-based ordinal, audio URL and duration
//   - [Catalog] : an ordered album-id to [Album] mapping produced by album sources
//   - [Theme] : the visual theme name an album asks to be rendered with
//   - [Price] : an optional purchase price backed by go-money
//
// Albums are plain values. A source builds them once and the gate copies what it needs,
// so the track set is fixed for the lifetime of a playback session.
package models
