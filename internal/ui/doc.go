// Package ui implements an interactive terminal player using bubbletea's Elm architecture.
//
// The TUI is a thin rendering adapter over the playback gate:
//  1. [AlbumListView] : Browse the albums of the configured source
//  2. [TrackView] : Play and pause tracks, see the preview countdown and purchase hint
//  3. [ConfirmPurchaseView] : Confirm a (simulated) purchase after the payment page opens
//  4. [DownloadView] : Monitor and review track downloads
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// A one second tick advances the virtual deck and feeds each position report to the gate; the gate's events
// come back through an observer and become status lines. Download progress flows through a channel from
// the download engine, providing non-blocking status reporting.
//
// Each album renders with the palette of its theme unless a theme is forced with [Options].
//
// Keyboard navigation uses vim-style bindings (j/k, enter/space, p, d/D, t, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
