// Package gate implements the preview gate: the rules deciding which tracks of an album may play,
// for how long, and how the purchased state is derived from and written back to a [PurchaseStore].
//
// # State machine
//
// Every album loaded through [Gate.LoadAlbum] gets a [Session] in one of two states:
//
//	LOCKED_PREVIEW --Unlock--> UNLOCKED
//
// LOCKED_PREVIEW is initial when the album is locked and no purchase record exists.
// UNLOCKED is terminal; there is no way back for the lifetime of the session.
//
// While locked, [Gate.OnTimeUpdate] stops and rewinds a track once its position reaches the
// preview limit (30s by default) and emits [PreviewExpired]. Downloads are refused.
//
// # Collaborators
//
// The gate never renders anything and never performs I/O beyond its two injected interfaces:
//   - [PurchaseStore] : persisted purchase records keyed by [PurchaseKey]
//   - [AudioOutput] : whatever actually plays audio; [Deck] is an in-memory implementation
//
// Rendering adapters (the TUI, CLI commands) subscribe with [Gate.Subscribe] and react to [Event]s.
//
// # Concurrency
//
// A Session is owned by a single goroutine (an event loop). The gate adds no locking of its own.
package gate
