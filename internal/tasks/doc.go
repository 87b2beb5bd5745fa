// Package tasks runs the jobs that follow a purchase, with real-time progress reporting.
//
// # Core Operations
//
//  1. [Downloader.Run] : Save permitted tracks of one album
//     - Downloads run through an errgroup bounded by [DownloadOpts.Concurrency]
//     - Starts are spaced by a rate limiter ([DownloadOpts.Stagger])
//     - Files land in <output>/<album title>/NN - Title.mp3 via a temporary file and rename
//     - Failed files are retried, then recorded in [DownloadResult] without stopping the rest
//
//  2. [ExportAlbums] : Export album metadata in bulk
//     - Worker pool over a jobs channel, json/csv/markdown/txt per album
//     - Writes export_manifest.json summarizing successes and failures
//
// # Tagging
//
// With [DownloadOpts.Tag] set, each file gets ID3 title, album, artist (the album domain)
// and track number frames. The album art, or the track art when the album has none, is
// fetched once per run, scaled to fit the configured box and embedded as a JPEG front cover.
// Artwork and tagging problems are reported as progress warnings; the audio file is kept.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
