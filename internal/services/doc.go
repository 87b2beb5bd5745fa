// Package services loads the album catalog from remote or local sources.
//
// # Album Sources
//
// Every source implements [AlbumSource] and yields a [models.Catalog]:
//   - [CSVSource] : a published sheet exported as CSV, fetched over http(s) or read from disk
//   - [TableSource] : a hosted table behind a PostgREST endpoint, with an optional songs table
//   - [SampleSource] : the built-in four-album sample catalog
//
// # Sheet Layout
//
// CSV and table rows share column names. AlbumID is required; everything else is optional:
//
//	AlbumID, DOMAIN, Album Title, Album Art, Theme, Lock, Download, Stripe Payment Links, Price,
//	Track 1 .. Track 12, Track 1 art .. Track 12 art
//
// Lock is "yes" for albums that need a purchase. Download defaults to allowed and is only
// disabled by a value other than "yes". Track titles are derived from the audio file name
// and durations default to [models.DefaultTrackDuration] until real metadata is known.
//
// # Caching and Fallback
//
// [Catalog] caches the first successful fetch in memory and falls back to the sample albums
// when the primary source fails, keeping a [Status] the UI can show.
//
// # Error Handling
//
// Sources use typed errors from the shared package:
//   - [shared.ErrSourceUnavailable] : network or file access failed
//   - [shared.ErrAPIRequest] : the endpoint answered with a non-2xx status
//   - [shared.ErrMissingColumn] : the sheet has no AlbumID column
//   - [shared.ErrEmptyCatalog] : the source produced no albums
//   - [shared.ErrAlbumNotFound] : lookup of an unknown album id
package services
