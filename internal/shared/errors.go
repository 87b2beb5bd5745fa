package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Catalog and source errors
	ErrSourceUnavailable = fmt.Errorf("album source unavailable")
	ErrInvalidCatalog    = fmt.Errorf("invalid album catalog")
	ErrMissingColumn     = fmt.Errorf("missing required column")
	ErrEmptyCatalog      = fmt.Errorf("no albums found")
	ErrAlbumNotFound     = fmt.Errorf("album not found")
	ErrTrackNotFound     = fmt.Errorf("track not found")

	// Gate and purchase errors
	ErrLocked           = fmt.Errorf("album is locked, purchase required")
	ErrDownloadDisabled = fmt.Errorf("downloads are disabled for this album")
	ErrPlayback         = fmt.Errorf("playback failed")
	ErrPersist          = fmt.Errorf("failed to persist purchase")
	ErrPurchaseDeclined = fmt.Errorf("purchase declined")
	ErrRecordNotFound   = fmt.Errorf("purchase record not found")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
