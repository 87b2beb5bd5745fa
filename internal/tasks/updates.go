package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
	Err     error  // Set on failure updates
}

// Operation phase enumeration
type Phase int

const (
	PrepareDownload Phase = iota
	FetchArtwork
	DownloadTrack
	TagTrack
	ExportAlbum
	Complete
)

func (p Phase) String() string {
	switch p {
	case PrepareDownload:
		return "prepare_download"
	case FetchArtwork:
		return "fetch_artwork"
	case DownloadTrack:
		return "download_track"
	case TagTrack:
		return "tag_track"
	case ExportAlbum:
		return "export_album"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func prepareUpdate(total int, dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PrepareDownload,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Downloading %d tracks to %s...", total, dir),
	}
}

func artworkUpdate(url string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   FetchArtwork,
			Step:    1,
			Total:   1,
			Message: fmt.Sprintf("Artwork unavailable, tagging without cover: %v", err),
			Err:     err,
		}
	}
	return ProgressUpdate{
		Phase:   FetchArtwork,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched cover art from %s", url),
	}
}

func trackDoneUpdate(step, total int, res FileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Download.FileName),
		Data:    res,
	}
}

func trackFailedUpdate(step, total int, res FileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Download.FileName, res.Err),
		Data:    res,
		Err:     res.Err,
	}
}

func tagFailedUpdate(name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TagTrack,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Could not tag %s: %v", name, err),
		Err:     err,
	}
}

func exportUpdate(step, total int, res AlbumExportResult) ProgressUpdate {
	if res.Err != nil {
		return ProgressUpdate{
			Phase:   ExportAlbum,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Err),
			Err:     res.Err,
		}
	}
	return ProgressUpdate{
		Phase:   ExportAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, res.Title, len(res.Files)),
	}
}

func completeUpdate(succeeded, failed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    succeeded,
		Total:   succeeded + failed,
		Message: fmt.Sprintf("Done: %d succeeded, %d failed", succeeded, failed),
	}
}
