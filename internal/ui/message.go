package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/services"
	"github.com/desertthunder/albumgate/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAlbumsLoaded MsgKind = iota
	MsgTick
	MsgLinkOpened
	MsgProgressUpdate
	MsgDownloadComplete
)

type albumsLoaded struct {
	catalog *models.Catalog
	status  services.Status
	err     error
}

type downloadComplete struct {
	result *tasks.DownloadResult
	err    error
}

// albumsLoadedMsg is the constructor for [MsgAlbumsLoaded]
func albumsLoadedMsg(catalog *models.Catalog, status services.Status, err error) Msg {
	return Msg{kind: MsgAlbumsLoaded, data: albumsLoaded{catalog, status, err}}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(at time.Time) Msg {
	return Msg{kind: MsgTick, data: at}
}

// linkOpenedMsg is the constructor for [MsgLinkOpened]
func linkOpenedMsg(err error) Msg {
	return Msg{kind: MsgLinkOpened, data: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// downloadCompleteMsg is the constructor for [MsgDownloadComplete]
func downloadCompleteMsg(result *tasks.DownloadResult, err error) Msg {
	return Msg{kind: MsgDownloadComplete, data: downloadComplete{result, err}}
}
