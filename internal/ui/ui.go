package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/albumgate/internal/formatter"
	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/services"
	"github.com/desertthunder/albumgate/internal/shared"
	"github.com/desertthunder/albumgate/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AlbumListView ViewState = iota
	TrackView
	ConfirmPurchaseView
	DownloadView
)

// pulseTicks is how long the purchase hint flashes after a preview ends.
const pulseTicks = 4

// PreviewEndedMessage is shown when a locked track hits the preview limit.
const PreviewEndedMessage = "Preview ended - purchase to hear the full track"

// AlbumCatalog is where the TUI gets its albums.
type AlbumCatalog interface {
	Albums(ctx context.Context) (*models.Catalog, error)
	Status() services.Status
}

// Downloader fetches the files a session is permitted to download.
type Downloader interface {
	Run(ctx context.Context, album models.Album, downloads []gate.Download, progress chan<- tasks.ProgressUpdate) (*tasks.DownloadResult, error)
}

// Options configures a [Model].
type Options struct {
	Theme  models.Theme     // forces one theme for every album when set
	Open   shared.URLOpener // opens payment links; nil disables opening
	Tick   time.Duration    // playback clock resolution, defaults to one second
	Logger *log.Logger
}

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusOK
	statusWarn
	statusErr
)

type statusLine struct {
	level statusLevel
	text  string
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	catalog    AlbumCatalog
	gate       *gate.Gate
	deck       *gate.Deck
	downloader Downloader
	open       shared.URLOpener
	logger     *log.Logger
	tick       time.Duration

	width     int
	height    int
	albums    *models.Catalog
	albumList list.Model
	trackList list.Model
	session   *gate.Session

	themeOverride models.Theme
	theme         models.Theme
	palette       *Palette
	spinner       spinner.Model
	bar           progress.Model

	status      statusLine
	pulse       int
	unsubscribe func()

	progressChan chan tasks.ProgressUpdate
	downloadDone chan downloadComplete
	downloading  bool
	progress     tasks.ProgressUpdate
	result       *tasks.DownloadResult

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model. The deck must be the [gate.AudioOutput] g was built with.
func NewModel(ctx context.Context, catalog AlbumCatalog, g *gate.Gate, deck *gate.Deck, downloader Downloader, opts Options) *Model {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewDiscardLogger()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:           ctx,
		view:          AlbumListView,
		catalog:       catalog,
		gate:          g,
		deck:          deck,
		downloader:    downloader,
		open:          opts.Open,
		logger:        opts.Logger,
		tick:          opts.Tick,
		themeOverride: opts.Theme,
		spinner:       sp,
		help:          help.New(),
		keys:          newKeyMap(),
	}
	m.applyTheme(m.baseTheme(models.ThemeDefault))
	m.unsubscribe = g.Subscribe(gate.ObserverFunc(m.onEvent))
	return m
}

// Close stops playback and detaches the model from the gate.
func (m *Model) Close() {
	m.leaveAlbum()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Init loads the albums and starts the playback clock.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadAlbums(), m.tickCmd(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.albumList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-14)
		m.bar.Width = min(max(msg.Width-30, 20), 60)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.err != nil {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		switch m.view {
		case AlbumListView:
			return m.handleAlbumListKeys(msg)
		case TrackView:
			return m.handleTrackKeys(msg)
		case ConfirmPurchaseView:
			return m.handleConfirmKeys(msg)
		case DownloadView:
			return m.handleDownloadKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAlbumsLoaded:
		data := msg.data.(albumsLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.albums = data.catalog
		items := make([]list.Item, 0, data.catalog.Len())
		for _, album := range data.catalog.Albums() {
			items = append(items, albumItem{album: album})
		}
		m.albumList = m.newList(items, "Albums")
		m.albumList.SetSize(m.width-4, m.height-8)
		level := statusInfo
		if data.status.Fallback {
			level = statusWarn
		}
		m.setStatus(level, data.status.Message())
		return m, nil

	case MsgTick:
		if m.pulse > 0 {
			m.pulse--
		}
		if m.session != nil {
			for _, t := range m.deck.Advance(m.tick) {
				m.gate.Feed(m.session, t)
			}
			m.refreshTracks()
		}
		return m, m.tickCmd()

	case MsgLinkOpened:
		if err, _ := msg.data.(error); err != nil {
			m.logger.Warn("could not open payment link", "error", err)
			m.setStatus(statusWarn, fmt.Sprintf("Could not open the payment page: %v", err))
		}
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		if m.progress.Err != nil {
			m.logger.Warn("download step failed", "phase", m.progress.Phase, "error", m.progress.Err)
		}
		return m, m.waitForProgress()

	case MsgDownloadComplete:
		data := msg.data.(downloadComplete)
		m.downloading = false
		m.progressChan = nil
		m.downloadDone = nil
		m.result = data.result
		m.applyDurations(data.result)
		switch {
		case data.err != nil:
			m.setStatus(statusErr, fmt.Sprintf("Download failed: %v", data.err))
		case data.result == nil || len(data.result.Files) == 0:
			m.setStatus(statusWarn, "Nothing was downloaded")
		case data.result.Failed > 0:
			m.setStatus(statusWarn, fmt.Sprintf("Downloaded %d of %d files to %s", data.result.Succeeded, len(data.result.Files), data.result.Directory))
		default:
			m.setStatus(statusOK, fmt.Sprintf("✓ Downloaded %d files to %s", data.result.Succeeded, data.result.Directory))
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return m.palette.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case AlbumListView:
		return m.renderAlbumList()
	case TrackView:
		return m.renderTrackView()
	case ConfirmPurchaseView:
		return m.renderConfirm()
	case DownloadView:
		return m.renderDownload()
	default:
		return ""
	}
}

func (m *Model) handleAlbumListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.theme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.albumList.SelectedItem().(albumItem); ok {
			m.openAlbum(item.album)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.albumList, cmd = m.albumList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.leaveAlbum()
		m.view = AlbumListView
		return m, nil
	case key.Matches(msg, m.keys.play):
		m.togglePlayback()
		return m, nil
	case key.Matches(msg, m.keys.purchase):
		return m, m.beginPurchase()
	case key.Matches(msg, m.keys.downloadAll):
		return m, m.startDownload(m.gate.DownloadAll(m.session), "")
	case key.Matches(msg, m.keys.download):
		item, ok := m.selectedTrack()
		if !ok {
			return m, nil
		}
		var downloads []gate.Download
		if dl, ok := m.gate.Download(m.session, item.track.ID); ok {
			downloads = append(downloads, dl)
		}
		return m, m.startDownload(downloads, item.track.Title)
	case key.Matches(msg, m.keys.theme):
		m.cycleTheme()
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = TrackView
		if err := m.gate.Unlock(m.session); err != nil {
			m.setStatus(statusWarn, fmt.Sprintf("Unlocked, but the purchase could not be saved: %v", err))
		}
		m.refreshTracks()
	case key.Matches(msg, m.keys.no), msg.String() == "q":
		m.view = TrackView
		m.setStatus(statusInfo, "Purchase cancelled")
	}
	return m, nil
}

func (m *Model) handleDownloadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit) && !m.downloading:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = TrackView
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case AlbumListView:
		m.albumList, cmd = m.albumList.Update(msg)
	case TrackView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) openAlbum(album models.Album) {
	m.leaveAlbum()
	m.status = statusLine{}

	m.session = m.gate.LoadAlbum(album)
	m.applyTheme(m.baseTheme(album.Theme))
	m.trackList = m.newList(newTrackItems(m.session, m.gate.PreviewLimit()), album.Title)
	m.trackList.SetSize(m.width-4, m.height-14)
	m.view = TrackView
}

func (m *Model) leaveAlbum() {
	if m.session == nil {
		return
	}
	if id, ok := m.session.Active(); ok {
		m.gate.Pause(m.session, id)
	}
	m.deck.Reset()
	m.session = nil
	m.pulse = 0
	m.status = statusLine{}
	m.applyTheme(m.baseTheme(models.ThemeDefault))
}

func (m *Model) togglePlayback() {
	item, ok := m.selectedTrack()
	if !ok {
		return
	}
	if item.track.Src == "" {
		m.setStatus(statusErr, fmt.Sprintf("No audio file available for %q", item.track.Title))
		return
	}
	if err := m.gate.Toggle(m.session, item.track.ID); err != nil {
		m.setStatus(statusErr, err.Error())
	}
	m.refreshTracks()
}

// beginPurchase opens the payment page when the album has one and asks to confirm the purchase.
func (m *Model) beginPurchase() tea.Cmd {
	if m.session.Purchased() {
		m.setStatus(statusOK, "Full album already unlocked")
		return nil
	}
	m.view = ConfirmPurchaseView

	album := m.session.Album()
	if !album.HasPaymentLink() || m.open == nil {
		return nil
	}
	open, link := m.open, album.PaymentLink
	return func() tea.Msg {
		return linkOpenedMsg(open(link))
	}
}

// startDownload runs downloads in the background; title names the single track asked for, if any.
func (m *Model) startDownload(downloads []gate.Download, title string) tea.Cmd {
	album := m.session.Album()
	switch {
	case m.downloading:
		m.setStatus(statusWarn, "A download is already running")
		return nil
	case !album.Download:
		m.setStatus(statusWarn, "Downloads are disabled for this album")
		return nil
	case !m.gate.CanDownload(m.session):
		m.setStatus(statusWarn, "Purchase the album to download tracks")
		return nil
	case len(downloads) == 0 && title != "":
		m.setStatus(statusErr, fmt.Sprintf("No audio file available for %q", title))
		return nil
	case len(downloads) == 0:
		m.setStatus(statusWarn, "Nothing to download")
		return nil
	case m.downloader == nil:
		m.setStatus(statusErr, "Downloads are not configured")
		return nil
	}

	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan downloadComplete, 1)
	m.progressChan, m.downloadDone = ch, done
	m.downloading = true
	m.result = nil
	m.progress = tasks.ProgressUpdate{Phase: tasks.PrepareDownload, Total: len(downloads), Message: "Preparing download..."}
	m.view = DownloadView

	ctx, dl := m.ctx, m.downloader
	go func() {
		result, err := dl.Run(ctx, album, downloads, ch)
		done <- downloadComplete{result, err}
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch, done := m.progressChan, m.downloadDone
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		update, ok := <-ch
		if !ok {
			d := <-done
			return downloadCompleteMsg(d.result, d.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) loadAlbums() tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		albums, err := catalog.Albums(ctx)
		return albumsLoadedMsg(albums, catalog.Status(), err)
	}
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) onEvent(e gate.Event) {
	switch e.Kind {
	case gate.TrackStarted:
		m.setStatus(statusInfo, fmt.Sprintf("▶ Playing %s", e.Track.Title))
	case gate.TrackStopped:
		switch e.Reason {
		case gate.StopPaused:
			m.setStatus(statusInfo, fmt.Sprintf("❚❚ Paused %s at %s", e.Track.Title, formatter.FormatTime(e.Position)))
		case gate.StopEnded:
			m.setStatus(statusInfo, fmt.Sprintf("■ %s finished", e.Track.Title))
		}
	case gate.PreviewExpired:
		m.setStatus(statusWarn, PreviewEndedMessage)
		m.pulse = pulseTicks
	case gate.AccessUnlocked:
		m.setStatus(statusOK, "✓ Full access unlocked")
		m.pulse = 0
	}
}

func (m *Model) setStatus(level statusLevel, text string) {
	m.status = statusLine{level: level, text: text}
}

func (m *Model) selectedTrack() (trackItem, bool) {
	item, ok := m.trackList.SelectedItem().(trackItem)
	return item, ok && m.session != nil
}

// applyDurations refines the open album's track lengths from what the downloaded files declare.
func (m *Model) applyDurations(result *tasks.DownloadResult) {
	if result == nil || m.session == nil || result.AlbumID != m.session.Album().ID {
		return
	}
	for _, f := range result.Files {
		if f.Err == nil && f.Duration > 0 {
			m.gate.OnDurationLoaded(m.session, f.Download.Track.ID, f.Duration)
		}
	}
	m.refreshTracks()
}

func (m *Model) refreshTracks() {
	if m.session == nil {
		return
	}
	m.trackList.SetItems(newTrackItems(m.session, m.gate.PreviewLimit()))
}

func (m *Model) baseTheme(albumTheme models.Theme) models.Theme {
	if m.themeOverride != "" {
		return m.themeOverride
	}
	return albumTheme
}

func (m *Model) cycleTheme() {
	m.applyTheme(m.theme.Next())
	m.setStatus(statusInfo, "Theme: "+m.theme.Name())
}

func (m *Model) applyTheme(t models.Theme) {
	m.theme = t
	m.palette = PaletteFor(t)
	m.spinner.Style = m.palette.accent

	width := m.bar.Width
	m.bar = progress.New(progress.WithGradient(m.palette.primary, m.palette.glow), progress.WithoutPercentage())
	if width > 0 {
		m.bar.Width = width
	}

	titleBg := lipgloss.Color(m.palette.primary)
	if m.albums != nil {
		m.albumList.SetDelegate(m.delegate())
		m.albumList.Styles.Title = m.albumList.Styles.Title.Background(titleBg)
	}
	if m.session != nil {
		m.trackList.SetDelegate(m.delegate())
		m.trackList.Styles.Title = m.trackList.Styles.Title.Background(titleBg)
	}
}

func (m *Model) delegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	c := lipgloss.Color(m.palette.primary)
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(c).BorderForeground(c)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(lipgloss.Color(m.palette.glow)).BorderForeground(c)
	return d
}

func (m *Model) newList(items []list.Item, title string) list.Model {
	l := list.New(items, m.delegate(), 0, 0)
	l.Title = title
	l.Styles.Title = l.Styles.Title.Background(lipgloss.Color(m.palette.primary))
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

func (m *Model) renderStatus() string {
	if m.status.text == "" {
		return ""
	}
	switch m.status.level {
	case statusOK:
		return m.palette.ok.Render(m.status.text)
	case statusWarn:
		return m.palette.warn.Render(m.status.text)
	case statusErr:
		return m.palette.err.Render(m.status.text)
	default:
		return m.palette.help.Render(m.status.text)
	}
}

func (m *Model) renderAlbumList() string {
	if m.albums == nil {
		return fmt.Sprintf("%s Loading albums...", m.spinner.View())
	}
	if m.albums.Len() == 0 {
		return m.palette.warn.Render("No albums available\n\nPress q to quit")
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.theme, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.albumList.View(), m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTrackView() string {
	if m.session == nil {
		return ""
	}
	album := m.session.Album()

	var b strings.Builder
	swatch := m.palette.On("  ", lipgloss.Color(m.palette.primary))
	b.WriteString(fmt.Sprintf("%s %s\n", swatch, m.palette.help.Render(m.theme.Name())))

	if m.session.Purchased() {
		b.WriteString(m.palette.ok.Render("FULL ACCESS"))
	} else {
		b.WriteString(m.palette.locked.Render(fmt.Sprintf("PREVIEW MODE - %d SEC", int(m.gate.PreviewLimit().Seconds()))))
	}
	b.WriteString("\n\n")
	b.WriteString(m.trackList.View())
	b.WriteString("\n")

	if id, ok := m.session.Active(); ok {
		track, _ := m.session.Track(id)
		b.WriteString(fmt.Sprintf("\n%s %s %s / %s",
			m.palette.accent.Render(track.Title),
			m.bar.ViewAs(m.session.Progress(id)),
			formatter.FormatTime(m.session.Position(id)),
			formatter.FormatTime(m.session.Audible(id)),
		))
	}

	if !m.session.Purchased() {
		label := album.PurchaseLabel()
		if m.pulse%2 == 1 {
			b.WriteString("\n" + m.palette.pulse.Render(label))
		} else {
			b.WriteString("\n" + m.palette.hint.Render(label+" (p)"))
		}
	}

	if status := m.renderStatus(); status != "" {
		b.WriteString("\n" + status)
	}
	if m.downloading {
		b.WriteString("\n" + m.palette.help.Render(m.spinner.View()+" "+m.progress.Message))
	}

	helpKeys := []key.Binding{m.keys.play, m.keys.purchase}
	if m.gate.CanDownload(m.session) {
		helpKeys = append(helpKeys, m.keys.download, m.keys.downloadAll)
	}
	helpKeys = append(helpKeys, m.keys.theme, m.keys.back, m.keys.quit)
	b.WriteString("\n\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderConfirm() string {
	album := m.session.Album()
	title := m.palette.title.Render(album.PurchaseLabel())

	var info string
	if album.HasPaymentLink() && m.open != nil {
		info = "The payment page was opened in your browser.\nSimulate a successful purchase?"
	} else {
		info = "This would normally redirect to the payment page.\nSimulate a successful purchase?"
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, album.Title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDownload() string {
	album := m.session.Album()
	title := m.palette.title.Render(fmt.Sprintf("Downloading '%s'", album.Title))

	if m.downloading {
		var phase string
		switch m.progress.Phase {
		case tasks.PrepareDownload:
			phase = "Preparing download..."
		case tasks.FetchArtwork:
			phase = "Fetching album art..."
		case tasks.DownloadTrack, tasks.TagTrack:
			phase = fmt.Sprintf("Downloading tracks (%d/%d)", m.progress.Step, m.progress.Total)
		default:
			phase = "Processing..."
		}

		var bar string
		if m.progress.Total > 0 {
			bar = "\n" + m.bar.ViewAs(float64(m.progress.Step)/float64(m.progress.Total))
		}
		return fmt.Sprintf("%s\n%s %s%s\n%s\n\n%s", title, m.spinner.View(), phase, bar, m.progress.Message,
			m.help.ShortHelpView([]key.Binding{m.keys.back}))
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(m.renderStatus())
	if m.result != nil {
		if failures := m.result.Failures(); len(failures) > 0 {
			b.WriteString("\n\n" + m.palette.warn.Render(fmt.Sprintf("Failed to download %d files:", len(failures))))
			for _, f := range failures {
				b.WriteString(fmt.Sprintf("\n  • %s: %v", f.Download.FileName, f.Err))
			}
		}
	}
	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	return b.String()
}
