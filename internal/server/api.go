package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/albumgate/internal/formatter"
	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/services"
	"github.com/desertthunder/albumgate/internal/shared"
)

// AlbumCatalog is the read side of [services.Catalog] the API needs.
type AlbumCatalog interface {
	Albums(ctx context.Context) (*models.Catalog, error)
	Status() services.Status
}

// API serves the album catalog as JSON.
type API struct {
	catalog AlbumCatalog
	store   gate.PurchaseStore
	logger  *log.Logger
}

// NewAPI creates the catalog API. store may be nil, in which case locked albums report unpurchased.
func NewAPI(catalog AlbumCatalog, store gate.PurchaseStore, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	return &API{catalog: catalog, store: store, logger: logger}
}

// Register adds the API routes to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.Health))
	r.Handle(http.MethodGet, "/albums", http.HandlerFunc(a.ListAlbums))
	r.Handle(http.MethodGet, "/albums/{id}", http.HandlerFunc(a.GetAlbum))
}

type healthResponse struct {
	Status   string `json:"status"`
	Source   string `json:"source"`
	Albums   int    `json:"albums"`
	Fallback bool   `json:"fallback"`
	Message  string `json:"message"`
}

type albumSummary struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Theme     models.Theme `json:"theme"`
	Lock      bool         `json:"lock"`
	Download  bool         `json:"download"`
	Tracks    int          `json:"tracks"`
	Duration  string       `json:"duration"`
	Price     string       `json:"price,omitempty"`
	Purchased bool         `json:"purchased"`
}

type albumDetail struct {
	models.Album
	Purchased     bool   `json:"purchased"`
	State         string `json:"state"`
	PurchaseLabel string `json:"purchase_label"`
}

// Health reports liveness and where the albums came from.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	albums, err := a.catalog.Albums(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	st := a.catalog.Status()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Source:   st.Source,
		Albums:   albums.Len(),
		Fallback: st.Fallback,
		Message:  st.Message(),
	})
}

// ListAlbums returns a summary of every album in catalog order.
func (a *API) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := a.catalog.Albums(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	out := make([]albumSummary, 0, albums.Len())
	for _, album := range albums.Albums() {
		out = append(out, albumSummary{
			ID:        album.ID,
			Title:     album.Title,
			Theme:     album.Theme,
			Lock:      album.Lock,
			Download:  album.Download,
			Tracks:    len(album.Tracks),
			Duration:  formatter.FormatTime(album.TotalDuration()),
			Price:     album.Price.Display(),
			Purchased: a.purchased(album),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetAlbum returns one album with its tracks and persisted purchase state.
func (a *API) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	albums, err := a.catalog.Albums(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	album, ok := albums.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, shared.ErrAlbumNotFound.Error()+": "+id)
		return
	}

	purchased := a.purchased(album)
	state := gate.LockedPreview
	if purchased {
		state = gate.Unlocked
	}
	writeJSON(w, http.StatusOK, albumDetail{
		Album:         album,
		Purchased:     purchased,
		State:         state.String(),
		PurchaseLabel: album.PurchaseLabel(),
	})
}

// purchased mirrors how the gate initializes a session: free albums are always unlocked,
// locked ones consult the store and read as locked on error.
func (a *API) purchased(album models.Album) bool {
	if !album.Lock {
		return true
	}
	if a.store == nil {
		return false
	}
	ok, err := a.store.Purchased(album.ID)
	if err != nil {
		a.logger.Warn("purchase lookup failed", "album", album.ID, "error", err)
		return false
	}
	return ok
}
