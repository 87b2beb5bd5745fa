package server

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/albumgate/internal/shared"
)

// PurchaseCompletePath is where a payment provider sends the buyer back.
const PurchaseCompletePath = "/purchase/complete"

// PurchaseResult is the outcome of a purchase return.
type PurchaseResult struct {
	AlbumID string
	err     error
}

func (p *PurchaseResult) Error() error {
	return p.err
}

// PurchaseHandler receives the single return request of a purchase flow.
// Implements the Handler interface for registration with a Router.
type PurchaseHandler struct {
	albumID    string
	state      string
	resultChan chan PurchaseResult
	once       sync.Once
	returnHit  bool
	mu         sync.Mutex
}

// NewPurchaseHandler creates a handler expecting albumID and the random state token.
func NewPurchaseHandler(albumID, state string) *PurchaseHandler {
	return &PurchaseHandler{
		albumID:    albumID,
		state:      state,
		resultChan: make(chan PurchaseResult, 1),
	}
}

// ReturnURL builds the link that completes this purchase against a server at baseURL.
func (h *PurchaseHandler) ReturnURL(baseURL string) string {
	q := url.Values{"album": {h.albumID}, "state": {h.state}}
	return baseURL + PurchaseCompletePath + "?" + q.Encode()
}

// Routes returns the HTTP routes this handler serves.
func (h *PurchaseHandler) Routes() []string {
	return []string{"GET " + PurchaseCompletePath}
}

// ServeHTTP validates the state token and album id, then delivers the result.
//
// A status=cancelled query reports [shared.ErrPurchaseDeclined]. Only the first request counts.
func (h *PurchaseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.returnHit {
		h.mu.Unlock()
		http.Error(w, "Purchase already processed", http.StatusBadRequest)
		return
	}
	h.returnHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.Send(PurchaseResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrInvalidInput)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if album := q.Get("album"); album != h.albumID {
		h.Send(PurchaseResult{err: fmt.Errorf("%w: unexpected album %q", shared.ErrInvalidInput, album)})
		http.Error(w, "Unknown album", http.StatusBadRequest)
		return
	}

	if q.Get("status") == "cancelled" {
		h.Send(PurchaseResult{AlbumID: h.albumID, err: shared.ErrPurchaseDeclined})
		renderPage(w, http.StatusOK, "Purchase Cancelled", "No charge was made. You can close this window.")
		return
	}

	h.Send(PurchaseResult{AlbumID: h.albumID})
	renderPage(w, http.StatusOK, "✓ Purchase Complete", "Full tracks and downloads are unlocked. You can close this window and return to the terminal.")
}

// Send sends the purchase result through the channel (only once).
func (h *PurchaseHandler) Send(result PurchaseResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving purchase completion.
//
// Channel will receive exactly one result and then be closed.
func (h *PurchaseHandler) Result() <-chan PurchaseResult {
	return h.resultChan
}

func renderPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #0f0f23; }
        .container { text-align: center; background: #1a1a3e; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 12px rgba(255,0,255,0.3); }
        h1 { color: #ff00ff; margin: 0 0 1rem 0; }
        p { color: #ccc; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(message))
}
