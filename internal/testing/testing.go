// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/albumgate/internal/models"
)

// MockSource is a test double for [services.AlbumSource]. Each call to FetchAlbums
// pops the next configured result; once exhausted the last one repeats.
type MockSource struct {
	mu      sync.Mutex
	name    string
	results []MockResult
	calls   int
}

// MockResult is one canned FetchAlbums outcome.
type MockResult struct {
	Albums []models.Album
	Err    error
}

func NewMockSource(name string, results ...MockResult) *MockSource {
	return &MockSource{name: name, results: results}
}

func (m *MockSource) Name() string { return m.name }

func (m *MockSource) FetchAlbums(ctx context.Context) (*models.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.results) == 0 {
		return models.NewCatalog(), nil
	}

	i := min(m.calls, len(m.results)) - 1
	r := m.results[i]
	if r.Err != nil {
		return nil, r.Err
	}
	return models.NewCatalog(r.Albums...), nil
}

// Calls reports how many times FetchAlbums ran.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockOpener records links instead of launching a browser.
type MockOpener struct {
	mu    sync.Mutex
	Links []string
	Err   error
}

func (o *MockOpener) Open(link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Links = append(o.Links, link)
	return o.Err
}

func (o *MockOpener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.Links...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
