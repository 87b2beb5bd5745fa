// Published sheet CSV [AlbumSource]
package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
)

// CSVSource reads albums from a published sheet exported as CSV, either over http(s) or from a local file.
type CSVSource struct {
	location   string
	currency   string
	httpClient *http.Client
}

// NewCSVSource creates a CSV source. A nil client uses [http.DefaultClient].
func NewCSVSource(location, currency string, client *http.Client) *CSVSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &CSVSource{location: location, currency: currency, httpClient: client}
}

// Name returns the source name.
func (c *CSVSource) Name() string {
	return "csv"
}

// FetchAlbums downloads (or reads) the sheet and parses it.
func (c *CSVSource) FetchAlbums(ctx context.Context) (*models.Catalog, error) {
	data, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return ParseSheetCSV(data, c.currency)
}

func (c *CSVSource) read(ctx context.Context) ([]byte, error) {
	if c.location == "" {
		return nil, fmt.Errorf("%w: no CSV location configured", shared.ErrSourceUnavailable)
	}

	if !strings.HasPrefix(c.location, "http://") && !strings.HasPrefix(c.location, "https://") {
		data, err := os.ReadFile(c.location)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: sheet returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// ParseSheetCSV parses the sheet layout. The AlbumID column is required and rows without an id are skipped.
// When a column name repeats, the first occurrence wins. A sheet yielding no albums is an error.
func ParseSheetCSV(data []byte, currency string) (*models.Catalog, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCatalog, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: sheet has no data rows", shared.ErrEmptyCatalog)
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	if _, ok := index[ColAlbumID]; !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingColumn, ColAlbumID)
	}

	catalog := models.NewCatalog()
	for _, record := range records[1:] {
		r := make(row, len(index))
		for col, i := range index {
			if i < len(record) {
				r[col] = record[i]
			}
		}
		if album, ok := albumFromRow(r, currency); ok {
			catalog.Add(album)
		}
	}

	if catalog.Len() == 0 {
		return nil, shared.ErrEmptyCatalog
	}
	return catalog, nil
}
