package driven

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/alorle/epg-grabber/internal/epg"
	"github.com/alorle/epg-grabber/logging"
	"github.com/alorle/epg-grabber/metrics"
)

// Catalog response shapes understood by CatalogHTTPFetcher.
const (
	CatalogShapeAuto           = "auto"
	CatalogShapeDirectList     = "direct-list"
	CatalogShapeNestedChannels = "nested-channels"
)

// CatalogHTTPConfig configures a CatalogHTTPFetcher.
type CatalogHTTPConfig struct {
	URL         string
	Shape       string            // one of the CatalogShape constants, auto when empty
	LogoBaseURL string            // base for relative logo names, optional
	Headers     map[string]string // request headers, DefaultHeaders when nil
}

// CatalogHTTPFetcher reads the channel catalog from the remote JSON endpoint.
// It implements the driven.CatalogFetcher port.
type CatalogHTTPFetcher struct {
	cfg     CatalogHTTPConfig
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCatalogHTTPFetcher creates a catalog fetcher.
// If client is nil, it creates a default HTTP client with a 5-second timeout.
func NewCatalogHTTPFetcher(cfg CatalogHTTPConfig, client *http.Client, logger *slog.Logger, m *metrics.Metrics) *CatalogHTTPFetcher {
	if cfg.Shape == "" {
		cfg.Shape = CatalogShapeAuto
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &CatalogHTTPFetcher{
		cfg:     cfg,
		client:  newHTTPClient(client),
		logger:  logger,
		metrics: m,
	}
}

// FetchChannels retrieves every channel in the catalog.
// Any failure to obtain a channel list wraps epg.ErrCatalogUnavailable.
// Records without an id are skipped; repeated ids keep their first occurrence.
func (f *CatalogHTTPFetcher) FetchChannels(ctx context.Context) ([]epg.Channel, error) {
	req, err := newGetRequest(ctx, f.cfg.URL, f.cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", epg.ErrCatalogUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching catalog: %w", epg.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected HTTP status: %d %s", epg.ErrCatalogUnavailable, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %w", epg.ErrCatalogUnavailable, err)
	}

	records, err := extractCatalogRecords(body, f.cfg.Shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", epg.ErrCatalogUnavailable, err)
	}

	channels := make([]epg.Channel, 0, len(records))
	seen := make(map[string]bool, len(records))
	dropped := 0
	for _, raw := range records {
		var rec catalogRecordJSON
		if err := json.Unmarshal(raw, &rec); err != nil {
			dropped++
			continue
		}

		id := strings.TrimSpace(string(rec.ChannelID))
		if id == "" || seen[id] {
			dropped++
			continue
		}

		name := strings.TrimSpace(rec.ChannelName)
		if name == "" {
			name = "ID_" + id
		}

		ch, err := epg.NewChannel(id, name, f.resolveLogo(rec.LogoURL))
		if err != nil {
			dropped++
			continue
		}

		seen[id] = true
		channels = append(channels, ch)
	}

	if dropped > 0 {
		f.logger.Debug("catalog records dropped", "dropped", dropped)
		f.metrics.RecordDropped("channel", dropped)
	}

	return channels, nil
}

// resolveLogo joins relative logo names onto the configured base URL.
// Absolute URLs and an unset base are returned unchanged.
func (f *CatalogHTTPFetcher) resolveLogo(logo string) string {
	logo = strings.TrimSpace(logo)
	if logo == "" || f.cfg.LogoBaseURL == "" {
		return logo
	}

	ref, err := url.Parse(logo)
	if err != nil || ref.IsAbs() {
		return logo
	}
	base, err := url.Parse(f.cfg.LogoBaseURL)
	if err != nil {
		return logo
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(ref).String()
}

// extractCatalogRecords locates the channel list inside a catalog payload.
func extractCatalogRecords(body []byte, shape string) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty catalog response")
	}

	// Top-level array
	if body[0] == '[' {
		if shape == CatalogShapeNestedChannels {
			return nil, fmt.Errorf("catalog is a bare list, expected result.channels")
		}
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("parsing catalog JSON: %w", err)
		}
		return list, nil
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parsing catalog JSON: %w", err)
	}
	result := bytes.TrimSpace(envelope.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, fmt.Errorf("catalog has no result")
	}

	switch {
	case result[0] == '[' && shape != CatalogShapeNestedChannels:
		var list []json.RawMessage
		if err := json.Unmarshal(result, &list); err != nil {
			return nil, fmt.Errorf("parsing catalog result: %w", err)
		}
		return list, nil

	case result[0] == '{' && shape != CatalogShapeDirectList:
		var nested struct {
			Channels []json.RawMessage `json:"channels"`
		}
		if err := json.Unmarshal(result, &nested); err != nil {
			return nil, fmt.Errorf("parsing catalog result: %w", err)
		}
		if nested.Channels == nil {
			return nil, fmt.Errorf("catalog result has no channels list")
		}
		return nested.Channels, nil
	}

	return nil, fmt.Errorf("catalog result does not match shape %q", shape)
}

// catalogRecordJSON is one channel entry of the catalog payload.
type catalogRecordJSON struct {
	ChannelID   flexString `json:"channel_id"`
	ChannelName string     `json:"channel_name"`
	LogoURL     string     `json:"logoUrl"`
}

// flexString accepts a JSON string or number. Null and other types decode to "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*s = flexString(n.String())
	}
	return nil
}
