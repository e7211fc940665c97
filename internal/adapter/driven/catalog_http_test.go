package driven

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/alorle/epg-grabber/internal/epg"
	"github.com/alorle/epg-grabber/metrics"
)

func newCatalogServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewCatalogHTTPFetcher(t *testing.T) {
	t.Run("with custom client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: "https://example.com"}, customClient, nil, nil)

		if fetcher.client != customClient {
			t.Error("expected custom client to be used")
		}
	})

	t.Run("with nil client creates default", func(t *testing.T) {
		fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: "https://example.com"}, nil, nil, nil)

		if fetcher.client == nil {
			t.Fatal("expected default client to be created")
		}
		if fetcher.client.Timeout != defaultTimeout {
			t.Errorf("expected timeout %v, got %v", defaultTimeout, fetcher.client.Timeout)
		}
	})

	t.Run("empty shape defaults to auto", func(t *testing.T) {
		fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{}, nil, nil, nil)

		if fetcher.cfg.Shape != CatalogShapeAuto {
			t.Errorf("expected shape %q, got %q", CatalogShapeAuto, fetcher.cfg.Shape)
		}
	})
}

func TestCatalogHTTPFetcher_FetchChannels(t *testing.T) {
	t.Run("sends configured headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("expected GET request, got %s", r.Method)
			}
			if got := r.Header.Get("User-Agent"); got != "Mozilla/5.0" {
				t.Errorf("expected User-Agent Mozilla/5.0, got %q", got)
			}
			if got := r.Header.Get("Referer"); got != "https://jiotv.com/" {
				t.Errorf("expected Referer https://jiotv.com/, got %q", got)
			}
			_, _ = w.Write([]byte(`{"result":[]}`))
		}))
		defer server.Close()

		fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: server.URL}, nil, nil, nil)
		if _, err := fetcher.FetchChannels(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	shapes := []struct {
		name  string
		shape string
		body  string
	}{
		{name: "result list", shape: CatalogShapeAuto, body: `{"code":200,"result":[{"channel_id":143,"channel_name":"News 24","logoUrl":"news.png"}]}`},
		{name: "nested channels", shape: CatalogShapeAuto, body: `{"result":{"channels":[{"channel_id":"143","channel_name":"News 24","logoUrl":"news.png"}]}}`},
		{name: "bare list", shape: CatalogShapeAuto, body: `[{"channel_id":143,"channel_name":"News 24","logoUrl":"news.png"}]`},
		{name: "direct list shape", shape: CatalogShapeDirectList, body: `{"result":[{"channel_id":143,"channel_name":"News 24","logoUrl":"news.png"}]}`},
		{name: "nested channels shape", shape: CatalogShapeNestedChannels, body: `{"result":{"channels":[{"channel_id":143,"channel_name":"News 24","logoUrl":"news.png"}]}}`},
	}
	for _, tt := range shapes {
		t.Run("accepts "+tt.name, func(t *testing.T) {
			server := newCatalogServer(t, http.StatusOK, tt.body)

			fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: server.URL, Shape: tt.shape}, nil, nil, nil)
			channels, err := fetcher.FetchChannels(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(channels) != 1 {
				t.Fatalf("expected 1 channel, got %d", len(channels))
			}
			if channels[0].ID() != "143" {
				t.Errorf("expected channel ID '143', got %q", channels[0].ID())
			}
			if channels[0].Name() != "News 24" {
				t.Errorf("expected channel name 'News 24', got %q", channels[0].Name())
			}
			if channels[0].Logo() != "news.png" {
				t.Errorf("expected logo 'news.png', got %q", channels[0].Logo())
			}
		})
	}

	mismatched := []struct {
		name  string
		shape string
		body  string
	}{
		{name: "nested payload for direct list", shape: CatalogShapeDirectList, body: `{"result":{"channels":[]}}`},
		{name: "list payload for nested channels", shape: CatalogShapeNestedChannels, body: `{"result":[]}`},
		{name: "bare list for nested channels", shape: CatalogShapeNestedChannels, body: `[]`},
	}
	for _, tt := range mismatched {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			server := newCatalogServer(t, http.StatusOK, tt.body)

			fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: server.URL, Shape: tt.shape}, nil, nil, nil)
			_, err := fetcher.FetchChannels(context.Background())
			if !errors.Is(err, epg.ErrCatalogUnavailable) {
				t.Errorf("expected ErrCatalogUnavailable, got %v", err)
			}
		})
	}

	t.Run("missing name falls back to id", func(t *testing.T) {
		server := newCatalogServer(t, http.StatusOK, `{"result":[{"channel_id":99}]}`)

		fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: server.URL}, nil, nil, nil)
		channels, err := fetcher.FetchChannels(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(channels) != 1 {
			t.Fatalf("expected 1 channel, got %d", len(channels))
		}
		if channels[0].Name() != "ID_99" {
			t.Errorf("expected fallback name 'ID_99', got %q", channels[0].Name())
		}
		if channels[0].Logo() != "" {
			t.Errorf("expected empty logo, got %q", channels[0].Logo())
		}
	})

	t.Run("records without id and duplicates are dropped", func(t *testing.T) {
		server := newCatalogServer(t, http.StatusOK, `{"result":[
			{"channel_id":1,"channel_name":"One"},
			{"channel_name":"No ID"},
			{"channel_id":null,"channel_name":"Null ID"},
			"not an object",
			{"channel_id":1,"channel_name":"One Again"},
			{"channel_id":2,"channel_name":"Two"}
		]}`)
		m := metrics.New()

		fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: server.URL}, nil, nil, m)
		channels, err := fetcher.FetchChannels(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(channels) != 2 {
			t.Fatalf("expected 2 channels, got %d", len(channels))
		}
		if channels[0].Name() != "One" || channels[1].ID() != "2" {
			t.Errorf("unexpected channels: %q, %q", channels[0].Name(), channels[1].ID())
		}
		if got := testutil.ToFloat64(m.DroppedRecords.WithLabelValues("channel")); got != 4 {
			t.Errorf("expected 4 dropped channel records, got %v", got)
		}
	})

	t.Run("relative logos resolve against base URL", func(t *testing.T) {
		server := newCatalogServer(t, http.StatusOK, `{"result":[
			{"channel_id":1,"channel_name":"Relative","logoUrl":"News_24.png"},
			{"channel_id":2,"channel_name":"Absolute","logoUrl":"https://other.example.com/two.png"}
		]}`)

		fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: server.URL, LogoBaseURL: "https://cdn.example.com/images"}, nil, nil, nil)
		channels, err := fetcher.FetchChannels(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := channels[0].Logo(); got != "https://cdn.example.com/images/News_24.png" {
			t.Errorf("expected resolved logo, got %q", got)
		}
		if got := channels[1].Logo(); got != "https://other.example.com/two.png" {
			t.Errorf("expected absolute logo unchanged, got %q", got)
		}
	})

	failures := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "HTTP 500", status: http.StatusInternalServerError, want: "500"},
		{name: "HTTP 404", status: http.StatusNotFound, want: "404"},
		{name: "invalid JSON", status: http.StatusOK, body: `{"result":`, want: "parsing catalog JSON"},
		{name: "empty body", status: http.StatusOK, body: ``, want: "empty catalog response"},
		{name: "missing result", status: http.StatusOK, body: `{"code":200}`, want: "no result"},
		{name: "null result", status: http.StatusOK, body: `{"result":null}`, want: "no result"},
		{name: "result without channels", status: http.StatusOK, body: `{"result":{"other":[]}}`, want: "no channels list"},
	}
	for _, tt := range failures {
		t.Run(tt.name+" is fatal", func(t *testing.T) {
			server := newCatalogServer(t, tt.status, tt.body)

			fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: server.URL}, nil, nil, nil)
			_, err := fetcher.FetchChannels(context.Background())
			if !errors.Is(err, epg.ErrCatalogUnavailable) {
				t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got: %v", tt.want, err)
			}
		})
	}

	t.Run("context timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		fetcher := NewCatalogHTTPFetcher(CatalogHTTPConfig{URL: server.URL}, nil, nil, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := fetcher.FetchChannels(ctx)
		if !errors.Is(err, epg.ErrCatalogUnavailable) {
			t.Errorf("expected ErrCatalogUnavailable, got %v", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context deadline error, got: %v", err)
		}
	})
}
