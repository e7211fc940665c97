package application

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/alorle/epg-grabber/internal/epg"
)

// mockCatalogFetcher is a mock implementation of driven.CatalogFetcher for testing.
type mockCatalogFetcher struct {
	fetchChannelsFunc func(ctx context.Context) ([]epg.Channel, error)
}

func (m *mockCatalogFetcher) FetchChannels(ctx context.Context) ([]epg.Channel, error) {
	if m.fetchChannelsFunc != nil {
		return m.fetchChannelsFunc(ctx)
	}
	return []epg.Channel{}, nil
}

// mockWindowFetcher is a mock implementation of driven.WindowFetcher for testing.
type mockWindowFetcher struct {
	fetchWindowFunc func(ctx context.Context, channelID string, window int) []epg.Programme
}

func (m *mockWindowFetcher) FetchWindow(ctx context.Context, channelID string, window int) []epg.Programme {
	if m.fetchWindowFunc != nil {
		return m.fetchWindowFunc(ctx, channelID, window)
	}
	return nil
}

// mockGuideSink is a mock implementation of driven.GuideSink that keeps the
// last committed document in memory.
type mockGuideSink struct {
	mu             sync.Mutex
	writeGuideFunc func(ctx context.Context, render func(w io.Writer) error) error
	document       []byte
	writes         int
}

func (m *mockGuideSink) WriteGuide(ctx context.Context, render func(w io.Writer) error) error {
	if m.writeGuideFunc != nil {
		return m.writeGuideFunc(ctx, render)
	}

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.document = buf.Bytes()
	m.writes++
	return nil
}

func (m *mockGuideSink) Document() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.document)
}
