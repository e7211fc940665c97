package driven

import (
	"context"

	"github.com/alorle/epg-grabber/internal/epg"
)

// CatalogFetcher defines the interface for retrieving the channel catalog from the remote service.
// This is a driven port that will be implemented by concrete adapters (e.g., HTTP client).
type CatalogFetcher interface {
	// FetchChannels retrieves every channel in the catalog.
	// Returns an error wrapping epg.ErrCatalogUnavailable if the catalog cannot be read;
	// callers treat that as fatal for the run.
	FetchChannels(ctx context.Context) ([]epg.Channel, error)
}

// WindowFetcher defines the interface for retrieving one window of a channel's schedule.
// This is a driven port that will be implemented by concrete adapters (e.g., HTTP client).
type WindowFetcher interface {
	// FetchWindow retrieves the valid programmes of channelID for the given window offset.
	// It never fails: missing data, upstream errors and malformed payloads all yield an
	// empty slice. Every returned programme has a start, an end and a non-empty title.
	FetchWindow(ctx context.Context, channelID string, window int) []epg.Programme
}
