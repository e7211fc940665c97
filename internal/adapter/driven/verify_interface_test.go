package driven

import (
	port "github.com/alorle/epg-grabber/internal/port/driven"
)

// Compile-time check that CatalogHTTPFetcher implements CatalogFetcher interface
var _ port.CatalogFetcher = (*CatalogHTTPFetcher)(nil)

// Compile-time check that EPGWindowHTTPFetcher implements WindowFetcher interface
var _ port.WindowFetcher = (*EPGWindowHTTPFetcher)(nil)

// Compile-time check that GuideFileSink implements GuideSink interface
var _ port.GuideSink = (*GuideFileSink)(nil)
