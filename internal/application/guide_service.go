package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alorle/epg-grabber/internal/epg"
	"github.com/alorle/epg-grabber/internal/port/driven"
	"github.com/alorle/epg-grabber/internal/xmltv"
	"github.com/alorle/epg-grabber/logging"
	"github.com/alorle/epg-grabber/metrics"
)

// GuideServiceConfig controls the fan-out and output of a GuideService.
type GuideServiceConfig struct {
	FirstWindow        int
	WindowCount        int
	ChannelConcurrency int
	WindowConcurrency  int
	ChannelFilter      []string // allow-list of channel ids; empty keeps every channel
	Encoder            xmltv.Options
}

// RunStats summarises one grabber run.
type RunStats struct {
	RunID            string
	CatalogChannels  int // channels returned by the catalog
	SelectedChannels int // channels left after the filter
	GuideChannels    int // channels with at least one programme
	EmptyChannels    int // channels dropped for having no programmes
	Programmes       int
	Duration         time.Duration
}

// GuideService orchestrates a grabber run: read the catalog, aggregate every
// channel concurrently and write the XMLTV document.
type GuideService struct {
	catalog driven.CatalogFetcher
	windows driven.WindowFetcher
	sink    driven.GuideSink
	cfg     GuideServiceConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewGuideService creates a new guide service with the required dependencies.
// logger and m are optional.
func NewGuideService(
	catalog driven.CatalogFetcher,
	windows driven.WindowFetcher,
	sink driven.GuideSink,
	cfg GuideServiceConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *GuideService {
	if cfg.ChannelConcurrency <= 0 {
		cfg.ChannelConcurrency = 1
	}
	if cfg.WindowConcurrency <= 0 {
		cfg.WindowConcurrency = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &GuideService{
		catalog: catalog,
		windows: windows,
		sink:    sink,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// Collect fetches the catalog and aggregates every selected channel.
// Guides are returned in completion order; channels without programmes are
// left out. The only error is a catalog failure, which aborts the run.
func (s *GuideService) Collect(ctx context.Context) ([]epg.Guide, RunStats, error) {
	stats := RunStats{RunID: uuid.NewString()}
	return s.collect(ctx, s.logger.With("run_id", stats.RunID), stats)
}

func (s *GuideService) collect(ctx context.Context, logger *slog.Logger, stats RunStats) ([]epg.Guide, RunStats, error) {
	start := time.Now()

	channels, err := s.catalog.FetchChannels(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to fetch channel catalog: %w", err)
	}
	stats.CatalogChannels = len(channels)
	s.metrics.SetCatalogChannels(len(channels))

	channels = s.filter(channels)
	stats.SelectedChannels = len(channels)
	logger.Info("channel catalog fetched",
		"event", logging.EventCatalogFetched,
		"channels", stats.CatalogChannels,
		"selected", stats.SelectedChannels,
	)

	aggregator := NewChannelAggregator(
		s.windows,
		epg.Windows(s.cfg.FirstWindow, s.cfg.WindowCount),
		s.cfg.WindowConcurrency,
	)

	var (
		mu     sync.Mutex
		guides = make([]epg.Guide, 0, len(channels))
	)

	var g errgroup.Group
	g.SetLimit(s.cfg.ChannelConcurrency)
	for _, ch := range channels {
		g.Go(func() error {
			guide, ok := aggregator.Aggregate(ctx, ch)
			if !ok {
				logging.LogChannelEmpty(logger, ch.ID(), ch.Name())
				s.metrics.RecordChannel(metrics.ChannelEmpty)
				mu.Lock()
				stats.EmptyChannels++
				mu.Unlock()
				return nil
			}

			s.metrics.RecordChannel(metrics.ChannelGuide)
			mu.Lock()
			guides = append(guides, guide)
			stats.Programmes += guide.Len()
			mu.Unlock()
			return nil
		})
	}
	// Aggregation never fails.
	_ = g.Wait()

	stats.GuideChannels = len(guides)
	stats.Duration = time.Since(start)
	return guides, stats, nil
}

// filter applies the channel allow-list, keeping catalog order.
func (s *GuideService) filter(channels []epg.Channel) []epg.Channel {
	if len(s.cfg.ChannelFilter) == 0 {
		return channels
	}

	allowed := make(map[string]bool, len(s.cfg.ChannelFilter))
	for _, id := range s.cfg.ChannelFilter {
		allowed[id] = true
	}

	selected := make([]epg.Channel, 0, len(s.cfg.ChannelFilter))
	for _, ch := range channels {
		if allowed[ch.ID()] {
			selected = append(selected, ch)
		}
	}
	return selected
}

// Generate performs a complete run and writes the guide document to the sink.
// A run where every channel came back empty still writes a valid document.
// Errors wrap epg.ErrCatalogUnavailable or epg.ErrSerialization, or come from the sink.
func (s *GuideService) Generate(ctx context.Context) (RunStats, error) {
	start := time.Now()
	stats := RunStats{RunID: uuid.NewString()}
	logger := s.logger.With("run_id", stats.RunID)

	guides, stats, err := s.collect(ctx, logger, stats)
	if err != nil {
		s.metrics.ObserveRun(time.Since(start), false)
		return stats, err
	}

	enc := xmltv.NewEncoder(s.cfg.Encoder)
	for _, g := range guides {
		enc.AddGuide(g)
	}

	if err := s.sink.WriteGuide(ctx, enc.Encode); err != nil {
		s.metrics.ObserveRun(time.Since(start), false)
		return stats, fmt.Errorf("failed to write guide: %w", err)
	}

	stats.Duration = time.Since(start)
	s.metrics.AddProgrammes(stats.Programmes)
	s.metrics.ObserveRun(stats.Duration, true)
	logger.Info("guide written",
		"event", logging.EventGuideWritten,
		"channels", stats.GuideChannels,
		"empty_channels", stats.EmptyChannels,
		"programmes", stats.Programmes,
		"duration", stats.Duration,
	)
	return stats, nil
}
