package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alorle/epg-grabber/circuitbreaker"
	"github.com/alorle/epg-grabber/config"
	"github.com/alorle/epg-grabber/internal/adapter/driven"
	"github.com/alorle/epg-grabber/internal/application"
	"github.com/alorle/epg-grabber/internal/xmltv"
	"github.com/alorle/epg-grabber/logging"
	"github.com/alorle/epg-grabber/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file (default $CONFIG_FILE or config.yaml)")
	printConfig := flag.Bool("print-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "epg-grabber: %v\n", err)
		return 1
	}

	if *printConfig {
		cfg.Print(os.Stdout)
		return 0
	}

	// Create structured logger
	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	svc, err := newGuideService(cfg, logger, m)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	logger.Info("starting epg-grabber",
		"catalog_url", cfg.Catalog.URL,
		"window_count", cfg.EPG.WindowCount,
		"channel_concurrency", cfg.Concurrency.Channels,
		"window_concurrency", cfg.Concurrency.Windows,
		"output", cfg.Output.Path,
		"compress", cfg.Output.Compress,
	)

	stats, runErr := svc.Generate(ctx)

	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
	}

	if runErr != nil {
		logger.Error("guide generation failed", "run_id", stats.RunID, "error", runErr)
		return 1
	}
	return 0
}

// newGuideService wires the driven adapters into the guide service.
func newGuideService(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*application.GuideService, error) {
	offset, err := xmltv.ParseOffset(cfg.Output.TimezoneOffset)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.HTTP.Timeout}

	var breaker circuitbreaker.CircuitBreaker
	if cb := cfg.Resilience.CircuitBreaker; cb.Enabled {
		breaker = circuitbreaker.New(circuitbreaker.Config{
			Name:             "epg",
			FailureThreshold: cb.FailureThreshold,
			Timeout:          cb.Timeout,
			HalfOpenRequests: cb.HalfOpenRequests,
			Logger:           logger,
			Metrics:          m,
		})
	}

	// Create driven adapters
	catalog := driven.NewCatalogHTTPFetcher(driven.CatalogHTTPConfig{
		URL:         cfg.Catalog.URL,
		Shape:       cfg.Catalog.Shape,
		LogoBaseURL: cfg.Catalog.LogoBaseURL,
		Headers:     cfg.HTTP.Headers,
	}, client, logger, m)

	windows := driven.NewEPGWindowHTTPFetcher(driven.EPGWindowHTTPConfig{
		URLTemplate: cfg.EPG.URL,
		Headers:     cfg.HTTP.Headers,
		RateLimit:   cfg.HTTP.RateLimit,
		RateBurst:   cfg.HTTP.RateBurst,
	}, client, breaker, logger, m)

	sink := driven.NewGuideFileSink(cfg.Output.Path, cfg.Output.Compress)

	// Create application service
	return application.NewGuideService(catalog, windows, sink, application.GuideServiceConfig{
		FirstWindow:        cfg.EPG.FirstWindow,
		WindowCount:        cfg.EPG.WindowCount,
		ChannelConcurrency: cfg.Concurrency.Channels,
		WindowConcurrency:  cfg.Concurrency.Windows,
		ChannelFilter:      cfg.ChannelFilter,
		Encoder: xmltv.Options{
			Offset:        offset,
			GeneratorName: cfg.Output.GeneratorName,
		},
	}, logger, m), nil
}
