package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog response shapes
const (
	ShapeAuto           = "auto"            // accept any known shape
	ShapeDirectList     = "direct-list"     // "result" is the channel list
	ShapeNestedChannels = "nested-channels" // "result.channels" is the channel list
)

var timezoneOffsetPattern = regexp.MustCompile(`^[+-](?:[01]\d|2[0-3])[0-5]\d$`)

// Config holds the complete grabber configuration
type Config struct {
	// Channel catalog endpoint
	Catalog struct {
		URL         string `yaml:"url"`
		Shape       string `yaml:"shape"`
		LogoBaseURL string `yaml:"logo_base_url"`
	} `yaml:"catalog"`

	// Per-channel EPG endpoint. URL must contain {channel_id} and {offset}.
	EPG struct {
		URL         string `yaml:"url"`
		FirstWindow int    `yaml:"first_window"`
		WindowCount int    `yaml:"window_count"`
	} `yaml:"epg"`

	// Upstream HTTP settings
	HTTP struct {
		Timeout   time.Duration     `yaml:"timeout"`
		Headers   map[string]string `yaml:"headers"`
		RateLimit float64           `yaml:"rate_limit"` // window requests per second, 0 = unlimited
		RateBurst int               `yaml:"rate_burst"`
	} `yaml:"http"`

	// Fan-out ceilings
	Concurrency struct {
		Channels int `yaml:"channels"`
		Windows  int `yaml:"windows"`
	} `yaml:"concurrency"`

	// Guide document output
	Output struct {
		Path           string `yaml:"path"`
		Compress       bool   `yaml:"compress"`
		TimezoneOffset string `yaml:"timezone_offset"`
		GeneratorName  string `yaml:"generator_name"`
	} `yaml:"output"`

	// Optional allow-list of channel ids; empty means every catalog channel
	ChannelFilter []string `yaml:"channel_filter"`

	// Resilience settings (embedded)
	Resilience ResilienceConfig `yaml:"resilience"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	// Validate endpoints
	if c.Catalog.URL == "" {
		errors = append(errors, "catalog URL is required")
	}
	switch c.Catalog.Shape {
	case ShapeAuto, ShapeDirectList, ShapeNestedChannels:
	default:
		errors = append(errors, fmt.Sprintf("catalog shape must be one of: %s, %s, %s", ShapeAuto, ShapeDirectList, ShapeNestedChannels))
	}
	if c.EPG.URL == "" {
		errors = append(errors, "EPG URL is required")
	} else {
		if !strings.Contains(c.EPG.URL, "{channel_id}") {
			errors = append(errors, "EPG URL must contain {channel_id}")
		}
		if !strings.Contains(c.EPG.URL, "{offset}") {
			errors = append(errors, "EPG URL must contain {offset}")
		}
	}
	if c.EPG.WindowCount <= 0 {
		errors = append(errors, "EPG window count must be positive")
	}

	// Validate HTTP settings
	if c.HTTP.Timeout <= 0 {
		errors = append(errors, "HTTP timeout must be positive")
	}
	if c.HTTP.RateLimit < 0 {
		errors = append(errors, "HTTP rate limit must not be negative")
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateBurst <= 0 {
		errors = append(errors, "HTTP rate burst must be positive when a rate limit is set")
	}

	// Validate concurrency
	if c.Concurrency.Channels <= 0 {
		errors = append(errors, "channel concurrency must be positive")
	}
	if c.Concurrency.Windows <= 0 {
		errors = append(errors, "window concurrency must be positive")
	}

	// Validate output
	if c.Output.Path == "" {
		errors = append(errors, "output path is required")
	}
	if !timezoneOffsetPattern.MatchString(c.Output.TimezoneOffset) {
		errors = append(errors, fmt.Sprintf("timezone offset %q must look like +0000 or +0530", c.Output.TimezoneOffset))
	}

	// Validate logging
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errors = append(errors, "log level must be one of: DEBUG, INFO, WARN, ERROR")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errors = append(errors, "log format must be one of: json, text")
	}

	// Validate resilience config
	if err := c.Resilience.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("resilience config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	// Endpoint defaults
	cfg.Catalog.URL = "https://jiotvapi.cdn.jio.com/apis/v3.0/getMobileChannelList/get/?langId=6&devicetype=phone&os=android&usertype=JIO&version=343"
	cfg.Catalog.Shape = ShapeAuto
	cfg.EPG.URL = "https://jiotvapi.cdn.jio.com/apis/v1.3/getepg/get?channel_id={channel_id}&offset={offset}"
	cfg.EPG.FirstWindow = 0
	cfg.EPG.WindowCount = 8

	// HTTP defaults
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.Headers = map[string]string{
		"User-Agent": "Mozilla/5.0",
		"Referer":    "https://jiotv.com/",
	}
	cfg.HTTP.RateBurst = 1

	// Concurrency defaults
	cfg.Concurrency.Channels = 30
	cfg.Concurrency.Windows = 8

	// Output defaults
	cfg.Output.Path = "jiotv_epg.xml.gz"
	cfg.Output.Compress = true
	cfg.Output.TimezoneOffset = "+0000"
	cfg.Output.GeneratorName = "epg-grabber"

	// Logging defaults
	cfg.Log.Level = "INFO"
	cfg.Log.Format = "json"

	// Resilience defaults
	cfg.Resilience = *DefaultResilienceConfig()

	return cfg
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from a file (if present), applies environment variable
// overrides and validates the result. An empty path falls back to CONFIG_FILE and
// then to config.yaml; a missing default file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
		explicit = path != ""
	}
	if path == "" {
		path = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(path); err == nil {
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	p := &envParser{}

	p.parseString("CATALOG_URL", &cfg.Catalog.URL)
	p.parseString("CATALOG_SHAPE", &cfg.Catalog.Shape)
	p.parseString("CATALOG_LOGO_BASE_URL", &cfg.Catalog.LogoBaseURL)

	p.parseString("EPG_URL", &cfg.EPG.URL)
	p.parseSignedInt("EPG_FIRST_WINDOW", &cfg.EPG.FirstWindow)
	p.parseInt("WINDOW_COUNT", &cfg.EPG.WindowCount)

	p.parseDuration("HTTP_TIMEOUT", &cfg.HTTP.Timeout)
	p.parseFloat("HTTP_RATE_LIMIT", &cfg.HTTP.RateLimit)
	p.parseInt("HTTP_RATE_BURST", &cfg.HTTP.RateBurst)
	if val := os.Getenv("HTTP_USER_AGENT"); val != "" {
		if cfg.HTTP.Headers == nil {
			cfg.HTTP.Headers = map[string]string{}
		}
		cfg.HTTP.Headers["User-Agent"] = val
	}

	p.parseInt("CHANNEL_CONCURRENCY", &cfg.Concurrency.Channels)
	p.parseInt("WINDOW_CONCURRENCY", &cfg.Concurrency.Windows)

	p.parseString("OUTPUT_PATH", &cfg.Output.Path)
	p.parseBool("OUTPUT_COMPRESS", &cfg.Output.Compress)
	p.parseString("TIMEZONE_OFFSET", &cfg.Output.TimezoneOffset)
	p.parseString("GENERATOR_NAME", &cfg.Output.GeneratorName)

	p.parseList("CHANNEL_FILTER", &cfg.ChannelFilter)

	p.parseString("LOG_LEVEL", &cfg.Log.Level)
	p.parseString("LOG_FORMAT", &cfg.Log.Format)
	p.parseString("METRICS_TEXTFILE", &cfg.Metrics.Textfile)

	cfg.Resilience.applyEnv(p)

	return p.err()
}

// Print writes a human readable summary of the configuration to w
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "catalogUrl: %v\n", c.Catalog.URL)
	fmt.Fprintf(w, "catalogShape: %v\n", c.Catalog.Shape)
	fmt.Fprintf(w, "epgUrl: %v\n", c.EPG.URL)
	fmt.Fprintf(w, "windows: %d from offset %d\n", c.EPG.WindowCount, c.EPG.FirstWindow)
	fmt.Fprintf(w, "httpTimeout: %v\n", c.HTTP.Timeout)
	keys := make([]string, 0, len(c.HTTP.Headers))
	for k := range c.HTTP.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  - %s: %s\n", k, c.HTTP.Headers[k])
	}
	if c.HTTP.RateLimit > 0 {
		fmt.Fprintf(w, "rateLimit: %v/s (burst %d)\n", c.HTTP.RateLimit, c.HTTP.RateBurst)
	}
	fmt.Fprintf(w, "channelConcurrency: %d\n", c.Concurrency.Channels)
	fmt.Fprintf(w, "windowConcurrency: %d\n", c.Concurrency.Windows)
	fmt.Fprintf(w, "outputPath: %v\n", c.Output.Path)
	fmt.Fprintf(w, "compressOutput: %v\n", c.Output.Compress)
	fmt.Fprintf(w, "timezoneOffset: %v\n", c.Output.TimezoneOffset)
	fmt.Fprintf(w, "channelFilter: %d channels\n", len(c.ChannelFilter))
	fmt.Fprintf(w, "circuitBreaker: %v\n", c.Resilience.CircuitBreaker.Enabled)
	fmt.Fprintf(w, "logLevel: %v\n", c.Log.Level)
	fmt.Fprintf(w, "metricsTextfile: %v\n", c.Metrics.Textfile)
}
