package driven

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alorle/epg-grabber/circuitbreaker"
	"github.com/alorle/epg-grabber/internal/epg"
	"github.com/alorle/epg-grabber/logging"
	"github.com/alorle/epg-grabber/metrics"
)

// EPGWindowHTTPConfig configures an EPGWindowHTTPFetcher.
type EPGWindowHTTPConfig struct {
	// URLTemplate contains {channel_id} and {offset} placeholders.
	URLTemplate string
	Headers     map[string]string // request headers, DefaultHeaders when nil

	// RateLimit caps window requests per second across all callers; 0 disables it.
	RateLimit float64
	RateBurst int // burst for RateLimit, at least 1
}

// EPGWindowHTTPFetcher fetches one schedule window of one channel via HTTP.
// It implements the driven.WindowFetcher port: failures never escape, they
// degrade to an empty window and are reported through logs and metrics.
type EPGWindowHTTPFetcher struct {
	cfg     EPGWindowHTTPConfig
	client  *http.Client
	breaker circuitbreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEPGWindowHTTPFetcher creates a window fetcher.
// If client is nil, it creates a default HTTP client with a 5-second timeout.
// breaker, logger and m are optional.
func NewEPGWindowHTTPFetcher(cfg EPGWindowHTTPConfig, client *http.Client, breaker circuitbreaker.CircuitBreaker, logger *slog.Logger, m *metrics.Metrics) *EPGWindowHTTPFetcher {
	if logger == nil {
		logger = logging.Discard()
	}
	f := &EPGWindowHTTPFetcher{
		cfg:     cfg,
		client:  newHTTPClient(client),
		breaker: breaker,
		logger:  logger,
		metrics: m,
	}
	if cfg.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}
	return f
}

// errWindowNotFound marks a 404: the upstream has no data for the window.
var errWindowNotFound = errors.New("window not found")

// windowError carries the degrade reason of a failed window fetch.
type windowError struct {
	reason epg.DegradeReason
	err    error
}

func (e *windowError) Error() string { return string(e.reason) + ": " + e.err.Error() }
func (e *windowError) Unwrap() error { return e.err }

// FetchWindow retrieves the valid programmes of channelID for the given window offset.
func (f *EPGWindowHTTPFetcher) FetchWindow(ctx context.Context, channelID string, window int) []epg.Programme {
	var body []byte
	fetch := func() error {
		var err error
		body, err = f.fetch(ctx, channelID, window)
		// 404 is a valid answer and must not count against the breaker
		if errors.Is(err, errWindowNotFound) {
			return nil
		}
		return err
	}

	var err error
	if f.breaker != nil {
		err = f.breaker.Execute(fetch)
	} else {
		err = fetch()
	}

	if err != nil {
		reason := epg.DegradeTransport
		var we *windowError
		switch {
		case circuitbreaker.IsRejection(err):
			reason = epg.DegradeCircuitOpen
		case errors.As(err, &we):
			reason = we.reason
		}
		f.degrade(channelID, window, reason, err)
		return nil
	}

	if body == nil {
		f.metrics.RecordWindow(metrics.OutcomeNotFound, "")
		return nil
	}

	programmes, dropped, err := decodeWindow(body)
	if err != nil {
		f.degrade(channelID, window, epg.DegradeDecode, err)
		return nil
	}
	if dropped > 0 {
		f.metrics.RecordDropped("programme", dropped)
	}

	if len(programmes) == 0 {
		f.metrics.RecordWindow(metrics.OutcomeEmpty, "")
		return nil
	}
	f.metrics.RecordWindow(metrics.OutcomeOK, "")
	return programmes
}

func (f *EPGWindowHTTPFetcher) degrade(channelID string, window int, reason epg.DegradeReason, err error) {
	logging.LogWindowDegraded(f.logger, channelID, window, string(reason), err)
	f.metrics.RecordWindow(metrics.OutcomeDegraded, string(reason))
}

// fetch performs the HTTP round trip. It returns a nil body and
// errWindowNotFound on 404.
func (f *EPGWindowHTTPFetcher) fetch(ctx context.Context, channelID string, window int) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &windowError{reason: epg.DegradeTransport, err: fmt.Errorf("waiting for rate limiter: %w", err)}
		}
	}

	req, err := newGetRequest(ctx, f.windowURL(channelID, window), f.cfg.Headers)
	if err != nil {
		return nil, &windowError{reason: epg.DegradeTransport, err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &windowError{reason: epg.DegradeTransport, err: fmt.Errorf("fetching window: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errWindowNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &windowError{reason: epg.DegradeHTTPStatus, err: fmt.Errorf("unexpected HTTP status: %d %s", resp.StatusCode, resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &windowError{reason: epg.DegradeTransport, err: fmt.Errorf("reading response body: %w", err)}
	}
	if body == nil {
		body = []byte{}
	}
	return body, nil
}

func (f *EPGWindowHTTPFetcher) windowURL(channelID string, window int) string {
	return strings.NewReplacer(
		"{channel_id}", url.QueryEscape(channelID),
		"{offset}", strconv.Itoa(window),
	).Replace(f.cfg.URLTemplate)
}

// decodeWindow parses a window payload. Records are decoded one at a time so
// a malformed record is dropped without affecting its neighbours. A payload
// without an "epg" list is an empty window.
func decodeWindow(body []byte) ([]epg.Programme, int, error) {
	var payload struct {
		EPG []json.RawMessage `json:"epg"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("parsing window JSON: %w", err)
	}

	programmes := make([]epg.Programme, 0, len(payload.EPG))
	dropped := 0
	for _, raw := range payload.EPG {
		p, ok := decodeProgramme(raw)
		if !ok {
			dropped++
			continue
		}
		programmes = append(programmes, p)
	}
	return programmes, dropped, nil
}

// programmeJSON is one entry of a window's "epg" list.
type programmeJSON struct {
	StartEpoch  *flexInt        `json:"startEpoch"`
	EndEpoch    *flexInt        `json:"endEpoch"`
	ShowName    flexString      `json:"showname"`
	Title       flexString      `json:"title"`
	Description string          `json:"description"`
	ShowGenre   json.RawMessage `json:"showGenre"`
	EpisodeNum  episodeNum      `json:"episode_num"`
}

// Epochs outside this range cannot be rendered with a four-digit year in
// every supported offset.
var (
	minEpochMS = time.Date(1, time.January, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	maxEpochMS = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC).UnixMilli()
)

func decodeProgramme(raw json.RawMessage) (epg.Programme, bool) {
	var rec programmeJSON
	if err := json.Unmarshal(raw, &rec); err != nil {
		return epg.Programme{}, false
	}
	if rec.StartEpoch == nil || rec.EndEpoch == nil {
		return epg.Programme{}, false
	}
	start, end := int64(*rec.StartEpoch), int64(*rec.EndEpoch)
	if !epochInRange(start) || !epochInRange(end) {
		return epg.Programme{}, false
	}

	title := string(rec.ShowName)
	if strings.TrimSpace(title) == "" {
		title = string(rec.Title)
	}

	p, err := epg.NewProgramme(start, end, title, rec.Description, decodeGenres(rec.ShowGenre), string(rec.EpisodeNum))
	if err != nil {
		return epg.Programme{}, false
	}
	return p, true
}

// decodeGenres reads a list of genre names, skipping non-string items.
// Anything other than a list yields no genres.
func decodeGenres(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var genres []string
	for _, item := range items {
		var g string
		if err := json.Unmarshal(item, &g); err == nil {
			genres = append(genres, g)
		}
	}
	return genres
}

// flexInt accepts a JSON integer or a string holding one.
type flexInt int64

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}

	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil {
			return fmt.Errorf("invalid epoch %q: %w", data, err)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return fmt.Errorf("epoch %q out of range", data)
		}
		v = int64(f)
	}
	*n = flexInt(v)
	return nil
}

func epochInRange(ms int64) bool {
	return ms >= minEpochMS && ms <= maxEpochMS
}

// episodeNum accepts a JSON string or number. A numeric zero, null and
// other types decode to "". A quoted "0" is kept.
type episodeNum string

func (e *episodeNum) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '"' {
		if f, err := strconv.ParseFloat(string(s), 64); err == nil && f == 0 {
			s = ""
		}
	}
	*e = episodeNum(s)
	return nil
}
