package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Format selects the slog handler used for output.
type Format string

// Supported output formats
const (
	FormatJSON Format = "json" // FormatJSON writes one JSON object per line (default)
	FormatText Format = "text" // FormatText writes logfmt-style key=value lines
)

// ParseLevel converts a string to a slog.Level.
// Unknown or empty values default to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts a string to a Format. Unknown values default to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// New creates a structured logger writing to w.
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Discard returns a logger that drops every record. Useful for tests and optional dependencies.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Event identifies a diagnostic event emitted by the grabber
type Event string

// Event constants identify the pipeline events that are logged with a stable "event" attribute
const (
	EventCatalogFetched       Event = "catalog_fetched"        // EventCatalogFetched indicates the channel catalog was read
	EventWindowDegraded       Event = "window_degraded"        // EventWindowDegraded indicates a window fetch produced no data due to a failure
	EventChannelEmpty         Event = "channel_empty"          // EventChannelEmpty indicates a channel contributed no programmes
	EventCircuitBreakerChange Event = "circuit_breaker_change" // EventCircuitBreakerChange indicates circuit breaker state transition
	EventGuideWritten         Event = "guide_written"          // EventGuideWritten indicates the guide document was committed
)

// LogWindowDegraded logs a window fetch that degraded to an empty result (DEBUG level).
// Degraded windows are expected during upstream hiccups and are not surfaced as errors.
func LogWindowDegraded(l *slog.Logger, channelID string, window int, reason string, err error) {
	attrs := []any{
		"event", EventWindowDegraded,
		"channel_id", channelID,
		"window", window,
		"reason", reason,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	l.Debug("window fetch degraded", attrs...)
}

// LogChannelEmpty logs a channel that produced no programmes (DEBUG level)
func LogChannelEmpty(l *slog.Logger, channelID, name string) {
	l.Debug("channel has no programmes",
		"event", EventChannelEmpty,
		"channel_id", channelID,
		"channel_name", name,
	)
}

// LogCircuitBreakerChange logs a circuit breaker state change (WARN level)
func LogCircuitBreakerChange(l *slog.Logger, oldState, newState, name string) {
	attrs := []any{
		"event", EventCircuitBreakerChange,
		"old_state", oldState,
		"new_state", newState,
	}
	if name != "" {
		attrs = append(attrs, "breaker", name)
	}
	l.Warn("circuit breaker state changed", attrs...)
}
