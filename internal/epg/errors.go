package epg

import "errors"

// Domain errors for EPG operations.
var (
	// Channel validation errors
	ErrEmptyChannelID   = errors.New("epg channel id cannot be empty")
	ErrEmptyChannelName = errors.New("epg channel name cannot be empty")

	// Programme validation errors
	ErrEmptyTitle = errors.New("epg programme title cannot be empty")

	// Guide errors
	ErrEmptyGuide = errors.New("epg channel has no programmes")

	// Run-level errors. Both abort the run without writing a guide.
	ErrCatalogUnavailable = errors.New("channel catalog unavailable")
	ErrSerialization      = errors.New("guide serialization failed")
)

// DegradeReason explains why a window fetch produced no data.
// Degraded windows are never errors; the reason is only reported for diagnostics.
type DegradeReason string

const (
	DegradeHTTPStatus  DegradeReason = "http_status"
	DegradeTransport   DegradeReason = "transport"
	DegradeDecode      DegradeReason = "decode"
	DegradeCircuitOpen DegradeReason = "circuit_open"
)
