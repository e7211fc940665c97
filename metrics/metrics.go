package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Window fetch outcomes
const (
	OutcomeOK       = "ok"        // window returned at least one valid programme
	OutcomeEmpty    = "empty"     // window returned no valid programmes
	OutcomeNotFound = "not_found" // upstream has no data for the window
	OutcomeDegraded = "degraded"  // window failed and was absorbed as empty
)

// Channel aggregation results
const (
	ChannelGuide = "guide"
	ChannelEmpty = "empty"
)

// Metrics holds the collectors for one grabber run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// WindowFetches tracks window fetches by outcome and degrade reason
	WindowFetches *prometheus.CounterVec

	// DroppedRecords tracks upstream records discarded at the fetch boundary by kind (programme, channel)
	DroppedRecords *prometheus.CounterVec

	// Channels tracks aggregated channels by result
	Channels *prometheus.CounterVec

	// Programmes tracks programmes written to the guide
	Programmes prometheus.Counter

	// CatalogChannels is the number of channels in the catalog
	CatalogChannels prometheus.Gauge

	// RunDuration is the wall-clock duration of the last run in seconds
	RunDuration prometheus.Gauge

	// LastSuccess is the unix time of the last successful run
	LastSuccess prometheus.Gauge

	// CircuitBreakerState tracks the current state of circuit breakers
	// 0=closed, 1=open, 2=half-open
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerTrips tracks how many times a circuit breaker transitioned to OPEN
	CircuitBreakerTrips *prometheus.CounterVec
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		WindowFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epg_window_fetches_total",
			Help: "Total number of EPG window fetches by outcome",
		}, []string{"outcome", "reason"}),
		DroppedRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epg_dropped_records_total",
			Help: "Total number of upstream records discarded as invalid",
		}, []string{"kind"}),
		Channels: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epg_channels_total",
			Help: "Total number of aggregated channels by result",
		}, []string{"result"}),
		Programmes: factory.NewCounter(prometheus.CounterOpts{
			Name: "epg_programmes_total",
			Help: "Total number of programmes written to the guide",
		}),
		CatalogChannels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "epg_catalog_channels",
			Help: "Number of channels in the fetched catalog",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "epg_run_duration_seconds",
			Help: "Wall-clock duration of the last grabber run",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "epg_last_success_timestamp_seconds",
			Help: "Unix time of the last successful grabber run",
		}),
		CircuitBreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "epg_circuit_breaker_state",
			Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
		}, []string{"breaker"}),
		CircuitBreakerTrips: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epg_circuit_breaker_trips_total",
			Help: "Total number of times circuit breaker transitioned to OPEN state",
		}, []string{"breaker"}),
	}
}

// Registry returns the registry the collectors are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordWindow increments the window fetch counter. reason is empty unless outcome is OutcomeDegraded.
func (m *Metrics) RecordWindow(outcome, reason string) {
	if m == nil {
		return
	}
	m.WindowFetches.WithLabelValues(outcome, reason).Inc()
}

// RecordDropped adds n discarded upstream records of the given kind
func (m *Metrics) RecordDropped(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DroppedRecords.WithLabelValues(kind).Add(float64(n))
}

// RecordChannel increments the channel counter for result
func (m *Metrics) RecordChannel(result string) {
	if m == nil {
		return
	}
	m.Channels.WithLabelValues(result).Inc()
}

// AddProgrammes adds n to the programme counter
func (m *Metrics) AddProgrammes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Programmes.Add(float64(n))
}

// SetCatalogChannels sets the catalog size
func (m *Metrics) SetCatalogChannels(n int) {
	if m == nil {
		return
	}
	m.CatalogChannels.Set(float64(n))
}

// ObserveRun records the run duration and, on success, the completion time
func (m *Metrics) ObserveRun(d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.RunDuration.Set(d.Seconds())
	if success {
		m.LastSuccess.SetToCurrentTime()
	}
}

// SetCircuitBreakerState updates the circuit breaker state metric
// state should be one of: "CLOSED" (0), "OPEN" (1), "HALF-OPEN" (2)
func (m *Metrics) SetCircuitBreakerState(name, state string) {
	if m == nil {
		return
	}
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(value)
}

// RecordCircuitBreakerTrip increments the circuit breaker trip counter
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	if m == nil {
		return
	}
	m.CircuitBreakerTrips.WithLabelValues(name).Inc()
}

// WriteTextfile writes all collected metrics to path in the Prometheus text format,
// suitable for the node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
