package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ResilienceConfig holds the circuit breaker settings guarding the EPG endpoint
type ResilienceConfig struct {
	CircuitBreaker struct {
		Enabled          bool          `yaml:"enabled"`            // Reject window fetches fast while the upstream is failing
		FailureThreshold int           `yaml:"failure_threshold"`  // Number of consecutive failures before opening circuit
		Timeout          time.Duration `yaml:"timeout"`            // Timeout before attempting to close circuit
		HalfOpenRequests int           `yaml:"half_open_requests"` // Number of requests allowed in half-open state
	} `yaml:"circuit_breaker"`
}

// DefaultResilienceConfig returns a ResilienceConfig with sensible defaults.
// The breaker is disabled by default so every window gets its single attempt.
func DefaultResilienceConfig() *ResilienceConfig {
	cfg := &ResilienceConfig{}
	cfg.CircuitBreaker.Enabled = false
	cfg.CircuitBreaker.FailureThreshold = 50
	cfg.CircuitBreaker.Timeout = 10 * time.Second
	cfg.CircuitBreaker.HalfOpenRequests = 1
	return cfg
}

// applyEnv applies CB_* environment overrides
func (c *ResilienceConfig) applyEnv(p *envParser) {
	p.parseBool("CB_ENABLED", &c.CircuitBreaker.Enabled)
	p.parseInt("CB_FAILURE_THRESHOLD", &c.CircuitBreaker.FailureThreshold)
	p.parseDuration("CB_TIMEOUT", &c.CircuitBreaker.Timeout)
	p.parseInt("CB_HALF_OPEN_REQUESTS", &c.CircuitBreaker.HalfOpenRequests)
}

// Validate performs additional validation on the configuration
func (c *ResilienceConfig) Validate() error {
	if !c.CircuitBreaker.Enabled {
		return nil
	}

	var errors []string

	if c.CircuitBreaker.FailureThreshold <= 0 {
		errors = append(errors, "circuit breaker failure threshold must be positive")
	}
	if c.CircuitBreaker.Timeout <= 0 {
		errors = append(errors, "circuit breaker timeout must be positive")
	}
	if c.CircuitBreaker.HalfOpenRequests <= 0 {
		errors = append(errors, "circuit breaker half-open requests must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// envParser is a helper for parsing environment variables with validation.
// Problems are collected so every bad variable is reported at once.
type envParser struct {
	errors []string
}

func (p *envParser) err() error {
	if len(p.errors) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(p.errors, "\n  - "))
}

// parseString copies a non-empty environment variable into target
func (p *envParser) parseString(envName string, target *string) {
	if val := os.Getenv(envName); val != "" {
		*target = val
	}
}

// parseDuration parses a duration environment variable, ensuring it's positive
func (p *envParser) parseDuration(envName string, target *time.Duration) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: invalid duration format (use '5s', '1m', etc.)", envName))
		return
	}

	if duration <= 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must be positive", envName))
		return
	}

	*target = duration
}

// parseInt parses an integer environment variable, ensuring it's positive
func (p *envParser) parseInt(envName string, target *int) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be a valid integer", envName))
		return
	}

	if intVal <= 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must be positive", envName))
		return
	}

	*target = intVal
}

// parseSignedInt parses an integer environment variable that may be zero or negative
func (p *envParser) parseSignedInt(envName string, target *int) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be a valid integer", envName))
		return
	}

	*target = intVal
}

// parseFloat parses a non-negative float environment variable
func (p *envParser) parseFloat(envName string, target *float64) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be a valid number", envName))
		return
	}

	if f < 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must not be negative", envName))
		return
	}

	*target = f
}

// parseBool parses a boolean environment variable ("true", "1", "false", "0", ...)
func (p *envParser) parseBool(envName string, target *bool) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be a boolean", envName))
		return
	}

	*target = b
}

// parseList splits a comma-separated environment variable into target
func (p *envParser) parseList(envName string, target *[]string) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*target = items
}
