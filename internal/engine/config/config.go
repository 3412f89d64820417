package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config groups the engine settings. Zero values fall back to the engine
// defaults noted on each field, so an empty Config is usable in tests.
type Config struct {
	// TargetBusTypeName is the type name the locator probes for, for example
	// "*hostsim.SignalBus". Leave empty when the engine is wired with an
	// explicit accept predicate instead.
	TargetBusTypeName string `env:"SIGTAP_TARGET_BUS_TYPE"`

	// EventKinds lists the signal kinds the subscription manager attempts to
	// observe once a bus is located.
	EventKinds []string `env:"SIGTAP_EVENT_KINDS" envSeparator:","`

	// StaticJoinPoints lists call sites to intercept, in the form
	// "Owner.Name(param1,param2)". Entries are separated by ";" because
	// parameter lists contain commas. Unresolvable entries are logged and
	// skipped rather than failing setup.
	StaticJoinPoints []string `env:"SIGTAP_STATIC_JOIN_POINTS" envSeparator:";"`

	// DispatchJoinPoint names the low-level dispatch primitive tapped for
	// kinds whose payloads cannot cross the typed subscription path.
	DispatchJoinPoint string `env:"SIGTAP_DISPATCH_JOIN_POINT"`

	// Probe and sampling cadence.
	// ProbeEveryNTicks throttles bus probing while the engine is searching.
	// Defaults to 1 (probe every tick).
	ProbeEveryNTicks int `env:"SIGTAP_PROBE_EVERY_N_TICKS" envDefault:"1"`
	// SampleEveryN throttles expensive payload summaries on hot paths.
	// Counting stays exact; only the reflective summary is sampled.
	// Defaults to 1 (summarise every event).
	SampleEveryN int `env:"SIGTAP_SAMPLE_EVERY_N" envDefault:"1"`

	// Aggregation configuration.
	// RingCapacity bounds the recent-event ring. Defaults to 100.
	RingCapacity int `env:"SIGTAP_RING_CAPACITY" envDefault:"100"`
	// ResetCountersOnDetach clears per-kind counters when a session ends.
	// The recent-event ring is always cleared on detach regardless.
	ResetCountersOnDetach bool `env:"SIGTAP_RESET_COUNTERS_ON_DETACH"`

	// Logging configuration. Both fields seed toggles on the control surface
	// and can be flipped at runtime.
	// LoggingEnabled gates engine log output as a whole.
	LoggingEnabled bool `env:"SIGTAP_LOGGING_ENABLED" envDefault:"true"`
	// VerboseSignalLogging enables a log line per observed signal. When off,
	// per-signal lines are suppressed; counting is unaffected.
	VerboseSignalLogging bool `env:"SIGTAP_VERBOSE_SIGNAL_LOGGING"`

	// Relay configuration.
	// RelayEnabled republishes observed events on the embedded pub/sub
	// channel so external consumers can stream them.
	RelayEnabled bool `env:"SIGTAP_RELAY_ENABLED"`
	// RelayTopic is the topic event records are published to.
	RelayTopic string `env:"SIGTAP_RELAY_TOPIC" envDefault:"sigtap.events"`

	// Metrics configuration.
	MetricsEnabled bool `env:"SIGTAP_METRICS_ENABLED"`
	// MetricsPort is the port where Prometheus metrics will be exposed.
	// Defaults to 9464.
	MetricsPort int `env:"SIGTAP_METRICS_PORT"`

	// Control surface configuration.
	ControlEnabled bool `env:"SIGTAP_CONTROL_ENABLED"`
	// ControlPort is the port where the control API will be exposed.
	// Defaults to 8082.
	ControlPort int `env:"SIGTAP_CONTROL_PORT"`
	// ControlCORSAllowedOrigins specifies allowed origins for CORS. Use "*"
	// for development or specific origins like "https://example.com" for
	// production. Empty disables CORS headers.
	ControlCORSAllowedOrigins []string `env:"SIGTAP_CONTROL_CORS_ALLOWED_ORIGINS" envSeparator:","`

	// TracingEnabled wraps session transitions and snapshot dumps in
	// OpenTelemetry spans. Hot paths are never traced.
	TracingEnabled bool `env:"SIGTAP_TRACING_ENABLED"`
}

func (c Config) String() string {
	// Use a type alias to avoid infinite recursion when printing
	type configAlias Config
	return fmt.Sprintf("%+v", configAlias(c))
}

// Validate checks that the configuration values are usable.
// Returns an error describing any invalid configuration.
// Note: join point strings are not validated here; malformed entries are
// reported as resolution failures during setup so that one bad entry never
// blocks the rest.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.validateCadence()...)
	errs = append(errs, c.validateRelay()...)
	errs = append(errs, c.validatePorts()...)

	return errors.Join(errs...)
}

// validateCadence checks probe, sampling and ring values.
func (c *Config) validateCadence() []error {
	var errs []error
	if c.ProbeEveryNTicks < 0 {
		errs = append(errs, errors.New("probe: tick interval cannot be negative"))
	}
	if c.SampleEveryN < 0 {
		errs = append(errs, errors.New("sample: rate cannot be negative"))
	}
	if c.RingCapacity < 0 {
		errs = append(errs, errors.New("ring: capacity cannot be negative"))
	}
	return errs
}

// validateRelay checks that a topic is set when republishing is on.
func (c *Config) validateRelay() []error {
	if c.RelayEnabled && c.RelayTopic == "" {
		return []error{errors.New("relay: topic is required")}
	}
	return nil
}

// validatePorts checks port configuration values.
func (c *Config) validatePorts() []error {
	var errs []error
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics: invalid port %d", c.MetricsPort))
	}
	if c.ControlPort < 0 || c.ControlPort > 65535 {
		errs = append(errs, fmt.Errorf("control: invalid port %d", c.ControlPort))
	}
	return errs
}

// ValidateConfig is a convenience function to validate a config pointer.
// Returns nil if the config is valid.
func ValidateConfig(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// LoadEnv fills c from SIGTAP_* environment variables.
func LoadEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
