package config

import (
	"strings"
	"testing"
)

func TestValidateZeroValueIsUsable(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected zero config to validate, got %v", err)
	}
}

func TestValidateRejectsNegativeCadence(t *testing.T) {
	cfg := Config{
		ProbeEveryNTicks: -1,
		SampleEveryN:     -2,
		RingCapacity:     -3,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{
		"probe: tick interval cannot be negative",
		"sample: rate cannot be negative",
		"ring: capacity cannot be negative",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}
}

func TestValidateRejectsInvalidPorts(t *testing.T) {
	cfg := Config{MetricsPort: 70000, ControlPort: -1}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "metrics: invalid port 70000") {
		t.Errorf("expected metrics port error, got %v", err)
	}
	if !strings.Contains(err.Error(), "control: invalid port -1") {
		t.Errorf("expected control port error, got %v", err)
	}
}

func TestValidateRelayRequiresTopic(t *testing.T) {
	cfg := Config{RelayEnabled: true}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "relay: topic is required") {
		t.Fatalf("expected relay topic error, got %v", err)
	}

	cfg.RelayTopic = "sigtap.events"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateConfigNil(t *testing.T) {
	if err := ValidateConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestLoadEnvDefaults(t *testing.T) {
	var cfg Config
	if err := LoadEnv(&cfg); err != nil {
		t.Fatalf("load env: %v", err)
	}

	if cfg.ProbeEveryNTicks != 1 {
		t.Errorf("expected default probe interval 1, got %d", cfg.ProbeEveryNTicks)
	}
	if cfg.SampleEveryN != 1 {
		t.Errorf("expected default sample rate 1, got %d", cfg.SampleEveryN)
	}
	if cfg.RingCapacity != 100 {
		t.Errorf("expected default ring capacity 100, got %d", cfg.RingCapacity)
	}
	if !cfg.LoggingEnabled {
		t.Error("expected logging enabled by default")
	}
	if cfg.VerboseSignalLogging {
		t.Error("expected verbose signal logging off by default")
	}
	if cfg.ResetCountersOnDetach {
		t.Error("expected counters to be preserved on detach by default")
	}
	if cfg.RelayTopic != "sigtap.events" {
		t.Errorf("expected default relay topic, got %q", cfg.RelayTopic)
	}
}

func TestLoadEnvSplitsLists(t *testing.T) {
	t.Setenv("SIGTAP_EVENT_KINDS", "actor.moved,door.opened")
	t.Setenv("SIGTAP_STATIC_JOIN_POINTS", "hostsim.Host.SpawnProjectile(string,int);hostsim.SignalBus.Dispatch(*hostsim.Signal)")

	var cfg Config
	if err := LoadEnv(&cfg); err != nil {
		t.Fatalf("load env: %v", err)
	}

	if len(cfg.EventKinds) != 2 || cfg.EventKinds[0] != "actor.moved" || cfg.EventKinds[1] != "door.opened" {
		t.Fatalf("unexpected event kinds: %v", cfg.EventKinds)
	}
	if len(cfg.StaticJoinPoints) != 2 {
		t.Fatalf("unexpected join points: %v", cfg.StaticJoinPoints)
	}
	if !strings.Contains(cfg.StaticJoinPoints[0], "SpawnProjectile(string,int)") {
		t.Fatalf("join point lost its parameter list: %q", cfg.StaticJoinPoints[0])
	}
}

func TestLoadEnvError(t *testing.T) {
	t.Setenv("SIGTAP_RING_CAPACITY", "not-an-int")

	var cfg Config
	err := LoadEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestStringDoesNotRecurse(t *testing.T) {
	cfg := Config{TargetBusTypeName: "*hostsim.SignalBus", RingCapacity: 100}

	s := cfg.String()
	if !strings.Contains(s, "RingCapacity:100") {
		t.Fatalf("expected formatted fields, got %q", s)
	}
}
