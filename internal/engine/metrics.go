package engine

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Subscribe failure reasons used as metric labels.
const (
	FailureReasonMarshal = "marshal"
	FailureReasonOther   = "other"
)

// newEngineCounterVec creates a counter vec with the standard sigtap/engine namespace.
func newEngineCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigtap",
			Subsystem: "engine",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// newEngineCounter creates a counter with the standard sigtap/engine namespace.
func newEngineCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sigtap",
		Subsystem: "engine",
		Name:      name,
		Help:      help,
	})
}

// newEngineGauge creates a gauge with the standard sigtap/engine namespace.
func newEngineGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sigtap",
		Subsystem: "engine",
		Name:      name,
		Help:      help,
	})
}

// SignalMetrics exposes engine observations to Prometheus. The aggregator
// stays the source of truth for snapshots; these collectors only feed the
// scrape endpoint.
type SignalMetrics struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
	registered bool

	firedTotal        *prometheus.CounterVec
	subscribeFailures *prometheus.CounterVec
	installFailures   *prometheus.CounterVec
	probesTotal       prometheus.Counter
	sessionsTotal     prometheus.Counter
	attached          prometheus.Gauge
}

// NewSignalMetrics creates the engine metric collectors.
func NewSignalMetrics(registerer prometheus.Registerer) *SignalMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SignalMetrics{
		registerer:        registerer,
		firedTotal:        newEngineCounterVec("signals_fired_total", "Signals observed, labelled by kind and observation path", []string{"kind", "path"}),
		subscribeFailures: newEngineCounterVec("subscribe_failures_total", "Kind subscriptions that could not be established", []string{"kind", "reason"}),
		installFailures:   newEngineCounterVec("install_failures_total", "Join point installations that could not be resolved", []string{"join_point"}),
		probesTotal:       newEngineCounter("bus_probes_total", "Bus probe attempts while searching"),
		sessionsTotal:     newEngineCounter("sessions_total", "Sessions the engine attached to"),
		attached:          newEngineGauge("attached", "1 while the engine is attached to a bus"),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *SignalMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.firedTotal,
		m.subscribeFailures,
		m.installFailures,
		m.probesTotal,
		m.sessionsTotal,
		m.attached,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// RecordFired counts one observed signal.
func (m *SignalMetrics) RecordFired(kind, path string) {
	m.firedTotal.WithLabelValues(kind, path).Inc()
}

// RecordSubscribeFailure counts a kind subscription that failed.
func (m *SignalMetrics) RecordSubscribeFailure(kind, reason string) {
	m.subscribeFailures.WithLabelValues(kind, reason).Inc()
}

// RecordInstallFailure counts a join point that could not be installed.
func (m *SignalMetrics) RecordInstallFailure(joinPoint string) {
	m.installFailures.WithLabelValues(joinPoint).Inc()
}

// RecordProbe counts one bus probe attempt.
func (m *SignalMetrics) RecordProbe() {
	m.probesTotal.Inc()
}

// RecordAttach marks the engine attached and counts the session.
func (m *SignalMetrics) RecordAttach() {
	m.sessionsTotal.Inc()
	m.attached.Set(1)
}

// RecordDetach marks the engine detached.
func (m *SignalMetrics) RecordDetach() {
	m.attached.Set(0)
}

// Reset clears the vector collectors (useful for testing).
func (m *SignalMetrics) Reset() {
	m.firedTotal.Reset()
	m.subscribeFailures.Reset()
	m.installFailures.Reset()
}
