// Package sigtap embeds a signal observation engine into a host process. The
// engine locates the host's signal bus by probing its object graph, attaches
// kind subscriptions and call-site hooks through a pluggable interception
// backend, and aggregates everything it observes into per-kind counters and a
// bounded ring of recent events. It never blocks or vetoes host behavior:
// failed subscriptions, unresolvable join points and unreadable graph nodes
// are routine results that reduce coverage, not errors that stop the host.
//
// The host drives the engine through four lifecycle calls: OnInitialize once
// at startup, OnTick every frame, OnSceneChanged on scene swaps and
// OnShutdown at exit. The engine moves between Searching, Attached and
// Detached on its own; a session ends when the scene changes and the search
// resumes on the following tick. A minimal setup fills Config (or loads it
// from SIGTAP_* environment variables), builds an engine with NewEngine, and
// forwards the host's lifecycle; see README.md for a quick start snippet.
//
// # Observation paths
//
// Signals reach the aggregate through three paths:
//   - typed: kind subscriptions on the located bus, one per configured kind
//   - fallback: a tap on the host's low-level dispatch call, covering kinds
//     whose payloads cannot cross the typed path
//   - call: observers on configured static join points
//
// The fallback tap skips kinds the typed path owns, so no signal is ever
// counted twice regardless of which paths are active.
//
// # Backends
//
// Interception goes through the backend.Backend interface. The funcgate
// backend ships in the box for embedded hosts, simulations and tests; hosts
// with their own hooking machinery implement the interface and register it
// with the backend registry.
//
// # Control surface
//
// Named boolean toggles gate logging, per-signal verbosity, capture paths and
// the event relay at runtime, and named dump triggers render or reset the
// aggregate. The surface is exposed over a small JSON API when ControlEnabled
// is set, together with Prometheus metrics under MetricsEnabled. Observed
// records can additionally be republished on an embedded Watermill channel
// via RelayEnabled so external consumers can follow a session live.
package sigtap
