package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/drblury/sigtap/backend"
	configpkg "github.com/drblury/sigtap/internal/engine/config"
	enginerrors "github.com/drblury/sigtap/internal/engine/errors"
	"github.com/drblury/sigtap/internal/engine/ids"
	"github.com/drblury/sigtap/internal/engine/jsoncodec"
	"github.com/drblury/sigtap/internal/engine/logging"
	"github.com/drblury/sigtap/internal/engine/scan"
)

// EngineState is the lifecycle position of an Engine.
type EngineState int32

const (
	// StateUninitialized is the state before OnInitialize.
	StateUninitialized EngineState = iota
	// StateSearching means the engine probes for a bus on its tick cadence.
	StateSearching
	// StateAttached means a bus is bound and signals are being observed.
	StateAttached
	// StateDetached is the one-tick gap between a session ending and the
	// search resuming.
	StateDetached
)

func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSearching:
		return "searching"
	case StateAttached:
		return "attached"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// RootProvider returns the object graph roots to probe. It is called on
// every probe pass so hosts can swap worlds between scenes.
type RootProvider func() []any

// Dependencies holds the collaborators an Engine uses. Backend is required,
// as is at least one of Roots and Resolver; everything else is optional.
type Dependencies struct {
	// Backend installs hooks at join points.
	Backend backend.Backend
	// Roots returns the object graph roots probed for a bus.
	Roots RootProvider
	// Resolver is the container fallback, probed after fields and getters.
	Resolver Resolver
	// Scanner overrides the default reflect scanner.
	Scanner scan.GraphScanner
	// AcceptBus decides whether a scanned node is the bus. Defaults to a
	// type name match against TargetBusTypeName.
	AcceptBus func(scan.Node) bool
	// Hooks receives session lifecycle callbacks.
	Hooks SessionHooks
	// Relay overrides the engine-owned channel relay.
	Relay *EventRelay
	// Registerer receives the engine's Prometheus collectors. Defaults to
	// the global registerer.
	Registerer prometheus.Registerer
	// DumpWriter receives snapshot dumps. Defaults to standard output.
	DumpWriter io.Writer
}

// Engine ties the locator, the interception engine, the subscription
// manager, the aggregator and the control surface into one lifecycle driven
// by the host's own callbacks: OnInitialize once, OnTick every frame,
// OnSceneChanged at session boundaries and OnShutdown at exit.
//
// Lifecycle methods run on the host tick thread. Diagnostics, Snapshot and
// the HTTP handlers are safe to call concurrently with it.
type Engine struct {
	conf *configpkg.Config
	log  logging.ServiceLogger
	deps Dependencies

	scanner    scan.GraphScanner
	locator    *BusLocator
	intercept  *InterceptionEngine
	subs       *SubscriptionManager
	agg        *Aggregator
	control    *ControlSurface
	metrics    *SignalMetrics
	relay      *EventRelay
	tracer     trace.Tracer
	dumpWriter io.Writer

	loggingFlag        *atomic.Bool
	verboseFlag        *atomic.Bool
	captureSignalsFlag *atomic.Bool
	captureCallsFlag   *atomic.Bool
	relayFlag          *atomic.Bool

	state   atomic.Int32
	tick    atomic.Uint64
	sampled atomic.Uint64

	sessionMu      sync.Mutex
	scene          string
	sessionID      string
	attachedAt     time.Time
	sessionSignals atomic.Uint64

	// badSpecs marks configured join points that failed to parse, so the
	// malformed entry is reported once instead of on every attach. Only the
	// tick thread touches it.
	badSpecs map[string]bool

	httpServersMu sync.Mutex
	httpServers   map[int]*http.ServeMux
}

// NewEngine validates the configuration and wires an engine. The returned
// engine is Uninitialized; the host calls OnInitialize when its runtime is
// up, then drives it through OnTick, OnSceneChanged and OnShutdown.
func NewEngine(conf *configpkg.Config, log logging.ServiceLogger, deps Dependencies) (*Engine, error) {
	if conf == nil {
		return nil, enginerrors.ErrConfigRequired
	}
	if log == nil {
		return nil, enginerrors.ErrLoggerRequired
	}
	if deps.Backend == nil {
		return nil, enginerrors.ErrBackendRequired
	}
	if deps.Roots == nil && deps.Resolver == nil {
		return nil, enginerrors.ErrRootsRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, enginerrors.NewConfigValidationError(err)
	}

	accept := deps.AcceptBus
	if accept == nil {
		if conf.TargetBusTypeName == "" {
			return nil, enginerrors.ErrBusTargetRequired
		}
		accept = AcceptTypeName(conf.TargetBusTypeName)
	}

	scanner := deps.Scanner
	if scanner == nil {
		scanner = scan.NewReflectScanner()
	}

	control := NewControlSurface(log, conf.ControlCORSAllowedOrigins)
	loggingFlag := control.RegisterToggle(ToggleLogging, conf.LoggingEnabled)
	// Every log line below here goes through the gate, so flipping the
	// logging toggle silences the whole engine at once.
	gated := logging.NewGatedLogger(log, loggingFlag)

	e := &Engine{
		conf:               conf,
		log:                gated,
		deps:               deps,
		scanner:            scanner,
		control:            control,
		dumpWriter:         deps.DumpWriter,
		loggingFlag:        loggingFlag,
		verboseFlag:        control.RegisterToggle(ToggleVerbose, conf.VerboseSignalLogging),
		captureSignalsFlag: control.RegisterToggle(ToggleCaptureSignals, true),
		captureCallsFlag:   control.RegisterToggle(ToggleCaptureCalls, true),
		relayFlag:          control.RegisterToggle(ToggleRelay, conf.RelayEnabled),
		badSpecs:           make(map[string]bool),
	}
	if e.dumpWriter == nil {
		e.dumpWriter = os.Stdout
	}

	if conf.MetricsEnabled {
		e.metrics = NewSignalMetrics(deps.Registerer)
		if err := e.metrics.Register(); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	e.locator = NewBusLocator(gated, scanner, accept, e.metrics)
	e.intercept = NewInterceptionEngine(gated, deps.Backend, e.metrics)
	e.subs = NewSubscriptionManager(gated, e.metrics)
	e.agg = NewAggregator(conf.RingCapacity)
	e.agg.EnsureKind(conf.EventKinds...)

	e.relay = deps.Relay
	if e.relay == nil && conf.RelayEnabled {
		relay, err := NewChannelRelay(gated, conf.RelayTopic)
		if err != nil {
			return nil, err
		}
		e.relay = relay
	}

	if conf.TracingEnabled {
		e.tracer = otel.Tracer("sigtap")
	} else {
		e.tracer = noop.NewTracerProvider().Tracer("sigtap")
	}

	control.RegisterDump(DumpSnapshot, e.dumpSnapshot)
	control.RegisterDump(DumpReset, func() error {
		e.agg.Reset()
		return nil
	})

	return e, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() EngineState {
	return EngineState(e.state.Load())
}

// Control returns the control surface so hosts can bind more inputs to it.
func (e *Engine) Control() *ControlSurface { return e.control }

// Relay returns the event relay, or nil when relaying was never configured.
func (e *Engine) Relay() *EventRelay { return e.relay }

// Snapshot returns the current aggregate snapshot.
func (e *Engine) Snapshot() AggregateSnapshot { return e.agg.Snapshot() }

// OnInitialize moves the engine from Uninitialized to Searching. Static
// join points are attempted once here; hosts still sitting in a menu
// resolve none of them, which is routine and retried on attach. The control
// and metrics servers also start here.
func (e *Engine) OnInitialize() error {
	if !e.state.CompareAndSwap(int32(StateUninitialized), int32(StateSearching)) {
		return enginerrors.ErrAlreadyInitialized
	}

	installed := e.installStaticObservers()
	e.registerHTTPEndpoints()
	e.startHTTPServers()

	e.log.Info("engine initialized, searching for a bus", logging.LogFields{
		"target":           e.conf.TargetBusTypeName,
		"kinds":            len(e.conf.EventKinds),
		"static_installed": installed,
	})
	return nil
}

// OnTick drives the engine one host frame. A detached engine resumes
// searching; a searching engine probes on the configured cadence and
// attaches as soon as a probe hits. An attached engine does nothing here:
// signals arrive through the installed callbacks.
func (e *Engine) OnTick() {
	tick := e.tick.Add(1)

	switch e.State() {
	case StateDetached:
		e.state.Store(int32(StateSearching))
		return
	case StateSearching:
	default:
		return
	}

	every := e.conf.ProbeEveryNTicks
	if every < 1 {
		every = 1
	}
	if tick%uint64(every) != 0 {
		return
	}

	var roots []any
	if e.deps.Roots != nil {
		roots = e.deps.Roots()
	}
	if handle, ok := e.locator.TryLocate(roots, e.deps.Resolver); ok {
		e.attach(handle)
	}
}

// OnSceneChanged marks a session boundary. Any scene change while attached
// detaches: the old scene's bus is gone or about to be, and a held handle
// would observe a dead object. Searching resumes on the next tick.
func (e *Engine) OnSceneChanged(scene string) {
	e.sessionMu.Lock()
	e.scene = scene
	e.sessionMu.Unlock()

	if e.State() != StateAttached {
		return
	}
	e.detach("scene changed")
}

// OnShutdown dumps the final snapshot, detaches when attached and closes
// the relay. Calling it on a never-initialized engine is a no-op.
func (e *Engine) OnShutdown() {
	if e.State() == StateUninitialized {
		return
	}

	if err := e.dumpSnapshot(); err != nil {
		e.log.Error("final snapshot dump failed", err, nil)
	}
	if e.State() == StateAttached {
		e.detach("shutdown")
	}
	if e.relay != nil {
		if err := e.relay.Close(); err != nil {
			e.log.Error("relay close failed", err, nil)
		}
	}

	e.log.Info("engine shut down", logging.LogFields{
		"ticks": e.tick.Load(),
		"total": e.agg.Total(),
	})
}

// attach binds a located bus: one subscription setup pass, the dispatch tap
// for everything the typed path does not own, and a retry of static join
// points that only exist while a session is live.
func (e *Engine) attach(handle *BusHandle) {
	_, span := e.tracer.Start(context.Background(), "sigtap.attach")
	defer span.End()

	sessionID := ids.CreateULID()
	now := time.Now().UTC()

	e.sessionMu.Lock()
	e.sessionID = sessionID
	e.attachedAt = now
	e.sessionMu.Unlock()
	e.sessionSignals.Store(0)

	kinds := e.conf.EventKinds
	if len(kinds) == 0 {
		if lister, ok := handle.Bus.(KindLister); ok {
			kinds = lister.Kinds()
		}
	}
	e.agg.EnsureKind(kinds...)

	var report SetupReport
	if bus, ok := handle.Bus.(KindSubscriber); ok {
		report = e.subs.SetupAll(bus, kinds, e.onTypedSignal)
	} else {
		e.log.Info("bus offers no kind subscriptions, fallback only", logging.LogFields{
			"bus": fmt.Sprintf("%T", handle.Bus),
		})
	}

	e.installStaticObservers()
	e.installDispatchTap()

	e.state.Store(int32(StateAttached))
	if e.metrics != nil {
		e.metrics.RecordAttach()
	}

	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("bus.origin", handle.Origin.String()),
		attribute.String("bus.path", handle.Path),
		attribute.Int("subscribe.succeeded", report.Succeeded),
		attribute.Int("subscribe.failed", report.Failed),
	)

	e.log.Info("attached to signal bus", logging.LogFields{
		"session_id": sessionID,
		"origin":     handle.Origin.String(),
		"path":       handle.Path,
		"subscribed": report.Succeeded,
		"failed":     report.Failed,
	})

	if e.deps.Hooks.OnAttach != nil {
		e.deps.Hooks.OnAttach(SessionContext{
			SessionID:  sessionID,
			Origin:     handle.Origin.String(),
			Path:       handle.Path,
			AttachedAt: now,
		})
	}
}

// detach releases the session: the memoized handle, the subscriptions and
// every installed hook. The recent ring always clears; counters survive
// unless the configuration asks for a reset per session.
func (e *Engine) detach(reason string) {
	_, span := e.tracer.Start(context.Background(), "sigtap.detach")
	defer span.End()

	e.sessionMu.Lock()
	sessionID := e.sessionID
	attachedAt := e.attachedAt
	e.sessionID = ""
	e.sessionMu.Unlock()

	handle, _ := e.locator.Handle()
	duration := time.Since(attachedAt)
	signals := e.sessionSignals.Load()

	e.locator.Reset()
	e.subs.Reset()
	e.intercept.Invalidate()
	if e.conf.ResetCountersOnDetach {
		e.agg.Reset()
	} else {
		e.agg.ClearRecent()
	}

	e.state.Store(int32(StateDetached))
	if e.metrics != nil {
		e.metrics.RecordDetach()
	}

	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("detach.reason", reason),
		attribute.Int64("session.signals", int64(signals)),
	)

	e.log.Info("detached from signal bus", logging.LogFields{
		"session_id":  sessionID,
		"reason":      reason,
		"duration_ms": duration.Milliseconds(),
		"signals":     signals,
	})

	if e.deps.Hooks.OnDetach != nil {
		ctx := SessionContext{
			SessionID:  sessionID,
			AttachedAt: attachedAt,
			Duration:   duration,
			Signals:    signals,
		}
		if handle != nil {
			ctx.Origin = handle.Origin.String()
			ctx.Path = handle.Path
		}
		e.deps.Hooks.OnDetach(ctx)
	}
}

// installStaticObservers tries every configured join point that is not live
// yet. Unresolved points are retried on each attach because their gates can
// appear with the session; malformed specs are reported once and dropped.
func (e *Engine) installStaticObservers() int {
	if len(e.conf.StaticJoinPoints) == 0 {
		return 0
	}

	live := make(map[string]bool)
	for _, h := range e.intercept.Installed() {
		live[h.JoinPoint.Signature()] = true
	}

	pending := make([]string, 0, len(e.conf.StaticJoinPoints))
	for _, spec := range e.conf.StaticJoinPoints {
		jp, err := backend.ParseJoinPoint(spec)
		if err != nil {
			if e.badSpecs[spec] {
				continue
			}
			e.badSpecs[spec] = true
			pending = append(pending, spec)
			continue
		}
		if live[jp.Signature()] {
			continue
		}
		pending = append(pending, spec)
	}
	return e.intercept.InstallStaticObservers(pending, e.onCall)
}

// installDispatchTap hooks the configured low-level dispatch call. The tap
// skips kinds the typed path owns, so no signal is ever counted twice.
func (e *Engine) installDispatchTap() {
	spec := e.conf.DispatchJoinPoint
	if spec == "" {
		return
	}
	jp, err := backend.ParseJoinPoint(spec)
	if err != nil {
		if !e.badSpecs[spec] {
			e.badSpecs[spec] = true
			e.log.Info("dispatch join point unparseable, fallback path disabled", logging.LogFields{
				"join_point": spec,
				"error":      err.Error(),
			})
		}
		return
	}
	for _, h := range e.intercept.Installed() {
		if h.Role == HookRoleDispatchTap && h.JoinPoint.Signature() == jp.Signature() {
			return
		}
	}

	// Install errors are recorded by the interception engine; a host
	// without a dispatch gate simply runs typed-only.
	_ = e.intercept.InstallDispatchTap(jp, DispatchTap{
		Owns:         e.subs.Owns,
		SampleEveryN: e.conf.SampleEveryN,
		Summarize:    e.summarizeArgs,
		OnSignal:     e.onFallbackSignal,
	})
}

// onTypedSignal receives payloads delivered through kind subscriptions.
func (e *Engine) onTypedSignal(kind string, payload any) {
	if !e.captureSignalsFlag.Load() {
		return
	}
	summary := ""
	if e.sampleNow() {
		summary = e.summarizePayload(payload)
	}
	e.record(kind, PathTyped, summary)
}

// onFallbackSignal receives signals from the dispatch tap. The tap already
// applied its own summary sampling.
func (e *Engine) onFallbackSignal(kind, summary string) {
	if !e.captureSignalsFlag.Load() {
		return
	}
	e.record(kind, PathFallback, summary)
}

// onCall observes an intercepted host call. The record kind is the join
// point member prefixed with "call:" so call traffic and signal traffic
// stay apart in one aggregate.
func (e *Engine) onCall(jp backend.JoinPoint, args []any) {
	if !e.captureCallsFlag.Load() {
		return
	}
	summary := ""
	if e.sampleNow() {
		summary = e.summarizeArgs(args)
	}
	e.record("call:"+jp.Name, PathCall, summary)
}

func (e *Engine) record(kind, path, summary string) {
	rec := EventRecord{
		ID:      ids.CreateULID(),
		Kind:    kind,
		Path:    path,
		Summary: summary,
		SeenAt:  time.Now().UTC(),
	}

	e.agg.Record(rec)
	e.sessionSignals.Add(1)
	if e.metrics != nil {
		e.metrics.RecordFired(kind, path)
	}

	if e.verboseFlag.Load() {
		e.log.Debug("signal observed", logging.LogFields{
			"kind":    kind,
			"path":    path,
			"summary": summary,
		})
	}

	if e.relay != nil && e.relayFlag.Load() {
		if err := e.relay.Forward(context.Background(), rec); err != nil {
			e.log.Debug("relay forward failed", logging.LogFields{
				"kind":  kind,
				"error": err.Error(),
			})
		}
	}
}

// sampleNow thins payload summaries on the hot path. Counting is never
// sampled; only the reflective summary is.
func (e *Engine) sampleNow() bool {
	every := e.conf.SampleEveryN
	if every <= 1 {
		return true
	}
	return e.sampled.Add(1)%uint64(every) == 0
}

// Summary rendering limits. Values are for log lines and ring entries, not
// for faithful payload capture.
const (
	summaryNodeMax  = 4
	summaryValueMax = 32
)

// summarizePayload renders a short name=value line by walking the payload's
// immediate fields and getters, the same walk the locator probes with.
// Unreadable members show as <unreadable>; non-struct payloads fall back to
// plain formatting.
func (e *Engine) summarizePayload(payload any) string {
	if payload == nil {
		return ""
	}
	nodes, err := scan.Collect(e.scanner, payload)
	if err != nil {
		return truncateValue(fmt.Sprintf("%v", payload))
	}

	seen := make(map[string]bool, len(nodes))
	parts := make([]string, 0, summaryNodeMax)
	for _, n := range nodes {
		if len(parts) == summaryNodeMax {
			break
		}
		// Getters often shadow the field they read; keep one of the pair.
		key := strings.ToLower(n.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		if n.Err != nil {
			parts = append(parts, n.Name+"=<unreadable>")
			continue
		}
		parts = append(parts, n.Name+"="+truncateValue(fmt.Sprintf("%v", n.Value)))
	}
	return strings.Join(parts, " ")
}

// summarizeArgs renders intercepted call arguments for sampled records.
func (e *Engine) summarizeArgs(args []any) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if s := e.summarizePayload(arg); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}

func truncateValue(s string) string {
	if len(s) <= summaryValueMax {
		return s
	}
	return s[:summaryValueMax-3] + "..."
}

// dumpSnapshot renders the aggregate to the dump writer and fires the
// OnDump hook. It backs the "snapshot" dump trigger and the shutdown dump.
func (e *Engine) dumpSnapshot() error {
	_, span := e.tracer.Start(context.Background(), "sigtap.dump")
	defer span.End()

	snap := e.agg.Snapshot()
	span.SetAttributes(
		attribute.Int64("snapshot.total", int64(snap.Total)),
		attribute.Int("snapshot.kinds", snap.DistinctKinds),
	)

	if e.deps.Hooks.OnDump != nil {
		e.sessionMu.Lock()
		ctx := SessionContext{
			SessionID:  e.sessionID,
			AttachedAt: e.attachedAt,
			Signals:    e.sessionSignals.Load(),
		}
		e.sessionMu.Unlock()
		e.deps.Hooks.OnDump(ctx, snap)
	}

	return WriteSnapshotText(e.dumpWriter, snap)
}

// Diagnostics is a point-in-time view of the engine for the state endpoint
// and tests.
type Diagnostics struct {
	State             string            `json:"state"`
	Scene             string            `json:"scene,omitempty"`
	Tick              uint64            `json:"tick"`
	SessionID         string            `json:"session_id,omitempty"`
	BusOrigin         string            `json:"bus_origin,omitempty"`
	BusPath           string            `json:"bus_path,omitempty"`
	Probes            int               `json:"probes"`
	SetupPasses       int               `json:"setup_passes"`
	Subscribed        []string          `json:"subscribed"`
	SubscribeFailures map[string]string `json:"subscribe_failures,omitempty"`
	Installed         []InstalledHook   `json:"installed"`
	InstallFailures   []InstallFailure  `json:"install_failures,omitempty"`
	SessionSignals    uint64            `json:"session_signals"`
	Total             uint64            `json:"total"`
}

// Diagnostics assembles the current engine view.
func (e *Engine) Diagnostics() Diagnostics {
	e.sessionMu.Lock()
	scene := e.scene
	sessionID := e.sessionID
	e.sessionMu.Unlock()

	d := Diagnostics{
		State:             e.State().String(),
		Scene:             scene,
		Tick:              e.tick.Load(),
		SessionID:         sessionID,
		Probes:            e.locator.Probes(),
		SetupPasses:       e.subs.Passes(),
		Subscribed:        e.subs.Subscribed(),
		SubscribeFailures: e.subs.Failures(),
		Installed:         e.intercept.Installed(),
		InstallFailures:   e.intercept.Failures(),
		SessionSignals:    e.sessionSignals.Load(),
		Total:             e.agg.Total(),
	}
	if handle, ok := e.locator.Handle(); ok {
		d.BusOrigin = handle.Origin.String()
		d.BusPath = handle.Path
	}
	return d
}

// RegisterHTTPHandler mounts a handler on the mux for port. The engine's
// servers start during OnInitialize; handlers registered before that point
// are all served.
func (e *Engine) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	e.httpServersMu.Lock()
	defer e.httpServersMu.Unlock()

	if e.httpServers == nil {
		e.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := e.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		e.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (e *Engine) registerHTTPEndpoints() {
	if e.conf.ControlEnabled {
		port := e.conf.ControlPort
		if port == 0 {
			port = 8082
		}
		e.RegisterHTTPHandler(port, "/api/toggles", e.control.TogglesHandler())
		e.RegisterHTTPHandler(port, "/api/dump", e.control.DumpHandler())
		e.RegisterHTTPHandler(port, "/api/state", http.HandlerFunc(e.handleGetState))
		e.RegisterHTTPHandler(port, "/api/snapshot", http.HandlerFunc(e.handleGetSnapshot))
	}

	if e.conf.MetricsEnabled {
		port := e.conf.MetricsPort
		if port == 0 {
			port = 9464
		}
		e.RegisterHTTPHandler(port, "/metrics", promhttp.Handler())
	}
}

func (e *Engine) startHTTPServers() {
	e.httpServersMu.Lock()
	defer e.httpServersMu.Unlock()

	for port, mux := range e.httpServers {
		addr := fmt.Sprintf(":%d", port)
		e.log.Info("starting HTTP server", logging.LogFields{"address": addr})
		go func(addr string, handler http.Handler) {
			if err := http.ListenAndServe(addr, handler); err != nil {
				e.log.Error("HTTP server stopped", err, logging.LogFields{"address": addr})
			}
		}(addr, mux)
	}
}

func (e *Engine) handleGetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	e.control.ApplyCORS(w, r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		if err := jsoncodec.Encode(w, e.Diagnostics()); err != nil {
			e.log.Error("failed to encode engine state", err, nil)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (e *Engine) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	e.control.ApplyCORS(w, r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		if err := jsoncodec.Encode(w, e.agg.Snapshot()); err != nil {
			e.log.Error("failed to encode snapshot", err, nil)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}
