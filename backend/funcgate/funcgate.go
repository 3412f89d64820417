// Package funcgate provides an in-process interception backend. Host code
// exposes a gate per interceptable call site and routes calls through
// Gate.Invoke; hooks installed through the backend then run around the
// original function. This backend is useful for embedded hosts, simulations
// and tests.
package funcgate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/drblury/sigtap/backend"
)

// BackendName is the name used to register this backend.
const BackendName = "funcgate"

func init() {
	backend.RegisterWithCapabilities(BackendName, Build, backend.FuncGateCapabilities)
}

// Build creates a new function gate backend.
func Build(ctx context.Context, opts backend.Options) (backend.Backend, error) {
	return New(), nil
}

// Capabilities returns the capabilities of this backend.
func Capabilities() backend.Capabilities {
	return backend.FuncGateCapabilities
}

// Backend routes in-process calls through per-join-point gates.
type Backend struct {
	mu    sync.RWMutex
	gates map[string]*Gate
}

// New creates an empty function gate backend.
func New() *Backend {
	return &Backend{gates: make(map[string]*Gate)}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return BackendName }

// Capabilities implements backend.Backend.
func (b *Backend) Capabilities() backend.Capabilities {
	return backend.FuncGateCapabilities
}

// Expose creates the gate for a call site, or returns the existing one.
// Host code calls this once per interceptable function and routes every
// call through Gate.Invoke.
func (b *Backend) Expose(owner, name string, params ...string) *Gate {
	jp := backend.JoinPoint{Owner: owner, Name: name, Params: params}

	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.gates[jp.Signature()]; ok {
		return g
	}
	g := &Gate{jp: jp}
	b.gates[jp.Signature()] = g
	return g
}

// Lookup returns the gate for a join point when one has been exposed.
func (b *Backend) Lookup(jp backend.JoinPoint) (*Gate, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	g, ok := b.gates[jp.Signature()]
	return g, ok
}

// Exposed returns the join points that currently have gates.
func (b *Backend) Exposed() []backend.JoinPoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	jps := make([]backend.JoinPoint, 0, len(b.gates))
	for _, g := range b.gates {
		jps = append(jps, g.jp)
	}
	return jps
}

// Install implements backend.Backend. It fails when no gate has been
// exposed for the join point, which callers treat as a resolution failure.
func (b *Backend) Install(jp backend.JoinPoint, pre backend.PreHook, post backend.PostHook) (backend.Registration, error) {
	if pre == nil && post == nil {
		return nil, errors.New("funcgate: at least one hook is required")
	}

	gate, ok := b.Lookup(jp)
	if !ok {
		return nil, fmt.Errorf("funcgate: no gate exposed for %q", jp.Signature())
	}
	return gate.install(pre, post), nil
}

// Reset drops every exposed gate together with its hooks. Hosts call this
// when the objects behind the gates are torn down, for example on session
// end. Registrations held by callers become inert.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gates = make(map[string]*Gate)
}

type hookEntry struct {
	id   uint64
	pre  backend.PreHook
	post backend.PostHook
}

// Gate wraps one call site. Hooks run in installation order.
type Gate struct {
	jp    backend.JoinPoint
	mu    sync.RWMutex
	next  uint64
	hooks []hookEntry
}

// JoinPoint returns the call site this gate wraps.
func (g *Gate) JoinPoint() backend.JoinPoint { return g.jp }

// Hooked reports whether any hooks are currently installed.
func (g *Gate) Hooked() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.hooks) > 0
}

// Invoke routes one call through the gate. Every pre-hook sees the call,
// even when an earlier one already suppressed it. The original function runs
// unless some pre-hook returned false; post-hooks run only when the original
// ran, and receive its result. Invoke returns the original's result, or nil
// when the call was suppressed.
func (g *Gate) Invoke(args []any, original func(args []any) any) any {
	hooks := g.snapshot()

	run := true
	for _, h := range hooks {
		if h.pre != nil && !h.pre(args) {
			run = false
		}
	}
	if !run {
		return nil
	}

	var result any
	if original != nil {
		result = original(args)
	}
	for _, h := range hooks {
		if h.post != nil {
			h.post(args, result)
		}
	}
	return result
}

func (g *Gate) snapshot() []hookEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]hookEntry, len(g.hooks))
	copy(out, g.hooks)
	return out
}

func (g *Gate) install(pre backend.PreHook, post backend.PostHook) backend.Registration {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	g.hooks = append(g.hooks, hookEntry{id: g.next, pre: pre, post: post})
	return &registration{gate: g, id: g.next}
}

func (g *Gate) remove(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, h := range g.hooks {
		if h.id == id {
			g.hooks = append(g.hooks[:i], g.hooks[i+1:]...)
			return
		}
	}
}

type registration struct {
	gate *Gate
	id   uint64
	once sync.Once
}

func (r *registration) JoinPoint() backend.JoinPoint { return r.gate.jp }

func (r *registration) Close() error {
	r.once.Do(func() { r.gate.remove(r.id) })
	return nil
}
