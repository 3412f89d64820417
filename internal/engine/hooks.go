package engine

import (
	"context"
	"time"

	"github.com/drblury/sigtap/internal/engine/logging"
)

// SessionContext describes one observation session to hooks.
type SessionContext struct {
	// SessionID is unique per attach.
	SessionID string
	// Origin is how the bus was found: field, getter or resolver.
	Origin string
	// Path is where in the host graph the bus was found.
	Path string
	// AttachedAt is when the session started.
	AttachedAt time.Time
	// Duration is how long the session lasted (only set in OnDetach).
	Duration time.Duration
	// Signals is how many signals the session observed (only set in
	// OnDetach and OnDump).
	Signals uint64
}

// SessionHooks defines callbacks for session lifecycle events.
// All hooks are optional - nil hooks are simply not called.
type SessionHooks struct {
	// OnAttach is called after the engine binds to a bus and finishes its
	// subscription setup pass.
	OnAttach func(ctx SessionContext)

	// OnDetach is called after the engine releases a bus, with Duration and
	// Signals set.
	OnDetach func(ctx SessionContext)

	// OnDump is called whenever an aggregate snapshot is dumped.
	OnDump func(ctx SessionContext, snapshot AggregateSnapshot)
}

// Merge combines two SessionHooks, creating a new SessionHooks that calls
// both. The hooks from 'other' are called after the hooks from 'h'.
func (h SessionHooks) Merge(other SessionHooks) SessionHooks {
	return SessionHooks{
		OnAttach: chainSessionHooks(h.OnAttach, other.OnAttach),
		OnDetach: chainSessionHooks(h.OnDetach, other.OnDetach),
		OnDump:   chainDumpHooks(h.OnDump, other.OnDump),
	}
}

func chainSessionHooks(a, b func(SessionContext)) func(SessionContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx SessionContext) {
		a(ctx)
		b(ctx)
	}
}

func chainDumpHooks(a, b func(SessionContext, AggregateSnapshot)) func(SessionContext, AggregateSnapshot) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx SessionContext, snapshot AggregateSnapshot) {
		a(ctx, snapshot)
		b(ctx, snapshot)
	}
}

// LoggingSessionHooks returns pre-built hooks that log session lifecycle
// events.
func LoggingSessionHooks(logger logging.ServiceLogger) SessionHooks {
	return SessionHooks{
		OnAttach: func(ctx SessionContext) {
			logger.Info("session attached", logging.LogFields{
				"session_id": ctx.SessionID,
				"origin":     ctx.Origin,
				"path":       ctx.Path,
			})
		},
		OnDetach: func(ctx SessionContext) {
			logger.Info("session detached", logging.LogFields{
				"session_id":  ctx.SessionID,
				"duration_ms": ctx.Duration.Milliseconds(),
				"signals":     ctx.Signals,
			})
		},
		OnDump: func(ctx SessionContext, snapshot AggregateSnapshot) {
			logger.Info("snapshot dumped", logging.LogFields{
				"session_id":     ctx.SessionID,
				"total":          snapshot.Total,
				"distinct_kinds": snapshot.DistinctKinds,
			})
		},
	}
}

// RelaySessionHooks returns pre-built hooks that forward lifecycle markers
// as synthetic records, so stream consumers see session boundaries inline
// with the signals.
func RelaySessionHooks(relay *EventRelay) SessionHooks {
	if relay == nil {
		return SessionHooks{}
	}
	forward := func(kind string, ctx SessionContext) {
		rec := EventRecord{
			ID:     ctx.SessionID,
			Kind:   kind,
			Path:   PathTyped,
			SeenAt: time.Now().UTC(),
		}
		// Best effort: a relay problem must never stall the host.
		_ = relay.Forward(context.Background(), rec)
	}
	return SessionHooks{
		OnAttach: func(ctx SessionContext) { forward("sigtap.session.attached", ctx) },
		OnDetach: func(ctx SessionContext) { forward("sigtap.session.detached", ctx) },
	}
}
