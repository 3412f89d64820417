package hostsim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/drblury/sigtap/backend"
	"github.com/drblury/sigtap/backend/funcgate"
)

// DispatchJoinPoint is the call site every signal funnels through. Tapping
// it observes all traffic regardless of kind.
var DispatchJoinPoint = backend.JoinPoint{
	Owner:  "hostsim.SignalBus",
	Name:   "Dispatch",
	Params: []string{"*hostsim.Signal"},
}

// SignalBus fans signals out to per-kind listeners. Dispatch is the single
// low-level primitive; when the bus is built with a gate backend it routes
// Dispatch through a gate so hooks can watch or veto delivery.
type SignalBus struct {
	gate *funcgate.Gate

	mu         sync.Mutex
	seq        uint64
	nextID     int
	listeners  map[string]map[int]func(payload any)
	nativeOnly map[string]bool
}

// NewSignalBus builds a bus. gates may be nil for hosts without an
// interception surface.
func NewSignalBus(gates *funcgate.Backend) *SignalBus {
	b := &SignalBus{
		listeners:  make(map[string]map[int]func(payload any)),
		nativeOnly: make(map[string]bool),
	}
	if gates != nil {
		b.gate = gates.Expose(DispatchJoinPoint.Owner, DispatchJoinPoint.Name, DispatchJoinPoint.Params...)
	}
	return b
}

// DeclareKind announces kinds the bus will carry. Subscribing to an
// undeclared kind fails.
func (b *SignalBus) DeclareKind(kinds ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, kind := range kinds {
		if _, ok := b.listeners[kind]; !ok {
			b.listeners[kind] = make(map[int]func(payload any))
		}
	}
}

// MarkNativeOnly flags kinds whose payloads never cross the typed
// subscription path. Subscribing to them fails with a MarshalError.
func (b *SignalBus) MarkNativeOnly(kinds ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, kind := range kinds {
		b.nativeOnly[kind] = true
	}
}

// Kinds returns the declared kinds in stable order.
func (b *SignalBus) Kinds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	kinds := make([]string, 0, len(b.listeners))
	for kind := range b.listeners {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// SubscribeKind registers fn for signals of one kind and returns a listener
// id. It fails for undeclared kinds and for native-only kinds.
func (b *SignalBus) SubscribeKind(kind string, fn func(payload any)) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.nativeOnly[kind] {
		return 0, &MarshalError{Kind: kind}
	}
	bucket, ok := b.listeners[kind]
	if !ok {
		return 0, fmt.Errorf("hostsim: unknown signal kind %q", kind)
	}

	b.nextID++
	bucket[b.nextID] = fn
	return b.nextID, nil
}

// Unsubscribe removes a listener by id. Unknown ids are ignored.
func (b *SignalBus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bucket := range b.listeners {
		delete(bucket, id)
	}
}

// Publish assigns the next sequence number and dispatches a fresh signal.
func (b *SignalBus) Publish(kind string, payload any) *Signal {
	b.mu.Lock()
	b.seq++
	sig := NewSignal(kind, b.seq, payload)
	b.mu.Unlock()

	b.Dispatch(sig)
	return sig
}

// Dispatch delivers one signal to its listeners. Every publish funnels
// through here; a gate hook that returns false suppresses delivery.
func (b *SignalBus) Dispatch(sig *Signal) {
	if b.gate == nil {
		b.deliver(sig)
		return
	}
	b.gate.Invoke([]any{sig}, func([]any) any {
		b.deliver(sig)
		return nil
	})
}

func (b *SignalBus) deliver(sig *Signal) {
	b.mu.Lock()
	bucket := b.listeners[sig.kind]
	fns := make([]func(payload any), 0, len(bucket))
	for _, fn := range bucket {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(sig.payload)
	}
}
