package engine

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/drblury/sigtap/backend"
	"github.com/drblury/sigtap/internal/engine/logging"
)

// Hook roles reported by Installed.
const (
	HookRoleObserver    = "observer"
	HookRolePre         = "pre"
	HookRolePost        = "post"
	HookRoleDispatchTap = "dispatch_tap"
)

// KindUnknown labels signals whose kind could not be extracted.
const KindUnknown = "unknown"

// InstalledHook describes one live hook for diagnostics.
type InstalledHook struct {
	JoinPoint backend.JoinPoint `json:"join_point"`
	Role      string            `json:"role"`
	At        time.Time         `json:"at"`
}

// InstallFailure records a join point that could not be hooked. Failures are
// routine: a spec string may be malformed or name a call the backend never
// exposed, and the session carries on without it.
type InstallFailure struct {
	Spec   string `json:"spec"`
	Reason string `json:"reason"`
}

// DispatchTap configures the hook on the host's low-level dispatch call. It
// is the fallback observation path for signal kinds the subscription manager
// could not subscribe to.
type DispatchTap struct {
	// KindOf extracts the signal kind from the dispatch arguments. Nil means
	// KindFromArgs.
	KindOf func(args []any) (string, bool)
	// Owns reports kinds already observed through subscriptions; those are
	// skipped so a signal is never counted twice.
	Owns func(kind string) bool
	// SampleEveryN thins payload summaries, not signals: every call reaches
	// OnSignal, but Summarize runs only on each Nth. Zero or negative means
	// every call.
	SampleEveryN int
	// Summarize renders a payload summary for sampled calls. Nil disables
	// summaries.
	Summarize func(args []any) string
	// OnSignal receives every tapped signal. summary is empty for unsampled
	// calls.
	OnSignal func(kind, summary string)
}

// InterceptionEngine installs hooks through a backend and keeps them
// accounted for. Every hook is wrapped so a panic inside observation code is
// logged and swallowed; the host's original call always proceeds unless a
// pre hook deliberately returns false.
type InterceptionEngine struct {
	log     logging.ServiceLogger
	backend backend.Backend
	metrics *SignalMetrics

	mu       sync.Mutex
	entries  []installedEntry
	failures []InstallFailure
}

type installedEntry struct {
	info InstalledHook
	reg  backend.Registration
}

// NewInterceptionEngine builds an engine on top of the given backend.
func NewInterceptionEngine(log logging.ServiceLogger, be backend.Backend, metrics *SignalMetrics) *InterceptionEngine {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &InterceptionEngine{log: log, backend: be, metrics: metrics}
}

// InstallObserver hooks a join point without ever suppressing it. observe
// sees the call arguments before the original runs.
func (ie *InterceptionEngine) InstallObserver(jp backend.JoinPoint, observe func(backend.JoinPoint, []any)) error {
	if observe == nil {
		return errors.New("observer installation requires a callback")
	}
	pre := func(args []any) bool {
		observe(jp, args)
		return true
	}
	return ie.install(jp, HookRoleObserver, ie.guardPre(jp, pre), nil)
}

// InstallPre hooks a join point with a hook that may suppress the original
// call by returning false. A panicking pre hook never suppresses.
func (ie *InterceptionEngine) InstallPre(jp backend.JoinPoint, pre backend.PreHook) error {
	if pre == nil {
		return errors.New("pre installation requires a hook")
	}
	return ie.install(jp, HookRolePre, ie.guardPre(jp, pre), nil)
}

// InstallPost hooks a join point with a hook that runs after the original
// call completes.
func (ie *InterceptionEngine) InstallPost(jp backend.JoinPoint, post backend.PostHook) error {
	if post == nil {
		return errors.New("post installation requires a hook")
	}
	return ie.install(jp, HookRolePost, nil, ie.guardPost(jp, post))
}

// InstallStaticObservers parses join point specs and installs an observer on
// each. Malformed specs and join points the backend cannot hook are logged,
// recorded as failures and skipped; the return value is how many observers
// actually went in.
func (ie *InterceptionEngine) InstallStaticObservers(specs []string, observe func(backend.JoinPoint, []any)) int {
	installed := 0
	for _, spec := range specs {
		jp, err := backend.ParseJoinPoint(spec)
		if err != nil {
			ie.recordFailure(spec, err)
			continue
		}
		if err := ie.InstallObserver(jp, observe); err != nil {
			continue
		}
		installed++
	}
	return installed
}

// InstallDispatchTap hooks the host's dispatch call and forwards every
// signal that is not already owned by a subscription.
func (ie *InterceptionEngine) InstallDispatchTap(jp backend.JoinPoint, tap DispatchTap) error {
	if tap.OnSignal == nil {
		return errors.New("dispatch tap requires an OnSignal callback")
	}
	kindOf := tap.KindOf
	if kindOf == nil {
		kindOf = KindFromArgs
	}
	every := uint64(1)
	if tap.SampleEveryN > 1 {
		every = uint64(tap.SampleEveryN)
	}

	var seen atomic.Uint64
	pre := func(args []any) bool {
		kind, ok := kindOf(args)
		if !ok {
			kind = KindUnknown
		}
		if tap.Owns != nil && tap.Owns(kind) {
			return true
		}
		summary := ""
		if tap.Summarize != nil && seen.Add(1)%every == 0 {
			summary = tap.Summarize(args)
		}
		tap.OnSignal(kind, summary)
		return true
	}
	return ie.install(jp, HookRoleDispatchTap, ie.guardPre(jp, pre), nil)
}

func (ie *InterceptionEngine) install(jp backend.JoinPoint, role string, pre backend.PreHook, post backend.PostHook) error {
	if ie.backend == nil {
		err := errors.New("interception requires a backend")
		ie.recordFailure(jp.Signature(), err)
		return err
	}

	reg, err := ie.backend.Install(jp, pre, post)
	if err != nil {
		ie.recordFailure(jp.Signature(), err)
		return err
	}

	entry := installedEntry{
		info: InstalledHook{JoinPoint: jp, Role: role, At: time.Now().UTC()},
		reg:  reg,
	}
	ie.mu.Lock()
	ie.entries = append(ie.entries, entry)
	ie.mu.Unlock()

	ie.log.Debug("hook installed", logging.LogFields{
		"join_point": jp.Signature(),
		"role":       role,
	})
	return nil
}

func (ie *InterceptionEngine) recordFailure(spec string, err error) {
	ie.mu.Lock()
	ie.failures = append(ie.failures, InstallFailure{Spec: spec, Reason: err.Error()})
	ie.mu.Unlock()

	if ie.metrics != nil {
		ie.metrics.RecordInstallFailure(spec)
	}
	ie.log.Info("join point not installable, skipping", logging.LogFields{
		"join_point": spec,
		"error":      err.Error(),
	})
}

// guardPre wraps a pre hook so a panic is logged and the original call still
// runs.
func (ie *InterceptionEngine) guardPre(jp backend.JoinPoint, pre backend.PreHook) backend.PreHook {
	return func(args []any) (run bool) {
		defer func() {
			if r := recover(); r != nil {
				run = true
				ie.log.Error("pre hook panicked, original call proceeds", fmt.Errorf("panic: %v", r), logging.LogFields{
					"join_point": jp.Signature(),
				})
			}
		}()
		return pre(args)
	}
}

// guardPost wraps a post hook so a panic is logged and swallowed.
func (ie *InterceptionEngine) guardPost(jp backend.JoinPoint, post backend.PostHook) backend.PostHook {
	return func(args []any, result any) {
		defer func() {
			if r := recover(); r != nil {
				ie.log.Error("post hook panicked", fmt.Errorf("panic: %v", r), logging.LogFields{
					"join_point": jp.Signature(),
				})
			}
		}()
		post(args, result)
	}
}

// Installed returns the live hooks.
func (ie *InterceptionEngine) Installed() []InstalledHook {
	ie.mu.Lock()
	defer ie.mu.Unlock()
	out := make([]InstalledHook, 0, len(ie.entries))
	for _, e := range ie.entries {
		out = append(out, e.info)
	}
	return out
}

// Failures returns the join points that could not be hooked this session.
func (ie *InterceptionEngine) Failures() []InstallFailure {
	ie.mu.Lock()
	defer ie.mu.Unlock()
	out := make([]InstallFailure, len(ie.failures))
	copy(out, ie.failures)
	return out
}

// Invalidate closes every live hook and forgets session state. It is called
// on detach; the next session installs from scratch.
func (ie *InterceptionEngine) Invalidate() {
	ie.mu.Lock()
	entries := ie.entries
	ie.entries = nil
	ie.failures = nil
	ie.mu.Unlock()

	for _, e := range entries {
		if err := e.reg.Close(); err != nil {
			ie.log.Debug("hook close failed", logging.LogFields{
				"join_point": e.info.JoinPoint.Signature(),
				"error":      err.Error(),
			})
		}
	}
}

// KindFromArgs extracts a signal kind from dispatch arguments by reflection.
// It prefers a Kind() string getter, then an exported Kind field, then an
// unexported kind field on an addressable payload.
func KindFromArgs(args []any) (string, bool) {
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if kind, ok := kindOfPayload(arg); ok {
			return kind, true
		}
	}
	return "", false
}

func kindOfPayload(payload any) (kind string, ok bool) {
	defer func() {
		if recover() != nil {
			kind, ok = "", false
		}
	}()

	rv := reflect.ValueOf(payload)
	if m := rv.MethodByName("Kind"); m.IsValid() {
		mt := m.Type()
		if mt.NumIn() == 0 && mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.String {
			return m.Call(nil)[0].String(), true
		}
	}

	elem := rv
	if elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			return "", false
		}
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return "", false
	}

	f := elem.FieldByName("Kind")
	if !f.IsValid() {
		f = elem.FieldByName("kind")
	}
	if !f.IsValid() || f.Kind() != reflect.String {
		return "", false
	}
	if !f.CanInterface() {
		if !f.CanAddr() {
			return "", false
		}
		f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
	}
	return f.String(), true
}
