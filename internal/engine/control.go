package engine

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	enginerrors "github.com/drblury/sigtap/internal/engine/errors"
	"github.com/drblury/sigtap/internal/engine/jsoncodec"
	"github.com/drblury/sigtap/internal/engine/logging"
)

// Toggle names registered by the engine. Hosts may register more.
const (
	ToggleLogging        = "logging"
	ToggleVerbose        = "verbose"
	ToggleCaptureSignals = "capture:signals"
	ToggleCaptureCalls   = "capture:calls"
	ToggleRelay          = "relay"
)

// Dump triggers the engine registers. Hosts may register more.
const (
	// DumpSnapshot renders the aggregate snapshot to the dump writer.
	DumpSnapshot = "snapshot"
	// DumpReset clears the aggregate counters and the recent ring.
	DumpReset = "reset"
)

// ControlSurface holds named boolean toggles and dump triggers. Toggles are
// read on the signal hot path, so they are plain atomics behind a registry
// lock that is only taken for registration and enumeration.
type ControlSurface struct {
	log  logging.ServiceLogger
	cors []string

	mu      sync.RWMutex
	toggles map[string]*atomic.Bool
	dumps   map[string]func() error
}

// NewControlSurface builds an empty surface. corsOrigins applies to the HTTP
// handlers; an empty list disables CORS headers.
func NewControlSurface(log logging.ServiceLogger, corsOrigins []string) *ControlSurface {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ControlSurface{
		log:     log,
		cors:    corsOrigins,
		toggles: make(map[string]*atomic.Bool),
		dumps:   make(map[string]func() error),
	}
}

// RegisterToggle adds a named toggle with an initial value and returns the
// flag for direct hot-path reads. Re-registering returns the existing flag
// with its current value untouched.
func (cs *ControlSurface) RegisterToggle(name string, initial bool) *atomic.Bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if flag, ok := cs.toggles[name]; ok {
		return flag
	}
	flag := &atomic.Bool{}
	flag.Store(initial)
	cs.toggles[name] = flag
	return flag
}

// RegisterDump adds a named dump trigger.
func (cs *ControlSurface) RegisterDump(name string, fn func() error) {
	if fn == nil {
		return
	}
	cs.mu.Lock()
	cs.dumps[name] = fn
	cs.mu.Unlock()
}

func (cs *ControlSurface) toggle(name string) (*atomic.Bool, error) {
	cs.mu.RLock()
	flag, ok := cs.toggles[name]
	cs.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", enginerrors.ErrUnknownToggle, name)
	}
	return flag, nil
}

// Set stores a toggle value.
func (cs *ControlSurface) Set(name string, value bool) error {
	flag, err := cs.toggle(name)
	if err != nil {
		return err
	}
	flag.Store(value)
	cs.log.Info("toggle set", logging.LogFields{"toggle": name, "value": value})
	return nil
}

// Get reads a toggle value.
func (cs *ControlSurface) Get(name string) (bool, error) {
	flag, err := cs.toggle(name)
	if err != nil {
		return false, err
	}
	return flag.Load(), nil
}

// Toggle flips a toggle and returns the new value.
func (cs *ControlSurface) Toggle(name string) (bool, error) {
	flag, err := cs.toggle(name)
	if err != nil {
		return false, err
	}
	for {
		old := flag.Load()
		if flag.CompareAndSwap(old, !old) {
			cs.log.Info("toggle flipped", logging.LogFields{"toggle": name, "value": !old})
			return !old, nil
		}
	}
}

// Toggles returns a snapshot of all toggles and their current values.
func (cs *ControlSurface) Toggles() map[string]bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]bool, len(cs.toggles))
	for name, flag := range cs.toggles {
		out[name] = flag.Load()
	}
	return out
}

// Dumps returns the registered dump trigger names.
func (cs *ControlSurface) Dumps() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]string, 0, len(cs.dumps))
	for name := range cs.dumps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TriggerDump runs a named dump trigger.
func (cs *ControlSurface) TriggerDump(name string) error {
	cs.mu.RLock()
	fn, ok := cs.dumps[name]
	cs.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", enginerrors.ErrUnknownDump, name)
	}
	cs.log.Info("dump triggered", logging.LogFields{"dump": name})
	return fn()
}

// TogglesHandler serves the toggle list and accepts toggle updates.
func (cs *ControlSurface) TogglesHandler() http.Handler {
	return http.HandlerFunc(cs.handleToggles)
}

// DumpHandler triggers dumps over HTTP.
func (cs *ControlSurface) DumpHandler() http.Handler {
	return http.HandlerFunc(cs.handleDump)
}

type toggleRequest struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

func (cs *ControlSurface) handleToggles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	cs.applyCORS(w, r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		if err := jsoncodec.Encode(w, cs.Toggles()); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	case http.MethodPost:
		var req toggleRequest
		if err := jsoncodec.Decode(r.Body, &req); err != nil {
			http.Error(w, "invalid toggle request", http.StatusBadRequest)
			return
		}
		if err := cs.Set(req.Name, req.Value); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err := jsoncodec.Encode(w, req); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

type dumpRequest struct {
	Name string `json:"name"`
}

func (cs *ControlSurface) handleDump(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	cs.applyCORS(w, r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		var req dumpRequest
		if err := jsoncodec.Decode(r.Body, &req); err != nil {
			http.Error(w, "invalid dump request", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			req.Name = DumpSnapshot
		}
		if err := cs.TriggerDump(req.Name); err != nil {
			if errors.Is(err, enginerrors.ErrUnknownDump) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if err := jsoncodec.Encode(w, map[string]string{"triggered": req.Name}); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// ApplyCORS writes the surface's CORS headers, for handlers mounted next to
// the toggle and dump endpoints. Preflight handling stays with the caller.
func (cs *ControlSurface) ApplyCORS(w http.ResponseWriter, r *http.Request) {
	cs.applyCORS(w, r)
}

func (cs *ControlSurface) applyCORS(w http.ResponseWriter, r *http.Request) {
	if len(cs.cors) == 0 {
		return
	}
	allowed := cs.allowedCORSOrigin(r.Header.Get("Origin"))
	if allowed != "" {
		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
}

// allowedCORSOrigin checks if the request origin is allowed and returns the
// appropriate Access-Control-Allow-Origin value.
func (cs *ControlSurface) allowedCORSOrigin(requestOrigin string) string {
	for _, allowed := range cs.cors {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
