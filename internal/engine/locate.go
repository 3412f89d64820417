package engine

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/drblury/sigtap/internal/engine/logging"
	"github.com/drblury/sigtap/internal/engine/scan"
)

// Resolver exposes container-managed instances for probing. Hosts whose
// object graphs never reference the bus directly provide one; it is the
// last probe origin, after fields and getters.
type Resolver interface {
	Instances() []any
}

// BusHandle is a located bus together with its provenance.
type BusHandle struct {
	Bus     any
	Origin  scan.Origin
	Path    string
	FoundAt time.Time
}

// BusLocator probes object graph roots for a signal bus. The first accepted
// node is memoized; later calls return the cached handle without scanning
// until Reset drops it at session end.
type BusLocator struct {
	log     logging.ServiceLogger
	scanner scan.GraphScanner
	accept  func(scan.Node) bool
	metrics *SignalMetrics

	mu     sync.Mutex
	handle *BusHandle
	probes int
}

// NewBusLocator builds a locator. accept decides whether a discovered node
// is the bus; it sees fields, getters and resolver instances uniformly.
func NewBusLocator(log logging.ServiceLogger, scanner scan.GraphScanner, accept func(scan.Node) bool, metrics *SignalMetrics) *BusLocator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if scanner == nil {
		scanner = scan.NewReflectScanner()
	}
	return &BusLocator{log: log, scanner: scanner, accept: accept, metrics: metrics}
}

// AcceptTypeName returns an accept function matching nodes whose static or
// dynamic type renders as name, for example "*hostsim.SignalBus".
func AcceptTypeName(name string) func(scan.Node) bool {
	return func(n scan.Node) bool {
		if n.Type != nil && n.Type.String() == name {
			return true
		}
		if t := reflect.TypeOf(n.Value); t != nil && t.String() == name {
			return true
		}
		return false
	}
}

// TryLocate runs one probe pass unless a handle is already memoized. Roots
// are scanned in order, fields and getters first; the resolver's instances
// are only consulted when the graph walk comes up empty. Repeated calls
// after a hit are cheap and return the same handle.
func (l *BusLocator) TryLocate(roots []any, resolver Resolver) (*BusHandle, bool) {
	l.mu.Lock()
	if l.handle != nil {
		h := l.handle
		l.mu.Unlock()
		return h, true
	}
	l.probes++
	probe := l.probes
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.RecordProbe()
	}

	for _, root := range roots {
		if root == nil {
			continue
		}
		node, ok, err := scan.FindFunc(l.scanner, root, l.accept)
		if err != nil {
			l.log.Debug("root not scannable", logging.LogFields{"root": fmt.Sprintf("%T", root), "error": err.Error()})
			continue
		}
		if ok {
			return l.memoize(node.Value, node.Origin, fmt.Sprintf("%T.%s", root, node.Name), probe), true
		}
	}

	if resolver != nil {
		for _, inst := range resolver.Instances() {
			if inst == nil {
				continue
			}
			node := scan.Node{Name: "container", Type: reflect.TypeOf(inst), Value: inst, Origin: scan.OriginResolver}
			if l.accept(node) {
				return l.memoize(inst, scan.OriginResolver, "container", probe), true
			}
		}
	}

	return nil, false
}

func (l *BusLocator) memoize(bus any, origin scan.Origin, path string, probe int) *BusHandle {
	handle := &BusHandle{Bus: bus, Origin: origin, Path: path, FoundAt: time.Now().UTC()}

	l.mu.Lock()
	// A concurrent probe may have won; first writer sticks.
	if l.handle == nil {
		l.handle = handle
	} else {
		handle = l.handle
	}
	l.mu.Unlock()

	l.log.Info("signal bus located", logging.LogFields{
		"origin": handle.Origin.String(),
		"path":   handle.Path,
		"probes": probe,
	})
	return handle
}

// Handle returns the memoized handle, if any.
func (l *BusLocator) Handle() (*BusHandle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle, l.handle != nil
}

// Probes returns how many passes actually scanned.
func (l *BusLocator) Probes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.probes
}

// Reset drops the memoized handle. The next TryLocate probes again.
func (l *BusLocator) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handle = nil
}
