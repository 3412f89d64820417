package engine

import (
	"sort"
	"sync"

	enginerrors "github.com/drblury/sigtap/internal/engine/errors"
	"github.com/drblury/sigtap/internal/engine/logging"
)

// KindSubscriber is the minimal bus surface needed to observe kinds by
// name. Hosts satisfy it structurally; no interface import is required on
// their side.
type KindSubscriber interface {
	SubscribeKind(kind string, fn func(payload any)) (int, error)
}

// KindLister is implemented by buses that can enumerate the kinds they
// carry. When the configuration names no kinds, the engine falls back to
// this list.
type KindLister interface {
	Kinds() []string
}

// SubscribeOutcome labels one subscription attempt.
type SubscribeOutcome string

const (
	// SubscribeOK means the typed path now covers the kind.
	SubscribeOK SubscribeOutcome = "ok"
	// SubscribeSkipped means the kind was already covered; subscribing
	// again is idempotent.
	SubscribeSkipped SubscribeOutcome = "skipped"
	// SubscribeFailed means the bus refused the subscription. This is
	// routine: the kind stays observable through the fallback path.
	SubscribeFailed SubscribeOutcome = "failed"
)

// Subscription reports one kind's subscription attempt.
type Subscription struct {
	Kind    string           `json:"kind"`
	Outcome SubscribeOutcome `json:"outcome"`
	Reason  string           `json:"reason,omitempty"`
	Err     error            `json:"-"`
}

// SetupReport sums one setup pass over all requested kinds.
type SetupReport struct {
	Pass      int            `json:"pass"`
	Attempted int            `json:"attempted"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []Subscription `json:"results"`
}

// SubscriptionManager establishes per-kind subscriptions on a located bus.
// Each kind is tried independently so one refusal never blocks the rest,
// and failures are recorded as routine diagnostics rather than errors.
type SubscriptionManager struct {
	log     logging.ServiceLogger
	metrics *SignalMetrics

	mu     sync.Mutex
	owned  map[string]int
	failed map[string]string
	passes int
}

// NewSubscriptionManager builds a manager. log may be nil; metrics may be
// nil when the engine runs without a scrape endpoint.
func NewSubscriptionManager(log logging.ServiceLogger, metrics *SignalMetrics) *SubscriptionManager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SubscriptionManager{
		log:     log,
		metrics: metrics,
		owned:   make(map[string]int),
		failed:  make(map[string]string),
	}
}

// TrySubscribe attempts to cover one kind through the typed path. Repeat
// calls for an owned kind are no-ops. Failures come back in the result, not
// as an error: the caller keeps going with the remaining kinds.
func (s *SubscriptionManager) TrySubscribe(bus KindSubscriber, kind string, fn func(payload any)) Subscription {
	s.mu.Lock()
	if _, ok := s.owned[kind]; ok {
		s.mu.Unlock()
		return Subscription{Kind: kind, Outcome: SubscribeSkipped}
	}
	s.mu.Unlock()

	id, err := bus.SubscribeKind(kind, fn)
	if err != nil {
		reason := classifySubscribeFailure(err)

		s.mu.Lock()
		s.failed[kind] = reason
		s.mu.Unlock()

		if s.metrics != nil {
			s.metrics.RecordSubscribeFailure(kind, reason)
		}
		s.log.Info("kind not subscribable, fallback path stays responsible", logging.LogFields{
			"kind":   kind,
			"reason": reason,
			"error":  err.Error(),
		})
		return Subscription{Kind: kind, Outcome: SubscribeFailed, Reason: reason, Err: err}
	}

	s.mu.Lock()
	s.owned[kind] = id
	delete(s.failed, kind)
	s.mu.Unlock()

	return Subscription{Kind: kind, Outcome: SubscribeOK}
}

// SetupAll runs one pass over kinds. Kinds are independent: the pass always
// visits every one of them and reports per-kind outcomes.
func (s *SubscriptionManager) SetupAll(bus KindSubscriber, kinds []string, fn func(kind string, payload any)) SetupReport {
	s.mu.Lock()
	s.passes++
	pass := s.passes
	s.mu.Unlock()

	report := SetupReport{Pass: pass, Results: make([]Subscription, 0, len(kinds))}
	for _, kind := range kinds {
		kind := kind
		sub := s.TrySubscribe(bus, kind, func(payload any) { fn(kind, payload) })

		report.Attempted++
		switch sub.Outcome {
		case SubscribeFailed:
			report.Failed++
		default:
			report.Succeeded++
		}
		report.Results = append(report.Results, sub)
	}

	s.log.Info("subscription setup pass finished", logging.LogFields{
		"pass":      report.Pass,
		"attempted": report.Attempted,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	})
	return report
}

// Owns reports whether the typed path covers kind. The dispatch tap skips
// owned kinds so no event is counted twice.
func (s *SubscriptionManager) Owns(kind string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.owned[kind]
	return ok
}

// Subscribed lists the kinds covered by the typed path, sorted.
func (s *SubscriptionManager) Subscribed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := make([]string, 0, len(s.owned))
	for kind := range s.owned {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Failures maps kinds to the reason their last attempt failed.
func (s *SubscriptionManager) Failures() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.failed))
	for kind, reason := range s.failed {
		out[kind] = reason
	}
	return out
}

// Passes returns how many setup passes have run.
func (s *SubscriptionManager) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

// Reset forgets all subscription state. Listener ids die with the session's
// bus, so there is nothing to unsubscribe from.
func (s *SubscriptionManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned = make(map[string]int)
	s.failed = make(map[string]string)
}

func classifySubscribeFailure(err error) string {
	if enginerrors.IsMarshalIncompatible(err) {
		return FailureReasonMarshal
	}
	return FailureReasonOther
}
