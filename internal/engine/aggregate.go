package engine

import (
	"sort"
	"sync"
	"time"
)

// defaultRingCapacity bounds the recent-event ring when the config leaves
// RingCapacity at zero.
const defaultRingCapacity = 100

// Observation paths recorded per event. Typed events arrive through kind
// subscriptions; fallback events are captured at the dispatch primitive;
// call events come from observers on static join points.
const (
	PathTyped    = "typed"
	PathFallback = "fallback"
	PathCall     = "call"
)

// EventRecord is one observed signal kept in the recent ring.
type EventRecord struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Path    string    `json:"path"`
	Summary string    `json:"summary,omitempty"`
	SeenAt  time.Time `json:"seen_at"`
}

// KindCount pairs a kind with its running total.
type KindCount struct {
	Kind  string `json:"kind"`
	Count uint64 `json:"count"`
}

// AggregateSnapshot is a point-in-time copy of everything the aggregator
// holds. It shares no memory with the live aggregator, so callers may keep
// or mutate it freely.
type AggregateSnapshot struct {
	Counts        []KindCount   `json:"counts"`
	Total         uint64        `json:"total"`
	DistinctKinds int           `json:"distinct_kinds"`
	TopKind       string        `json:"top_kind,omitempty"`
	TopKindCount  uint64        `json:"top_kind_count,omitempty"`
	RatePerSecond float64       `json:"rate_per_second"`
	Recent        []EventRecord `json:"recent"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastSeenAt    time.Time     `json:"last_seen_at"`
	TakenAt       time.Time     `json:"taken_at"`
}

// Aggregator keeps per-kind counters and a bounded ring of recent events.
// Counters are initialized before the first event so a kind that never
// fires still reports zero.
type Aggregator struct {
	mu        sync.Mutex
	counts    map[string]uint64
	ring      *recentRing
	total     uint64
	firstSeen time.Time
	lastSeen  time.Time
}

// NewAggregator builds an aggregator whose recent ring holds ringCapacity
// events. Zero or negative capacities fall back to the default.
func NewAggregator(ringCapacity int) *Aggregator {
	return &Aggregator{
		counts: make(map[string]uint64),
		ring:   newRecentRing(ringCapacity),
	}
}

// EnsureKind initializes the counter for kind at zero when it does not
// exist yet. Recording later increments it.
func (a *Aggregator) EnsureKind(kinds ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, kind := range kinds {
		if _, ok := a.counts[kind]; !ok {
			a.counts[kind] = 0
		}
	}
}

// Record counts one observed event and appends it to the recent ring.
func (a *Aggregator) Record(rec EventRecord) {
	if rec.SeenAt.IsZero() {
		rec.SeenAt = time.Now().UTC()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.counts[rec.Kind]++
	a.total++
	if a.firstSeen.IsZero() {
		a.firstSeen = rec.SeenAt
	}
	a.lastSeen = rec.SeenAt
	a.ring.Add(rec)
}

// Count returns the running total for one kind. Unknown kinds report zero.
func (a *Aggregator) Count(kind string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[kind]
}

// Total returns the number of events recorded since the last reset.
func (a *Aggregator) Total() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// Kinds returns every initialized kind in sorted order.
func (a *Aggregator) Kinds() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	kinds := make([]string, 0, len(a.counts))
	for kind := range a.counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Snapshot copies the aggregator state without mutating it. Counts are
// sorted by count descending, ties by kind; recent events run oldest to
// newest.
func (a *Aggregator) Snapshot() AggregateSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := AggregateSnapshot{
		Counts:        make([]KindCount, 0, len(a.counts)),
		Total:         a.total,
		DistinctKinds: len(a.counts),
		Recent:        a.ring.Snapshot(),
		FirstSeenAt:   a.firstSeen,
		LastSeenAt:    a.lastSeen,
		TakenAt:       time.Now().UTC(),
	}

	for kind, count := range a.counts {
		snap.Counts = append(snap.Counts, KindCount{Kind: kind, Count: count})
		if count > snap.TopKindCount {
			snap.TopKind = kind
			snap.TopKindCount = count
		}
	}
	sort.Slice(snap.Counts, func(i, j int) bool {
		if snap.Counts[i].Count != snap.Counts[j].Count {
			return snap.Counts[i].Count > snap.Counts[j].Count
		}
		return snap.Counts[i].Kind < snap.Counts[j].Kind
	})

	if span := a.lastSeen.Sub(a.firstSeen); span > 0 && a.total > 1 {
		snap.RatePerSecond = float64(a.total) / span.Seconds()
	}
	return snap
}

// Reset zeroes every counter in place, keeping the kinds initialized, and
// empties the recent ring.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for kind := range a.counts {
		a.counts[kind] = 0
	}
	a.total = 0
	a.firstSeen = time.Time{}
	a.lastSeen = time.Time{}
	a.ring.Clear()
}

// ClearRecent empties the recent ring but leaves counters untouched. Used
// on detach when counters are configured to survive sessions.
func (a *Aggregator) ClearRecent() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ring.Clear()
}

// recentRing is a fixed-size FIFO of event records. Once full, each new
// record overwrites the oldest one.
type recentRing struct {
	records []EventRecord
	next    int
	filled  int
}

func newRecentRing(capacity int) *recentRing {
	if capacity <= 0 {
		capacity = defaultRingCapacity
	}
	return &recentRing{records: make([]EventRecord, capacity)}
}

func (r *recentRing) Add(rec EventRecord) {
	if r == nil || len(r.records) == 0 {
		return
	}
	r.records[r.next] = rec
	r.next = (r.next + 1) % len(r.records)
	if r.filled < len(r.records) {
		r.filled++
	}
}

func (r *recentRing) Snapshot() []EventRecord {
	if r == nil || r.filled == 0 {
		return nil
	}
	out := make([]EventRecord, r.filled)
	for i := 0; i < r.filled; i++ {
		idx := r.next - r.filled + i
		if idx < 0 {
			idx += len(r.records)
		}
		out[i] = r.records[idx]
	}
	return out
}

func (r *recentRing) Clear() {
	if r == nil {
		return
	}
	r.next = 0
	r.filled = 0
}
