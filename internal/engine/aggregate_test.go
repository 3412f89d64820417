package engine

import (
	"fmt"
	"testing"
	"time"
)

func TestCounterStartsAtZero(t *testing.T) {
	agg := NewAggregator(10)
	agg.EnsureKind("actor.moved", "door.opened")

	if got := agg.Count("actor.moved"); got != 0 {
		t.Fatalf("expected initialized counter to be zero, got %d", got)
	}

	snap := agg.Snapshot()
	if snap.DistinctKinds != 2 {
		t.Fatalf("expected 2 initialized kinds, got %d", snap.DistinctKinds)
	}
	for _, kc := range snap.Counts {
		if kc.Count != 0 {
			t.Fatalf("expected zero count for %s before any event, got %d", kc.Kind, kc.Count)
		}
	}
}

func TestRecordIncrementsCounter(t *testing.T) {
	agg := NewAggregator(10)
	agg.EnsureKind("actor.moved")

	for i := 0; i < 3; i++ {
		agg.Record(EventRecord{ID: fmt.Sprintf("%03d", i), Kind: "actor.moved", Path: PathTyped})
	}
	agg.Record(EventRecord{ID: "100", Kind: "door.opened", Path: PathTyped})

	if got := agg.Count("actor.moved"); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := agg.Count("door.opened"); got != 1 {
		t.Fatalf("expected uninitialized kind to count from zero, got %d", got)
	}
	if got := agg.Total(); got != 4 {
		t.Fatalf("expected total 4, got %d", got)
	}
	if got := agg.Count("never.seen"); got != 0 {
		t.Fatalf("expected zero for unknown kind, got %d", got)
	}
}

func TestRingKeepsLastHundredInOrder(t *testing.T) {
	agg := NewAggregator(100)

	for i := 1; i <= 150; i++ {
		agg.Record(EventRecord{ID: fmt.Sprintf("%03d", i), Kind: "actor.moved", Path: PathTyped})
	}

	snap := agg.Snapshot()
	if len(snap.Recent) != 100 {
		t.Fatalf("expected ring to hold 100 records, got %d", len(snap.Recent))
	}
	if snap.Recent[0].ID != "051" {
		t.Fatalf("expected oldest surviving record to be 051, got %s", snap.Recent[0].ID)
	}
	if snap.Recent[99].ID != "150" {
		t.Fatalf("expected newest record to be 150, got %s", snap.Recent[99].ID)
	}
	for i := 1; i < len(snap.Recent); i++ {
		if snap.Recent[i-1].ID >= snap.Recent[i].ID {
			t.Fatalf("expected arrival order, got %s before %s", snap.Recent[i-1].ID, snap.Recent[i].ID)
		}
	}
	if got := agg.Count("actor.moved"); got != 150 {
		t.Fatalf("counters must not be capped by the ring, got %d", got)
	}
}

func TestRingBelowCapacity(t *testing.T) {
	agg := NewAggregator(100)
	for i := 1; i <= 7; i++ {
		agg.Record(EventRecord{ID: fmt.Sprintf("%03d", i), Kind: "actor.moved"})
	}

	recent := agg.Snapshot().Recent
	if len(recent) != 7 {
		t.Fatalf("expected 7 records, got %d", len(recent))
	}
	if recent[0].ID != "001" || recent[6].ID != "007" {
		t.Fatalf("unexpected order: first %s last %s", recent[0].ID, recent[6].ID)
	}
}

func TestSnapshotIsPure(t *testing.T) {
	agg := NewAggregator(10)
	agg.Record(EventRecord{ID: "001", Kind: "actor.moved"})
	agg.Record(EventRecord{ID: "002", Kind: "door.opened"})

	first := agg.Snapshot()
	second := agg.Snapshot()

	if first.Total != second.Total || len(first.Recent) != len(second.Recent) {
		t.Fatalf("consecutive snapshots differ: %+v vs %+v", first, second)
	}

	// Mutating a snapshot must not leak back into the aggregator.
	first.Counts[0].Count = 999
	first.Recent[0].Kind = "tampered"

	if got := agg.Count("actor.moved"); got != 1 {
		t.Fatalf("snapshot mutation leaked into counters: %d", got)
	}
	if rec := agg.Snapshot().Recent[0]; rec.Kind != "actor.moved" {
		t.Fatalf("snapshot mutation leaked into ring: %+v", rec)
	}
}

func TestSnapshotDerivedStats(t *testing.T) {
	agg := NewAggregator(10)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		agg.Record(EventRecord{ID: fmt.Sprintf("%03d", i), Kind: "actor.moved", SeenAt: base.Add(time.Duration(i) * time.Second)})
	}
	agg.Record(EventRecord{ID: "100", Kind: "door.opened", SeenAt: base.Add(3 * time.Second)})

	snap := agg.Snapshot()
	if snap.TopKind != "actor.moved" || snap.TopKindCount != 4 {
		t.Fatalf("unexpected top kind: %s (%d)", snap.TopKind, snap.TopKindCount)
	}
	if snap.DistinctKinds != 2 {
		t.Fatalf("expected 2 distinct kinds, got %d", snap.DistinctKinds)
	}
	// 5 events over 3 seconds.
	if snap.RatePerSecond < 1.6 || snap.RatePerSecond > 1.7 {
		t.Fatalf("unexpected rate: %f", snap.RatePerSecond)
	}
	if !snap.FirstSeenAt.Equal(base) || !snap.LastSeenAt.Equal(base.Add(3*time.Second)) {
		t.Fatalf("unexpected seen range: %s .. %s", snap.FirstSeenAt, snap.LastSeenAt)
	}
}

func TestSnapshotCountsSortedByCountDescending(t *testing.T) {
	agg := NewAggregator(10)
	agg.EnsureKind("frame.blob")
	for i := 0; i < 5; i++ {
		agg.Record(EventRecord{Kind: "actor.moved"})
	}
	for i := 0; i < 2; i++ {
		agg.Record(EventRecord{Kind: "door.opened"})
	}
	agg.Record(EventRecord{Kind: "score.changed"})
	agg.Record(EventRecord{Kind: "boss.hit"})

	snap := agg.Snapshot()
	got := make([]string, 0, len(snap.Counts))
	for _, kc := range snap.Counts {
		got = append(got, kc.Kind)
	}

	// Busiest kinds first, ties alphabetical, zero-count kinds last.
	want := []string{"actor.moved", "door.opened", "boss.hit", "score.changed", "frame.blob"}
	if len(got) != len(want) {
		t.Fatalf("expected %d kinds, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order at %d: got %v want %v", i, got, want)
		}
	}
}

func TestResetZeroesCountersAndEmptiesRing(t *testing.T) {
	agg := NewAggregator(10)
	agg.EnsureKind("actor.moved")
	agg.Record(EventRecord{ID: "001", Kind: "actor.moved"})
	agg.Record(EventRecord{ID: "002", Kind: "door.opened"})

	agg.Reset()

	if got := agg.Count("actor.moved"); got != 0 {
		t.Fatalf("expected counter reset to zero, got %d", got)
	}
	if got := agg.Total(); got != 0 {
		t.Fatalf("expected total reset to zero, got %d", got)
	}

	snap := agg.Snapshot()
	if len(snap.Recent) != 0 {
		t.Fatalf("expected empty ring after reset, got %d records", len(snap.Recent))
	}
	if snap.DistinctKinds != 2 {
		t.Fatalf("expected kinds to stay initialized at zero, got %d", snap.DistinctKinds)
	}
	if !snap.FirstSeenAt.IsZero() || !snap.LastSeenAt.IsZero() {
		t.Fatalf("expected seen range cleared, got %s .. %s", snap.FirstSeenAt, snap.LastSeenAt)
	}
}

func TestClearRecentKeepsCounters(t *testing.T) {
	agg := NewAggregator(10)
	agg.Record(EventRecord{ID: "001", Kind: "actor.moved"})

	agg.ClearRecent()

	if got := agg.Count("actor.moved"); got != 1 {
		t.Fatalf("expected counter to survive, got %d", got)
	}
	if recent := agg.Snapshot().Recent; len(recent) != 0 {
		t.Fatalf("expected empty ring, got %d records", len(recent))
	}
}

func TestRingWrapsAfterClear(t *testing.T) {
	agg := NewAggregator(3)
	for i := 1; i <= 5; i++ {
		agg.Record(EventRecord{ID: fmt.Sprintf("%03d", i), Kind: "actor.moved"})
	}
	agg.ClearRecent()
	agg.Record(EventRecord{ID: "006", Kind: "actor.moved"})

	recent := agg.Snapshot().Recent
	if len(recent) != 1 || recent[0].ID != "006" {
		t.Fatalf("expected only the post-clear record, got %+v", recent)
	}
}
