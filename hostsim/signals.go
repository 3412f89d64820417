package hostsim

import (
	"fmt"
	"time"
)

// Signal kinds published by the simulated host.
const (
	KindActorMoved   = "actor.moved"
	KindScoreChanged = "score.changed"
	KindDoorOpened   = "door.opened"
	// KindFrameBlob carries a native-only payload that never crosses the
	// typed subscription path.
	KindFrameBlob = "frame.blob"
)

// Signal is one event crossing the bus. Fields are unexported on purpose so
// observers have to go through the getters, mirroring hosts that expose
// events as property bags.
type Signal struct {
	kind    string
	seq     uint64
	at      time.Time
	payload any
}

// NewSignal builds a signal with an explicit sequence number. Most callers
// use SignalBus.Publish, which assigns the sequence itself.
func NewSignal(kind string, seq uint64, payload any) *Signal {
	return &Signal{kind: kind, seq: seq, at: time.Now(), payload: payload}
}

func (s *Signal) Kind() string  { return s.kind }
func (s *Signal) Seq() uint64   { return s.seq }
func (s *Signal) At() time.Time { return s.at }
func (s *Signal) Payload() any  { return s.payload }

// ActorMoved is a portable payload; it crosses the typed subscription path.
type ActorMoved struct {
	Actor string
	X, Y  float64
}

// ScoreChanged is a portable payload.
type ScoreChanged struct {
	Player string
	Delta  int
	Total  int
}

// DoorOpened is a portable payload.
type DoorOpened struct {
	Door  string
	Actor string
}

// FrameBlob is a native-only payload. The bus refuses to hand it to typed
// subscribers, so observers have to tap the dispatch primitive instead.
type FrameBlob struct {
	Frame  uint64
	Pixels []byte
}

// MarshalError reports a payload that cannot cross the typed subscription
// boundary.
type MarshalError struct {
	Kind string
}

func (e *MarshalError) Error() string {
	return fmt.Sprintf("hostsim: payload for %q cannot cross the subscription boundary", e.Kind)
}

// MarshalIncompatible marks the error class for observers.
func (e *MarshalError) MarshalIncompatible() bool { return true }
