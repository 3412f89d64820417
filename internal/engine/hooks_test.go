package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/sigtap/internal/engine/jsoncodec"
)

func TestSessionHooks_MergeCallsBothInOrder(t *testing.T) {
	var order []string

	a := SessionHooks{
		OnAttach: func(SessionContext) { order = append(order, "a.attach") },
		OnDetach: func(SessionContext) { order = append(order, "a.detach") },
		OnDump:   func(SessionContext, AggregateSnapshot) { order = append(order, "a.dump") },
	}
	b := SessionHooks{
		OnAttach: func(SessionContext) { order = append(order, "b.attach") },
		OnDetach: func(SessionContext) { order = append(order, "b.detach") },
		OnDump:   func(SessionContext, AggregateSnapshot) { order = append(order, "b.dump") },
	}

	merged := a.Merge(b)
	merged.OnAttach(SessionContext{})
	merged.OnDetach(SessionContext{})
	merged.OnDump(SessionContext{}, AggregateSnapshot{})

	assert.Equal(t, []string{"a.attach", "b.attach", "a.detach", "b.detach", "a.dump", "b.dump"}, order)
}

func TestSessionHooks_MergeWithNilSides(t *testing.T) {
	called := false
	withAttach := SessionHooks{OnAttach: func(SessionContext) { called = true }}

	merged := SessionHooks{}.Merge(withAttach)
	require.NotNil(t, merged.OnAttach)
	merged.OnAttach(SessionContext{})
	assert.True(t, called)
	assert.Nil(t, merged.OnDetach)
	assert.Nil(t, merged.OnDump)

	empty := SessionHooks{}.Merge(SessionHooks{})
	assert.Nil(t, empty.OnAttach)
	assert.Nil(t, empty.OnDetach)
	assert.Nil(t, empty.OnDump)
}

func TestLoggingSessionHooks(t *testing.T) {
	logger := newCaptureLogger()
	hooks := LoggingSessionHooks(logger)

	ctx := SessionContext{
		SessionID:  "01TEST",
		Origin:     "field",
		Path:       "*hostsim.World.bus",
		AttachedAt: time.Now().UTC(),
	}
	hooks.OnAttach(ctx)

	ctx.Duration = 1500 * time.Millisecond
	ctx.Signals = 42
	hooks.OnDetach(ctx)
	hooks.OnDump(ctx, AggregateSnapshot{Total: 42, DistinctKinds: 3})

	entries := logger.rec.entries()
	require.Len(t, entries, 3)

	assert.Equal(t, "session attached", entries[0].msg)
	assert.Equal(t, "01TEST", entries[0].fields["session_id"])
	assert.Equal(t, "field", entries[0].fields["origin"])

	assert.Equal(t, "session detached", entries[1].msg)
	assert.Equal(t, int64(1500), entries[1].fields["duration_ms"])
	assert.Equal(t, uint64(42), entries[1].fields["signals"])

	assert.Equal(t, "snapshot dumped", entries[2].msg)
	assert.Equal(t, uint64(42), entries[2].fields["total"])
}

func TestRelaySessionHooks(t *testing.T) {
	recorder := &recordingPublisher{}
	relay, err := NewRelay(nil, recorder, "sigtap.events")
	require.NoError(t, err)

	hooks := RelaySessionHooks(relay)
	hooks.OnAttach(SessionContext{SessionID: "01ATTACH"})
	hooks.OnDetach(SessionContext{SessionID: "01DETACH"})

	require.Len(t, recorder.messages, 2)
	assert.Equal(t, "01ATTACH", recorder.messages[0].UUID)
	assert.Equal(t, "sigtap.session.attached", recorder.messages[0].Metadata.Get(MetadataKeyKind))
	assert.Equal(t, "sigtap.session.detached", recorder.messages[1].Metadata.Get(MetadataKeyKind))

	var rec EventRecord
	require.NoError(t, jsoncodec.Unmarshal(recorder.messages[0].Payload, &rec))
	assert.Equal(t, "sigtap.session.attached", rec.Kind)
	assert.False(t, rec.SeenAt.IsZero())
}

func TestRelaySessionHooksWithNilRelay(t *testing.T) {
	hooks := RelaySessionHooks(nil)
	assert.Nil(t, hooks.OnAttach)
	assert.Nil(t, hooks.OnDetach)
	assert.Nil(t, hooks.OnDump)
}
