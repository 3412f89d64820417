package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	enginerrors "github.com/drblury/sigtap/internal/engine/errors"
	"github.com/drblury/sigtap/internal/engine/jsoncodec"
)

type relayTestContextKey struct{}

type recordingPublisher struct {
	topics   []string
	messages []*message.Message
	err      error
}

func (p *recordingPublisher) Publish(topic string, messages ...*message.Message) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, messages...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestNewChannelRelayRequiresTopic(t *testing.T) {
	if _, err := NewChannelRelay(nil, ""); !errors.Is(err, enginerrors.ErrTopicRequired) {
		t.Fatalf("expected topic required error, got %v", err)
	}
}

func TestNewRelayValidations(t *testing.T) {
	if _, err := NewRelay(nil, nil, "sigtap.events"); !errors.Is(err, enginerrors.ErrPublisherRequired) {
		t.Fatalf("expected publisher required error, got %v", err)
	}
	if _, err := NewRelay(nil, &recordingPublisher{}, ""); !errors.Is(err, enginerrors.ErrTopicRequired) {
		t.Fatalf("expected topic required error, got %v", err)
	}
}

func TestForwardPublishesRecord(t *testing.T) {
	recorder := &recordingPublisher{}
	relay, err := NewRelay(nil, recorder, "sigtap.events")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.WithValue(context.Background(), relayTestContextKey{}, "ctx")
	rec := EventRecord{
		ID:     "rec-1",
		Kind:   "actor.moved",
		Path:   PathTyped,
		SeenAt: time.Now().UTC(),
	}
	if err := relay.Forward(ctx, rec); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	if len(recorder.topics) != 1 || recorder.topics[0] != "sigtap.events" {
		t.Fatalf("expected topic to be recorded, got %#v", recorder.topics)
	}
	msg := recorder.messages[0]
	if msg.UUID != "rec-1" {
		t.Fatalf("expected the record ID to become the message UUID, got %q", msg.UUID)
	}
	if msg.Metadata.Get(MetadataKeyKind) != "actor.moved" {
		t.Fatalf("expected kind metadata, got %#v", msg.Metadata)
	}
	if msg.Metadata.Get(MetadataKeyPath) != PathTyped {
		t.Fatalf("expected path metadata, got %#v", msg.Metadata)
	}
	if msg.Context().Value(relayTestContextKey{}) != "ctx" {
		t.Fatal("expected context to be attached to message")
	}

	var decoded EventRecord
	if err := jsoncodec.Unmarshal(msg.Payload, &decoded); err != nil {
		t.Fatalf("unexpected error decoding payload: %v", err)
	}
	if decoded.Kind != rec.Kind || decoded.ID != rec.ID {
		t.Fatalf("payload round trip mismatch: %+v", decoded)
	}
}

func TestForwardAssignsIDWhenMissing(t *testing.T) {
	recorder := &recordingPublisher{}
	relay, err := NewRelay(nil, recorder, "sigtap.events")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := relay.Forward(context.Background(), EventRecord{Kind: "door.opened"}); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}
	if recorder.messages[0].UUID == "" {
		t.Fatal("expected a generated message UUID")
	}
}

func TestStreamRequiresSubscriber(t *testing.T) {
	relay, err := NewRelay(nil, &recordingPublisher{}, "sigtap.events")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := relay.Stream(context.Background()); !errors.Is(err, enginerrors.ErrSubscriberRequired) {
		t.Fatalf("expected subscriber required error, got %v", err)
	}
}

func TestChannelRelayRoundTrip(t *testing.T) {
	relay, err := NewChannelRelay(nil, "sigtap.events")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := relay.Stream(ctx)
	if err != nil {
		t.Fatalf("unexpected subscribe error: %v", err)
	}

	received := make(chan *message.Message, 1)
	go func() {
		msg, ok := <-msgs
		if !ok {
			return
		}
		msg.Ack()
		received <- msg
	}()

	rec := EventRecord{ID: "rec-2", Kind: "score.changed", Path: PathFallback}
	if err := relay.Forward(ctx, rec); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Metadata.Get(MetadataKeyKind) != "score.changed" {
			t.Fatalf("unexpected metadata: %#v", msg.Metadata)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for relayed record")
	}

	if err := relay.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := relay.Close(); err != nil {
		t.Fatalf("expected closing twice to be a no-op, got %v", err)
	}
}
