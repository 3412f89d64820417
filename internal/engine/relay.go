package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	enginerrors "github.com/drblury/sigtap/internal/engine/errors"
	"github.com/drblury/sigtap/internal/engine/ids"
	"github.com/drblury/sigtap/internal/engine/jsoncodec"
	"github.com/drblury/sigtap/internal/engine/logging"
)

// Metadata keys set on relayed messages.
const (
	MetadataKeyKind = "signal_kind"
	MetadataKeyPath = "signal_path"
)

// EventRelay forwards observed signal records to consumers over a Watermill
// publisher, so dashboards and recorders can follow a session live without
// touching the host process.
type EventRelay struct {
	log        logging.ServiceLogger
	topic      string
	publisher  message.Publisher
	subscriber message.Subscriber

	closeOnce sync.Once
	closeErr  error
	closer    func() error
}

// NewChannelRelay builds a relay on an in-process Go channel pub/sub. It is
// the default transport: consumers in the same process call Stream.
func NewChannelRelay(log logging.ServiceLogger, topic string) (*EventRelay, error) {
	if topic == "" {
		return nil, enginerrors.ErrTopicRequired
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	// Buffered so a slow consumer backs up the channel, not the host's
	// dispatch path.
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logging.NewWatermillAdapter(log))
	return &EventRelay{
		log:        log,
		topic:      topic,
		publisher:  pubSub,
		subscriber: pubSub,
		closer:     pubSub.Close,
	}, nil
}

// NewRelay builds a relay on an existing publisher, for hosts that already
// run a Watermill transport. Stream is unavailable unless the publisher also
// subscribes.
func NewRelay(log logging.ServiceLogger, publisher message.Publisher, topic string) (*EventRelay, error) {
	if publisher == nil {
		return nil, enginerrors.ErrPublisherRequired
	}
	if topic == "" {
		return nil, enginerrors.ErrTopicRequired
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	relay := &EventRelay{log: log, topic: topic, publisher: publisher}
	if sub, ok := publisher.(message.Subscriber); ok {
		relay.subscriber = sub
	}
	return relay, nil
}

// Topic returns the topic records are published to.
func (r *EventRelay) Topic() string { return r.topic }

// Forward publishes one event record. The payload is the JSON encoding of
// the record; kind and path travel in the metadata so consumers can filter
// without unmarshalling.
func (r *EventRelay) Forward(ctx context.Context, rec EventRecord) error {
	payload, err := jsoncodec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal event record: %w", err)
	}

	id := rec.ID
	if id == "" {
		id = ids.CreateULID()
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set(MetadataKeyKind, rec.Kind)
	msg.Metadata.Set(MetadataKeyPath, rec.Path)
	if ctx != nil {
		msg.SetContext(ctx)
	}

	return r.publisher.Publish(r.topic, msg)
}

// Stream subscribes to the relay topic. The channel closes when ctx is
// cancelled or the relay is closed.
func (r *EventRelay) Stream(ctx context.Context) (<-chan *message.Message, error) {
	if r.subscriber == nil {
		return nil, enginerrors.ErrSubscriberRequired
	}
	return r.subscriber.Subscribe(ctx, r.topic)
}

// Close shuts the underlying pub/sub down when the relay owns it. Closing
// twice is a no-op.
func (r *EventRelay) Close() error {
	r.closeOnce.Do(func() {
		if r.closer != nil {
			r.closeErr = r.closer()
		}
	})
	return r.closeErr
}
