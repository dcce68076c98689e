package messaging

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publish sends one typed event to a fixed topic.
type Publish[T any] func(event *T) error

// NewPublishFunc binds an event type to a topic on the given publisher.
// Each message carries the topic and publish time as metadata so consumers
// can measure delivery lag.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set("topic", topic)
		msg.Metadata.Set("publishedAt", time.Now().UTC().Format(time.RFC3339Nano))

		return publisher.Publish(topic, msg)
	}
}

// PublisherGroup owns the underlying publisher's lifecycle so typed publish
// functions can be handed out without each holding a Close responsibility.
type PublisherGroup struct {
	pub message.Publisher
}

// NewPublisherGroup wraps a publisher for lifecycle management.
func NewPublisherGroup(pub message.Publisher) *PublisherGroup {
	return &PublisherGroup{pub: pub}
}

// Publisher returns the wrapped publisher for creating typed publish
// functions.
func (g *PublisherGroup) Publisher() message.Publisher {
	return g.pub
}

// Shutdown closes the underlying publisher.
func (g *PublisherGroup) Shutdown() error {
	return g.pub.Close()
}
