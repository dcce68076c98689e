package messaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a component with a start/shutdown lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// topicNamer is implemented by consumers that know their topic; the group
// uses it for logging only.
type topicNamer interface {
	Topic() string
}

// ConsumerGroup runs a set of consumers over one shared subscriber and owns
// both their lifecycle and the subscriber's.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewConsumerGroup creates a consumer group over the shared subscriber.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer. Add after Start is not supported.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Start starts every registered consumer. On a partial failure the already
// started consumers are shut down before the error is returned, so Start
// either runs the whole group or none of it.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("start consumer %s: %w", g.describe(i), err)
		}

		g.logger.Debug("consumer started", zap.String("consumer", g.describe(i)))
	}

	g.logger.Info("consumer group started", zap.Int("count", len(g.consumers)))

	return nil
}

// Shutdown stops all consumers and closes the shared subscriber. It is safe
// to call more than once; later calls return the first call's result.
func (g *ConsumerGroup) Shutdown() error {
	g.shutdownOnce.Do(func() {
		for i, consumer := range g.consumers {
			if err := consumer.Shutdown(); err != nil {
				g.logger.Error("consumer shutdown failed",
					zap.String("consumer", g.describe(i)),
					zap.Error(err),
				)

				if g.shutdownErr == nil {
					g.shutdownErr = err
				}
			}
		}

		if err := g.subscriber.Close(); err != nil && g.shutdownErr == nil {
			g.shutdownErr = err
		}
	})

	return g.shutdownErr
}

func (g *ConsumerGroup) describe(i int) string {
	if named, ok := g.consumers[i].(topicNamer); ok {
		return named.Topic()
	}

	return fmt.Sprintf("#%d", i)
}
