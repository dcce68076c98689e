package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// handleTimeout bounds a single handler invocation so one stuck message
// cannot stall the consume loop indefinitely.
const handleTimeout = 30 * time.Second

// Handler processes a single event. Handlers are synchronous and easy to
// test.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer subscribes to a topic and feeds decoded events to a typed
// handler. Acknowledgement follows the handler result: success acks,
// failure nacks for redelivery. Undecodable payloads are acked and dropped.
type Consumer[T any] struct {
	sub      message.Subscriber
	topic    string
	handler  Handler[T]
	logger   *zap.Logger
	stop     context.CancelFunc
	loopDone chan struct{}
}

// NewConsumer creates a consumer for one topic and event type.
func NewConsumer[T any](
	sub message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		sub:      sub,
		topic:    topic,
		handler:  handler,
		logger:   logger,
		loopDone: make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and launches the consume loop. The loop runs until the
// given context is cancelled, Shutdown is called, or the subscriber closes
// the message channel.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.stop = context.WithCancel(ctx)

	msgs, err := c.sub.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	go func() {
		defer close(c.loopDone)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, open := <-msgs:
				if !open {
					return
				}
				c.dispatch(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *Consumer[T]) dispatch(ctx context.Context, msg *message.Message) {
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// A payload that cannot decode will never decode. Ack it so it does
		// not loop through redelivery forever.
		c.logger.Error("dropping malformed event",
			zap.String("topic", c.topic),
			zap.String("messageId", msg.UUID),
			zap.Error(err),
		)
		msg.Ack()

		return
	}

	hctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := c.handler(hctx, &event); err != nil {
		c.logger.Error("failed to handle event",
			zap.String("topic", c.topic),
			zap.String("messageId", msg.UUID),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	msg.Ack()
	c.logger.Debug("processed event", zap.String("topic", c.topic))
}

// Shutdown stops the consumer and waits for the consume loop to drain.
// Calling it on a consumer that never started is a no-op.
func (c *Consumer[T]) Shutdown() error {
	if c.stop == nil {
		return nil
	}

	c.stop()
	<-c.loopDone

	return nil
}
