package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aitorve/terramotion/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeJobs consumes render jobs from the durable work queue.
// A handler error NAKs the message for redelivery, up to 3 attempts.
func (s *Subscriber) SubscribeJobs(ctx context.Context, handler func(ctx context.Context, job *domain.RenderJob) error) error {
	sub, err := s.js.QueueSubscribe("render.jobs.>", "render-workers", func(msg *nats.Msg) {
		var job domain.RenderJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			_ = msg.Term() // malformed payload, redelivery won't help
			return
		}
		if err := handler(ctx, &job); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("render-worker"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.AckWait(10*time.Minute), // frames can take a while
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
