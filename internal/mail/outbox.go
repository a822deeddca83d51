package mail

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher enqueues a JSON-encodable value. *rabbitmq.Client satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, v any) error
}

// Outbox is a Sender that enqueues messages instead of delivering them. A
// consumer passes each queued body to Deliver, which hands it to the real Sender.
type Outbox struct {
	pub      Publisher
	delivery Sender
}

// NewOutbox creates an Outbox publishing to pub and delivering through delivery.
func NewOutbox(pub Publisher, delivery Sender) *Outbox {
	return &Outbox{pub: pub, delivery: delivery}
}

// Send enqueues msg. A nil error means the broker accepted it, not that it was delivered.
func (o *Outbox) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := o.pub.PublishJSON(ctx, msg); err != nil {
		return fmt.Errorf("enqueue email to %s: %w", msg.To, err)
	}
	return nil
}

// Deliver decodes a queued message and sends it.
func (o *Outbox) Deliver(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode queued email: %w", err)
	}
	return o.delivery.Send(ctx, msg)
}
