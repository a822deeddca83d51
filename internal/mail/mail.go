// Package mail delivers transactional email: directly over SMTP, to the log in
// development, or through a RabbitMQ outbox drained by a background consumer.
package mail

import (
	"context"
	"errors"
)

// Message is a plain-text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate checks that the envelope is deliverable.
func (m Message) Validate() error {
	if m.To == "" || m.Subject == "" || m.Body == "" {
		return errors.New("to, subject and body cannot be empty")
	}
	return nil
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
