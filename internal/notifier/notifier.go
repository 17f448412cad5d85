package notifier

import (
	"context"
	"log"
)

// Notifier delivers text messages to a chat.
type Notifier interface {
	Send(ctx context.Context, text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// NoopNotifier logs messages instead of sending them, used when Telegram is not configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Send(_ context.Context, text string) error {
	log.Printf("[INFO] notification (telegram disabled):\n%s", text)
	return nil
}

func (n *NoopNotifier) SendWithRetry(ctx context.Context, text string, _ int) error {
	return n.Send(ctx, text)
}
