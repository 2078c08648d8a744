package notifier

import "context"

// Notifier delivers human-readable event messages. Delivery is
// fire-and-forget: failures are logged by callers and never affect trading
// decisions.
type Notifier interface {
	Send(text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// NoopNotifier is used when no notification sink is configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Send(_ string) error { return nil }

func (n *NoopNotifier) SendWithRetry(_ context.Context, _ string, _ int) error { return nil }
