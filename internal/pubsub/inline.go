package pubsub

import (
	"context"
	"time"
)

// InlinePublisher runs the handler in its own goroutine instead of going
// through a broker. The request context is not propagated.
type InlinePublisher struct {
	handler func(ctx context.Context, body []byte)
	timeout time.Duration
}

func NewInlinePublisher(handler func(ctx context.Context, body []byte), timeout time.Duration) *InlinePublisher {
	return &InlinePublisher{handler: handler, timeout: timeout}
}

func (p *InlinePublisher) Publish(_ context.Context, body []byte) error {
	data := make([]byte, len(body))
	copy(data, body)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.handler(ctx, data)
	}()
	return nil
}

func (p *InlinePublisher) Close() error {
	return nil
}
