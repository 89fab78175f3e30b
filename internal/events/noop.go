package events

import "context"

// NoopPublisher is a Publisher that does nothing (used when NATS is not
// configured; peers then see state only through the record store).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, ch Channel, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
