package interfaces

import "context"

// Event is anything that can be published; the key keeps events for the
// same customer ordered on partitioned transports.
type Event interface {
	Key() string
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
