package providers

import (
	"context"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to consultation changes
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ConsultationChange) error

	// Subscribe subscribes to events on a channel. The returned channel is
	// closed when ctx is cancelled or the bus shuts down.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ConsultationChange, error)

	// Unsubscribe drops every subscriber of a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelConsultationPrefix is the prefix for per-consultation channels
const EventChannelConsultationPrefix = "consultation:"

// GetConsultationChannel returns the channel name for a specific consultation
func GetConsultationChannel(consultationID string) string {
	return EventChannelConsultationPrefix + consultationID
}
