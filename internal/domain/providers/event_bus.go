package providers

import (
	"context"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// pipeline lifecycle events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.PipelineEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.PipelineEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// Event channels for pipeline notifications
const (
	// EventChannelDocuments carries document lifecycle events
	EventChannelDocuments = "pipeline:documents"

	// EventChannelJobs carries import job completion events
	EventChannelJobs = "pipeline:jobs"

	// EventChannelEpisodes carries episode grouping events
	EventChannelEpisodes = "pipeline:episodes"
)
