package poller

import (
	"context"

	"github.com/Adda-Baaj/gink-client/pkg/publishers"
)

// EventPublisher publishes live update events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which updates were already published.
type Deduper interface {
	SeenUpdate(key string) (bool, error)
	MarkUpdate(key string) error
}
