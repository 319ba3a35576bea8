package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
)

// EventPublisher receives domain events after the transaction that recorded
// them has committed. Publishing never fails the originating operation.
type EventPublisher interface {
	Publish(ctx context.Context, events ...kernel.DomainEvent)
}
