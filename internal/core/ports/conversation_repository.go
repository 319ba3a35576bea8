package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/core/domain/model/kernel"
)

type ConversationRepository interface {
	Add(ctx context.Context, aggregate *conversation.Conversation) error

	Update(ctx context.Context, aggregate *conversation.Conversation) error

	Get(ctx context.Context, id kernel.UUID) (*conversation.Conversation, error)

	// ListOpenByOrder returns conversations linked to the order that are not closed.
	ListOpenByOrder(ctx context.Context, orderID kernel.UUID) ([]*conversation.Conversation, error)
}
