package commands

import (
	"context"
	"time"
)

// EscalateOrderConversationsCommandHandler hands every open assistant-led
// conversation about the order to a human. Used when a delivery fails.
type EscalateOrderConversationsCommandHandler struct {
	uowFactory ConversationUoWFactory
}

func NewEscalateOrderConversationsCommandHandler(
	uowFactory ConversationUoWFactory,
) EscalateOrderConversationsCommandHandler {
	return EscalateOrderConversationsCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle returns how many conversations were handed off.
func (h EscalateOrderConversationsCommandHandler) Handle(
	ctx context.Context, cmd EscalateOrderConversationsCommand,
) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	var escalated int
	err := retryOnConflict(ctx, func() error {
		escalated = 0

		uow := h.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		repo := uow.ConversationRepository()

		conversations, err := repo.ListOpenByOrder(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, c := range conversations {
			changed, err := c.RequestHandoff(cmd.Reason(), now)
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			if err = repo.Update(ctx, c); err != nil {
				return err
			}
			escalated++
		}

		return uow.Commit(ctx)
	})
	return escalated, err
}
