package commands

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/conversation"
)

type RequestHandoffCommandHandler struct {
	uowFactory ConversationUoWFactory
}

func NewRequestHandoffCommandHandler(uowFactory ConversationUoWFactory) RequestHandoffCommandHandler {
	return RequestHandoffCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle is idempotent: a conversation already with a human is returned
// without a write.
func (h RequestHandoffCommandHandler) Handle(
	ctx context.Context, cmd RequestHandoffCommand,
) (*conversation.Conversation, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *conversation.Conversation
	err := retryOnConflict(ctx, func() error {
		uow := h.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		repo := uow.ConversationRepository()

		c, err := repo.Get(ctx, cmd.ConversationID())
		if err != nil {
			return err
		}

		changed, err := c.RequestHandoff(cmd.Reason(), time.Now().UTC())
		if err != nil {
			return err
		}
		if changed {
			if err = repo.Update(ctx, c); err != nil {
				return err
			}
			if err = uow.Commit(ctx); err != nil {
				return err
			}
		}

		result = c
		return nil
	})
	return result, err
}
