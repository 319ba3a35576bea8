package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/conversation"
)

type CloseConversationCommandHandler struct {
	uowFactory ConversationUoWFactory
}

func NewCloseConversationCommandHandler(uowFactory ConversationUoWFactory) CloseConversationCommandHandler {
	return CloseConversationCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h CloseConversationCommandHandler) Handle(
	ctx context.Context, cmd CloseConversationCommand,
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

		if c.Close() {
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
