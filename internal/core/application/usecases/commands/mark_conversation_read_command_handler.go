package commands

import (
	"context"
)

type MarkConversationReadCommandHandler struct {
	uowFactory ConversationUoWFactory
}

func NewMarkConversationReadCommandHandler(uowFactory ConversationUoWFactory) MarkConversationReadCommandHandler {
	return MarkConversationReadCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h MarkConversationReadCommandHandler) Handle(ctx context.Context, cmd MarkConversationReadCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return retryOnConflict(ctx, func() error {
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
		if c.UnreadCount() == 0 {
			return nil
		}

		c.MarkRead()
		if err = repo.Update(ctx, c); err != nil {
			return err
		}

		return uow.Commit(ctx)
	})
}
