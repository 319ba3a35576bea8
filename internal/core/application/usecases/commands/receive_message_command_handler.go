package commands

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/pkg/errs"
)

// ReceiveMessageCommandHandler creates the conversation on first contact.
// Two first messages racing on the same id surface as a conflict on Add and
// the loser retries as an update.
type ReceiveMessageCommandHandler struct {
	uowFactory ConversationUoWFactory
}

func NewReceiveMessageCommandHandler(uowFactory ConversationUoWFactory) ReceiveMessageCommandHandler {
	return ReceiveMessageCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h ReceiveMessageCommandHandler) Handle(
	ctx context.Context, cmd ReceiveMessageCommand,
) (*conversation.Conversation, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *conversation.Conversation
	err := retryOnConflict(ctx, func() error {
		var err error
		result, err = h.handle(ctx, cmd)
		return err
	})
	return result, err
}

func (h ReceiveMessageCommandHandler) handle(
	ctx context.Context, cmd ReceiveMessageCommand,
) (*conversation.Conversation, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.ConversationRepository()

	c, err := repo.Get(ctx, cmd.ConversationID())
	isNew := errors.Is(err, errs.ErrObjectNotFound)
	if err != nil && !isNew {
		return nil, err
	}
	if isNew {
		c, err = conversation.NewConversation(cmd.ConversationID(), cmd.UserID(), cmd.OrderID())
		if err != nil {
			return nil, err
		}
	}

	c.ReceiveMessage(cmd.At())
	if cmd.OrderID() != nil {
		c.AttachOrder(*cmd.OrderID())
	}

	if isNew {
		err = repo.Add(ctx, c)
	} else {
		err = repo.Update(ctx, c)
	}
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return c, nil
}
