package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrCloseConversationCommandIsNotConstructed = errors.New(
	"CloseConversationCommand must be created via NewCloseConversationCommand constructor",
)

type CloseConversationCommand struct {
	conversationID kernel.UUID
	guard          guard.ConstructorGuard
}

func NewCloseConversationCommand(conversationID kernel.UUID) (CloseConversationCommand, error) {
	if err := conversationID.Validate(); err != nil {
		return CloseConversationCommand{}, err
	}
	return CloseConversationCommand{conversationID: conversationID, guard: guard.NewConstructorGuard()}, nil
}

func (c CloseConversationCommand) Validate() error {
	return c.guard.Validate(ErrCloseConversationCommandIsNotConstructed)
}

func (c CloseConversationCommand) ConversationID() kernel.UUID {
	return c.conversationID
}
