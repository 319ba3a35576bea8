package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrMarkConversationReadCommandIsNotConstructed = errors.New(
	"MarkConversationReadCommand must be created via NewMarkConversationReadCommand constructor",
)

type MarkConversationReadCommand struct {
	conversationID kernel.UUID
	guard          guard.ConstructorGuard
}

func NewMarkConversationReadCommand(conversationID kernel.UUID) (MarkConversationReadCommand, error) {
	if err := conversationID.Validate(); err != nil {
		return MarkConversationReadCommand{}, err
	}
	return MarkConversationReadCommand{conversationID: conversationID, guard: guard.NewConstructorGuard()}, nil
}

func (c MarkConversationReadCommand) Validate() error {
	return c.guard.Validate(ErrMarkConversationReadCommandIsNotConstructed)
}

func (c MarkConversationReadCommand) ConversationID() kernel.UUID {
	return c.conversationID
}
