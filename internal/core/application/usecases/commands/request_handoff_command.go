package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrRequestHandoffCommandIsNotConstructed = errors.New(
	"RequestHandoffCommand must be created via NewRequestHandoffCommand constructor",
)

type RequestHandoffCommand struct {
	conversationID kernel.UUID
	reason         string
	guard          guard.ConstructorGuard
}

func NewRequestHandoffCommand(conversationID kernel.UUID, reason string) (RequestHandoffCommand, error) {
	if err := conversationID.Validate(); err != nil {
		return RequestHandoffCommand{}, err
	}
	if reason == "" {
		reason = "customer requested a human"
	}
	return RequestHandoffCommand{
		conversationID: conversationID,
		reason:         reason,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (c RequestHandoffCommand) Validate() error {
	return c.guard.Validate(ErrRequestHandoffCommandIsNotConstructed)
}

func (c RequestHandoffCommand) ConversationID() kernel.UUID {
	return c.conversationID
}

func (c RequestHandoffCommand) Reason() string {
	return c.reason
}
