package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrEscalateOrderConversationsCommandIsNotConstructed = errors.New(
	"EscalateOrderConversationsCommand must be created via NewEscalateOrderConversationsCommand constructor",
)

type EscalateOrderConversationsCommand struct {
	orderID kernel.UUID
	reason  string
	guard   guard.ConstructorGuard
}

func NewEscalateOrderConversationsCommand(orderID kernel.UUID, reason string) (EscalateOrderConversationsCommand, error) {
	if err := orderID.Validate(); err != nil {
		return EscalateOrderConversationsCommand{}, err
	}
	return EscalateOrderConversationsCommand{orderID: orderID, reason: reason, guard: guard.NewConstructorGuard()}, nil
}

func (c EscalateOrderConversationsCommand) Validate() error {
	return c.guard.Validate(ErrEscalateOrderConversationsCommandIsNotConstructed)
}

func (c EscalateOrderConversationsCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c EscalateOrderConversationsCommand) Reason() string {
	return c.reason
}
