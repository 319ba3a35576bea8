package commands

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrReceiveMessageCommandIsNotConstructed = errors.New(
	"ReceiveMessageCommand must be created via NewReceiveMessageCommand constructor",
)

type ReceiveMessageCommand struct {
	conversationID kernel.UUID
	userID         *string
	orderID        *kernel.UUID
	at             time.Time
	guard          guard.ConstructorGuard
}

// NewReceiveMessageCommand records an inbound customer message. userID and
// orderID are optional and only fill blanks on the conversation.
func NewReceiveMessageCommand(
	conversationID kernel.UUID, userID *string, orderID *kernel.UUID, at time.Time,
) (ReceiveMessageCommand, error) {
	errList := []error{conversationID.Validate()}
	if orderID != nil {
		errList = append(errList, orderID.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return ReceiveMessageCommand{}, err
	}

	return ReceiveMessageCommand{
		conversationID: conversationID,
		userID:         userID,
		orderID:        orderID,
		at:             at,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (c ReceiveMessageCommand) Validate() error {
	return c.guard.Validate(ErrReceiveMessageCommandIsNotConstructed)
}

func (c ReceiveMessageCommand) ConversationID() kernel.UUID {
	return c.conversationID
}

func (c ReceiveMessageCommand) UserID() *string {
	return c.userID
}

func (c ReceiveMessageCommand) OrderID() *kernel.UUID {
	return c.orderID
}

func (c ReceiveMessageCommand) At() time.Time {
	return c.at
}
