package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrRefundOrderCommandIsNotConstructed = errors.New(
	"RefundOrderCommand must be created via NewRefundOrderCommand constructor",
)

type RefundOrderCommand struct {
	orderID kernel.UUID
	reason  string
	guard   guard.ConstructorGuard
}

func NewRefundOrderCommand(orderID kernel.UUID, reason string) (RefundOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return RefundOrderCommand{}, err
	}
	if reason == "" {
		reason = "order refunded"
	}
	return RefundOrderCommand{orderID: orderID, reason: reason, guard: guard.NewConstructorGuard()}, nil
}

func (c RefundOrderCommand) Validate() error {
	return c.guard.Validate(ErrRefundOrderCommandIsNotConstructed)
}

func (c RefundOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c RefundOrderCommand) Reason() string {
	return c.reason
}
