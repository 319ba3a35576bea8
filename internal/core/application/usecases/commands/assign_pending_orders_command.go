package commands

import (
	"errors"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrAssignPendingOrdersCommandIsNotConstructed = errors.New(
	"AssignPendingOrdersCommand must be created via NewAssignPendingOrdersCommand constructor",
)

type AssignPendingOrdersCommand struct {
	batchSize int
	guard     guard.ConstructorGuard
}

func NewAssignPendingOrdersCommand(batchSize int) (AssignPendingOrdersCommand, error) {
	if batchSize < 1 {
		return AssignPendingOrdersCommand{}, errs.NewValueIsOutOfRangeError("batchSize", batchSize, 1, "unbounded")
	}
	return AssignPendingOrdersCommand{
		batchSize: batchSize,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c AssignPendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrAssignPendingOrdersCommandIsNotConstructed)
}

func (c AssignPendingOrdersCommand) BatchSize() int {
	return c.batchSize
}
