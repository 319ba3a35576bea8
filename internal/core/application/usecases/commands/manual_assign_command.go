package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrManualAssignCommandIsNotConstructed = errors.New(
	"ManualAssignCommand must be created via NewManualAssignCommand constructor",
)

type ManualAssignCommand struct {
	orderID  kernel.UUID
	driverID kernel.UUID
	guard    guard.ConstructorGuard
}

func NewManualAssignCommand(orderID, driverID kernel.UUID) (ManualAssignCommand, error) {
	if err := errors.Join(orderID.Validate(), driverID.Validate()); err != nil {
		return ManualAssignCommand{}, err
	}
	return ManualAssignCommand{
		orderID:  orderID,
		driverID: driverID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ManualAssignCommand) Validate() error {
	return c.guard.Validate(ErrManualAssignCommandIsNotConstructed)
}

func (c ManualAssignCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ManualAssignCommand) DriverID() kernel.UUID {
	return c.driverID
}
