package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrCreateDriverCommandIsNotConstructed = errors.New(
	"CreateDriverCommand must be created via NewCreateDriverCommand constructor",
)

type CreateDriverCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID
	name     string
	contact  string

	guard guard.ConstructorGuard
}

func NewCreateDriverCommand(driverID kernel.UUID, name, contact string) (CreateDriverCommand, error) {
	cmd := CreateDriverCommand{guard: guard.NewConstructorGuard()}

	var errList []error
	errList = append(errList, driverID.Validate())
	if name == "" {
		errList = append(errList, errs.NewValueIsRequiredError("name"))
	}
	if contact == "" {
		errList = append(errList, errs.NewValueIsRequiredError("contact"))
	}
	if err := errors.Join(errList...); err != nil {
		return CreateDriverCommand{}, err
	}

	cmd.driverID = driverID
	cmd.name = name
	cmd.contact = contact
	return cmd, nil
}

func (c CreateDriverCommand) Validate() error {
	return c.guard.Validate(ErrCreateDriverCommandIsNotConstructed)
}

func (c CreateDriverCommand) DriverID() kernel.UUID {
	return c.driverID
}

func (c CreateDriverCommand) Name() string {
	return c.name
}

func (c CreateDriverCommand) Contact() string {
	return c.contact
}
