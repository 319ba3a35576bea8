package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/pkg/guard"
)

var ErrAdvanceTaskCommandIsNotConstructed = errors.New(
	"AdvanceTaskCommand must be created via NewAdvanceTaskCommand constructor",
)

type AdvanceTaskCommand struct {
	taskID   kernel.UUID
	status   task.Status
	driverID *kernel.UUID
	reason   string
	guard    guard.ConstructorGuard
}

// NewAdvanceTaskCommand builds the command. driverID is the authenticated
// driver, or nil when an operator advances the task.
func NewAdvanceTaskCommand(
	taskID kernel.UUID, status task.Status, driverID *kernel.UUID, reason string,
) (AdvanceTaskCommand, error) {
	errList := []error{taskID.Validate(), status.Validate()}
	if driverID != nil {
		errList = append(errList, driverID.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return AdvanceTaskCommand{}, err
	}

	return AdvanceTaskCommand{
		taskID:   taskID,
		status:   status,
		driverID: driverID,
		reason:   reason,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c AdvanceTaskCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceTaskCommandIsNotConstructed)
}

func (c AdvanceTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

func (c AdvanceTaskCommand) Status() task.Status {
	return c.status
}

func (c AdvanceTaskCommand) DriverID() *kernel.UUID {
	return c.driverID
}

func (c AdvanceTaskCommand) Reason() string {
	return c.reason
}
