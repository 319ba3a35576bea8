package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrRetryNotificationCommandIsNotConstructed = errors.New(
	"RetryNotificationCommand must be created via NewRetryNotificationCommand constructor",
)

type RetryNotificationCommand struct {
	jobID kernel.UUID
	guard guard.ConstructorGuard
}

func NewRetryNotificationCommand(jobID kernel.UUID) (RetryNotificationCommand, error) {
	if err := jobID.Validate(); err != nil {
		return RetryNotificationCommand{}, err
	}
	return RetryNotificationCommand{jobID: jobID, guard: guard.NewConstructorGuard()}, nil
}

func (c RetryNotificationCommand) Validate() error {
	return c.guard.Validate(ErrRetryNotificationCommandIsNotConstructed)
}

func (c RetryNotificationCommand) JobID() kernel.UUID {
	return c.jobID
}
