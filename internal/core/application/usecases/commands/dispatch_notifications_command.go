package commands

import (
	"errors"
	"time"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrDispatchNotificationsCommandIsNotConstructed = errors.New(
	"DispatchNotificationsCommand must be created via NewDispatchNotificationsCommand constructor",
)

type DispatchNotificationsCommand struct {
	batchSize int
	now       time.Time
	guard     guard.ConstructorGuard
}

// NewDispatchNotificationsCommand asks for up to batchSize jobs due at now.
func NewDispatchNotificationsCommand(batchSize int, now time.Time) (DispatchNotificationsCommand, error) {
	if batchSize <= 0 {
		return DispatchNotificationsCommand{}, errs.NewValueIsOutOfRangeError("batchSize", batchSize, 1, "unbounded")
	}
	return DispatchNotificationsCommand{
		batchSize: batchSize,
		now:       now,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c DispatchNotificationsCommand) Validate() error {
	return c.guard.Validate(ErrDispatchNotificationsCommandIsNotConstructed)
}

func (c DispatchNotificationsCommand) BatchSize() int {
	return c.batchSize
}

func (c DispatchNotificationsCommand) Now() time.Time {
	return c.now
}
