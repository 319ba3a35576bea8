package commands

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/pkg/errs"
)

type driverAssigner interface {
	Handle(ctx context.Context, cmd AssignDriverCommand) (*task.Task, error)
}

// AssignPendingOrdersCommandHandler retries assignment for PAID orders that
// found no driver earlier.
type AssignPendingOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	assigner   driverAssigner
}

func NewAssignPendingOrdersCommandHandler(
	uowFactory OrderUoWFactory, assigner driverAssigner,
) AssignPendingOrdersCommandHandler {
	return AssignPendingOrdersCommandHandler{
		uowFactory: uowFactory,
		assigner:   assigner,
	}
}

// Handle returns the number of orders assigned. It stops at the first
// NoDriverAvailable since later orders would see the same pool.
func (h AssignPendingOrdersCommandHandler) Handle(ctx context.Context, cmd AssignPendingOrdersCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	orders, err := h.uowFactory.Create().OrderRepository().ListPaidUnassigned(ctx, cmd.BatchSize())
	if err != nil {
		return 0, err
	}

	assigned := 0
	for _, o := range orders {
		assign, err := NewAssignDriverCommand(o.ID())
		if err != nil {
			return assigned, err
		}

		_, err = h.assigner.Handle(ctx, assign)
		switch {
		case err == nil:
			assigned++
		case errors.Is(err, errs.ErrNoDriverAvailable):
			return assigned, nil
		case errors.Is(err, errs.ErrInvalidTransition), errors.Is(err, errs.ErrConcurrentConflict):
			// Another path assigned or cancelled the order meanwhile.
			continue
		default:
			return assigned, err
		}
	}

	return assigned, nil
}
