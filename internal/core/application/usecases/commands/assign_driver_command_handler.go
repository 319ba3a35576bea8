package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"
)

// AssignDriverCommandHandler runs the selection policy for one PAID order.
// Task creation, driver load and the order transition commit together; a
// driver whose load changed concurrently makes the attempt start over.
type AssignDriverCommandHandler struct {
	uowFactory DispatchUoWFactory
	dispatcher services.OrderDispatcher
}

func NewAssignDriverCommandHandler(
	uowFactory DispatchUoWFactory, dispatcher services.OrderDispatcher,
) AssignDriverCommandHandler {
	return AssignDriverCommandHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
	}
}

func (h AssignDriverCommandHandler) Handle(ctx context.Context, cmd AssignDriverCommand) (*task.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var assigned *task.Task
	err := retryOnConflict(ctx, func() error {
		var err error
		assigned, err = h.handle(ctx, cmd)
		return err
	})
	return assigned, err
}

func (h AssignDriverCommandHandler) handle(ctx context.Context, cmd AssignDriverCommand) (*task.Task, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	taskRepo := uow.TaskRepository()
	driverRepo := uow.DriverRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	active, err := taskRepo.GetActiveByOrder(ctx, o.ID())
	if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, err
	}
	if active != nil {
		return nil, errs.NewInvalidTransitionError("order", o.Status().String()+" with an active task", "assign")
	}

	drivers, err := driverRepo.ListAvailable(ctx, h.dispatcher.LoadCap())
	if err != nil {
		return nil, err
	}

	t, chosen, err := h.dispatcher.Dispatch(o, drivers, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err = driverRepo.Update(ctx, chosen); err != nil {
		return nil, err
	}
	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}
	if err = taskRepo.Add(ctx, t); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return t, nil
}
