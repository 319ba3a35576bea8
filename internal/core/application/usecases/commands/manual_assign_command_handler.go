package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"
)

// ManualAssignCommandHandler is the admin override of the selection policy.
type ManualAssignCommandHandler struct {
	uowFactory DispatchUoWFactory
	dispatcher services.OrderDispatcher
}

func NewManualAssignCommandHandler(
	uowFactory DispatchUoWFactory, dispatcher services.OrderDispatcher,
) ManualAssignCommandHandler {
	return ManualAssignCommandHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
	}
}

func (h ManualAssignCommandHandler) Handle(ctx context.Context, cmd ManualAssignCommand) (*task.Task, error) {
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

func (h ManualAssignCommandHandler) handle(ctx context.Context, cmd ManualAssignCommand) (*task.Task, error) {
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

	d, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return nil, err
	}

	t, err := h.dispatcher.DispatchTo(o, d, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err = driverRepo.Update(ctx, d); err != nil {
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
