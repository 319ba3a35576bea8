package commands

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/pkg/errs"
)

// AdvanceTaskCommandHandler moves a task along the delivery chain and applies
// the matching order transition in the same transaction. A task reaching a
// terminal state releases one unit of the driver's load.
type AdvanceTaskCommandHandler struct {
	uowFactory DispatchUoWFactory
}

func NewAdvanceTaskCommandHandler(uowFactory DispatchUoWFactory) AdvanceTaskCommandHandler {
	return AdvanceTaskCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h AdvanceTaskCommandHandler) Handle(ctx context.Context, cmd AdvanceTaskCommand) (*task.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var advanced *task.Task
	err := retryOnConflict(ctx, func() error {
		var err error
		advanced, err = h.handle(ctx, cmd)
		return err
	})
	return advanced, err
}

func (h AdvanceTaskCommandHandler) handle(ctx context.Context, cmd AdvanceTaskCommand) (*task.Task, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	taskRepo := uow.TaskRepository()
	orderRepo := uow.OrderRepository()
	driverRepo := uow.DriverRepository()

	t, err := taskRepo.Get(ctx, cmd.TaskID())
	if err != nil {
		return nil, err
	}
	if cmd.DriverID() != nil && !t.BelongsTo(*cmd.DriverID()) {
		return nil, errs.NewForbiddenError("task is assigned to another driver")
	}

	o, err := orderRepo.Get(ctx, t.OrderID())
	if err != nil {
		return nil, err
	}
	if o.Status() == order.Cancelled || o.Status() == order.Refunded {
		return nil, errs.NewInvalidTransitionError("task", t.Status().String()+" of "+o.Status().String()+" order",
			"advance to "+cmd.Status().String())
	}

	now := time.Now().UTC()
	if cmd.Status() == task.Failed {
		err = t.Fail(cmd.Reason(), now)
	} else {
		err = t.Advance(cmd.Status(), now)
	}
	if err != nil {
		return nil, err
	}

	orderChanged := true
	switch t.Status() {
	case task.PickedUp:
		err = o.ConfirmPickup(now)
	case task.InTransit:
		err = o.StartTransit(now)
	case task.Delivered:
		err = o.ConfirmDelivery(now)
	default:
		orderChanged = false
	}
	if err != nil {
		return nil, err
	}

	if t.Status().IsTerminal() {
		d, err := driverRepo.Get(ctx, t.DriverID())
		if err != nil {
			return nil, err
		}
		d.ReleaseTask()
		if err = driverRepo.Update(ctx, d); err != nil {
			return nil, err
		}
	}

	if err = taskRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	if orderChanged {
		if err = orderRepo.Update(ctx, o); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return t, nil
}
