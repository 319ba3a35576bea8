package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

// RefundOrderCommandHandler refunds a paid order. An active task is failed
// first and the driver's load released, all in one transaction.
type RefundOrderCommandHandler struct {
	uowFactory DispatchUoWFactory
}

func NewRefundOrderCommandHandler(uowFactory DispatchUoWFactory) RefundOrderCommandHandler {
	return RefundOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h RefundOrderCommandHandler) Handle(ctx context.Context, cmd RefundOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var refunded *order.Order
	err := retryOnConflict(ctx, func() error {
		var err error
		refunded, err = h.handle(ctx, cmd)
		return err
	})
	return refunded, err
}

func (h RefundOrderCommandHandler) handle(ctx context.Context, cmd RefundOrderCommand) (*order.Order, error) {
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
	now := time.Now().UTC()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	if !o.Status().Can(order.ActionRefund) {
		return nil, errs.NewInvalidTransitionError("order", o.Status().String(), string(order.ActionRefund))
	}

	active, err := taskRepo.GetActiveByOrder(ctx, o.ID())
	if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, err
	}
	if active != nil {
		if err = active.Fail(cmd.Reason(), now); err != nil {
			return nil, err
		}
		d, err := driverRepo.Get(ctx, active.DriverID())
		if err != nil {
			return nil, err
		}
		d.ReleaseTask()
		if err = driverRepo.Update(ctx, d); err != nil {
			return nil, err
		}
		if err = taskRepo.Update(ctx, active); err != nil {
			return nil, err
		}
	}

	if err = o.Refund(false, now); err != nil {
		return nil, err
	}
	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}
