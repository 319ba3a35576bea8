package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/task"
)

type TaskRepository interface {
	Add(ctx context.Context, aggregate *task.Task) error

	Update(ctx context.Context, aggregate *task.Task) error

	Get(ctx context.Context, id kernel.UUID) (*task.Task, error)

	// GetActiveByOrder returns errs.ErrObjectNotFound when the order has no active task.
	GetActiveByOrder(ctx context.Context, orderID kernel.UUID) (*task.Task, error)

	ListActiveByDriver(ctx context.Context, driverID kernel.UUID) ([]*task.Task, error)
}
