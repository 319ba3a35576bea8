package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderRepository persists orders. Update is a compare-and-set on the version
// the order was loaded with and returns errs.ErrConcurrentConflict when it lost.
type OrderRepository interface {
	Add(ctx context.Context, aggregate *order.Order) error

	Update(ctx context.Context, aggregate *order.Order) error

	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListPaidUnassigned returns PAID orders, oldest payment first.
	ListPaidUnassigned(ctx context.Context, limit int) ([]*order.Order, error)
}
