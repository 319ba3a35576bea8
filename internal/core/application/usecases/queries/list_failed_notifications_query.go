package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrListFailedNotificationsQueryIsNotConstructed = errors.New(
	"ListFailedNotificationsQuery must be created via NewListFailedNotificationsQuery constructor",
)

// ListFailedNotificationsQuery is the manual review queue of notifications
// that exhausted their attempts or carried a malformed payload.
type ListFailedNotificationsQuery struct {
	limit int
	guard guard.ConstructorGuard
}

func NewListFailedNotificationsQuery(limit int) (ListFailedNotificationsQuery, error) {
	if limit <= 0 || limit > 500 {
		return ListFailedNotificationsQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, 500)
	}
	return ListFailedNotificationsQuery{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q ListFailedNotificationsQuery) Validate() error {
	return q.guard.Validate(ErrListFailedNotificationsQueryIsNotConstructed)
}

func (q ListFailedNotificationsQuery) Limit() int {
	return q.limit
}

type FailedNotification struct {
	ID        kernel.UUID  `json:"id"`
	OrderID   *kernel.UUID `json:"orderId,omitempty"`
	Target    string       `json:"target"`
	Attempts  int          `json:"attempts"`
	LastError string       `json:"lastError"`
	CreatedAt time.Time    `json:"createdAt"`
}
