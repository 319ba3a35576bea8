package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
)

type NotificationRepository interface {
	Add(ctx context.Context, job *notification.Job) error

	Update(ctx context.Context, job *notification.Job) error

	Get(ctx context.Context, id kernel.UUID) (*notification.Job, error)

	// ClaimDue locks up to limit due PENDING jobs for the current transaction,
	// skipping rows locked by other workers.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*notification.Job, error)
}
