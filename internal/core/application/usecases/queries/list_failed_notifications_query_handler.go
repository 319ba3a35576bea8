package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListFailedNotificationsQueryHandler struct {
	db *gorm.DB
}

func NewListFailedNotificationsQueryHandler(db *gorm.DB) ListFailedNotificationsQueryHandler {
	return ListFailedNotificationsQueryHandler{db: db}
}

// Handle lists FAILED jobs, most recent first.
func (h ListFailedNotificationsQueryHandler) Handle(
	ctx context.Context,
	query ListFailedNotificationsQuery,
) ([]FailedNotification, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	jobs := make([]FailedNotification, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_id,
			target,
			attempts,
			COALESCE(last_error, ''),
			created_at
		FROM notification_jobs
		WHERE status = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`, notification.Failed.String(), query.Limit()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			job     FailedNotification
			id      uuid.UUID
			orderID *uuid.UUID
		)
		if err = rows.Scan(&id, &orderID, &job.Target, &job.Attempts, &job.LastError, &job.CreatedAt); err != nil {
			return nil, err
		}

		if job.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if orderID != nil {
			oID, idErr := kernel.UUIDFromBytes(orderID[:])
			if idErr != nil {
				return nil, idErr
			}
			job.OrderID = &oID
		}
		jobs = append(jobs, job)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}
