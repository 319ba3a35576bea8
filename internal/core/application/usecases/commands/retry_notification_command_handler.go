package commands

import (
	"context"
	"time"
)

// RetryNotificationCommandHandler re-queues a FAILED job after manual review.
type RetryNotificationCommandHandler struct {
	uowFactory NotificationUoWFactory
}

func NewRetryNotificationCommandHandler(uowFactory NotificationUoWFactory) RetryNotificationCommandHandler {
	return RetryNotificationCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h RetryNotificationCommandHandler) Handle(ctx context.Context, cmd RetryNotificationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return retryOnConflict(ctx, func() error {
		uow := h.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		repo := uow.NotificationRepository()

		job, err := repo.Get(ctx, cmd.JobID())
		if err != nil {
			return err
		}
		if err = job.Requeue(time.Now().UTC()); err != nil {
			return err
		}
		if err = repo.Update(ctx, job); err != nil {
			return err
		}

		return uow.Commit(ctx)
	})
}
