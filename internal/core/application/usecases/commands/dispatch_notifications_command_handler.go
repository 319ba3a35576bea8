package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/ports"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultNotificationMaxAttempts = 5
	DefaultNotificationSendTimeout = 10 * time.Second

	notificationInitialDelay = 2 * time.Second
	notificationMaxDelay     = 5 * time.Minute
)

// DispatchStats counts the outcome of one dispatch round.
type DispatchStats struct {
	Sent    int
	Retried int
	Failed  int
}

func (s *DispatchStats) count(status notification.Status) {
	switch status {
	case notification.Sent:
		s.Sent++
	case notification.Failed:
		s.Failed++
	default:
		s.Retried++
	}
}

func (s DispatchStats) Total() int {
	return s.Sent + s.Retried + s.Failed
}

// DispatchNotificationsCommandHandler drains due notification jobs. Every job
// is claimed, sent and recorded in its own transaction, so a slow or failing
// destination never holds locks on the rest of the queue.
type DispatchNotificationsCommandHandler struct {
	uowFactory  NotificationUoWFactory
	transport   ports.MessagingTransport
	maxAttempts int
	sendTimeout time.Duration
}

func NewDispatchNotificationsCommandHandler(
	uowFactory NotificationUoWFactory,
	transport ports.MessagingTransport,
	maxAttempts int,
	sendTimeout time.Duration,
) DispatchNotificationsCommandHandler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultNotificationMaxAttempts
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultNotificationSendTimeout
	}
	return DispatchNotificationsCommandHandler{
		uowFactory:  uowFactory,
		transport:   transport,
		maxAttempts: maxAttempts,
		sendTimeout: sendTimeout,
	}
}

func (h DispatchNotificationsCommandHandler) Handle(
	ctx context.Context, cmd DispatchNotificationsCommand,
) (DispatchStats, error) {
	if err := cmd.Validate(); err != nil {
		return DispatchStats{}, err
	}

	var stats DispatchStats
	for range cmd.BatchSize() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		claimed, err := h.dispatchOne(ctx, cmd.Now(), &stats)
		if err != nil {
			return stats, err
		}
		if !claimed {
			break
		}
	}
	return stats, nil
}

func (h DispatchNotificationsCommandHandler) dispatchOne(
	ctx context.Context, now time.Time, stats *DispatchStats,
) (bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.NotificationRepository()

	jobs, err := repo.ClaimDue(ctx, now, 1)
	if err != nil {
		return false, err
	}
	if len(jobs) == 0 {
		return false, nil
	}
	job := jobs[0]

	sendErr := h.send(ctx, job.Target(), job.Message)
	switch {
	case sendErr == nil:
		if err = job.MarkSent(time.Now().UTC()); err != nil {
			return false, err
		}
	case errors.Is(sendErr, context.Canceled) && ctx.Err() != nil:
		return false, ctx.Err()
	default:
		retryAt := time.Now().UTC().Add(RetryDelay(job.Attempts() + 1))
		if err = job.RecordFailure(sendErr, h.maxAttempts, retryAt); err != nil {
			return false, err
		}
	}

	err = repo.Update(ctx, job)
	if err == nil {
		err = uow.Commit(ctx)
	}
	if err != nil {
		// The claim lock must be released before the job is settled again.
		_ = uow.Rollback(ctx)
		status, settleErr := h.settle(ctx, job.ID(), sendErr, err)
		if settleErr != nil {
			return false, errors.Join(err, settleErr)
		}
		stats.count(status)
		return true, nil
	}

	stats.count(job.Status())
	return true, nil
}

// settle stores the outcome of an attempt whose first write failed, in a
// fresh transaction. A delivered message is marked sent; anything else is
// abandoned so the same row is not claimed and resent on every round.
func (h DispatchNotificationsCommandHandler) settle(
	ctx context.Context, id kernel.UUID, sendErr, writeErr error,
) (notification.Status, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return notification.Unknown, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.NotificationRepository()
	job, err := repo.Get(ctx, id)
	if err != nil {
		return notification.Unknown, err
	}

	if sendErr == nil {
		err = job.MarkSent(time.Now().UTC())
	} else {
		err = job.Abandon(fmt.Errorf("record attempt: %w", writeErr))
	}
	if err != nil {
		return notification.Unknown, err
	}

	if err = repo.Update(ctx, job); err != nil {
		return notification.Unknown, err
	}
	if err = uow.Commit(ctx); err != nil {
		return notification.Unknown, err
	}
	return job.Status(), nil
}

func (h DispatchNotificationsCommandHandler) send(
	ctx context.Context, destination string, render func() (string, error),
) error {
	message, err := render()
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
	defer cancel()

	return h.transport.Send(sendCtx, destination, message)
}

// RetryDelay is the wait before the given attempt number: 2s doubling per
// attempt, capped at five minutes.
func RetryDelay(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = notificationInitialDelay
	b.Multiplier = 2
	b.MaxInterval = notificationMaxDelay
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}
