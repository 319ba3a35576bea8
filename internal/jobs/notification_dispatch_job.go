package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const DefaultNotificationBatchSize = 100

type NotificationDispatcher interface {
	Handle(ctx context.Context, cmd commands.DispatchNotificationsCommand) (commands.DispatchStats, error)
}

type NotificationRecorder interface {
	RecordNotifications(sent, retried, failed int)
}

// NotificationDispatchJob drains due notification jobs every second. Wake runs
// a round immediately, e.g. when Postgres reports a new job. Rounds never
// overlap: a tick arriving while a round is in progress is skipped.
type NotificationDispatchJob struct {
	handler   NotificationDispatcher
	recorder  NotificationRecorder
	batchSize int
	cron      *cron.Cron
	logger    *slog.Logger

	running sync.Mutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewNotificationDispatchJob(
	handler NotificationDispatcher,
	recorder NotificationRecorder,
	batchSize int,
	logger *slog.Logger,
) *NotificationDispatchJob {
	if batchSize <= 0 {
		batchSize = DefaultNotificationBatchSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationDispatchJob{
		handler:   handler,
		recorder:  recorder,
		batchSize: batchSize,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "notification_dispatch_job"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (j *NotificationDispatchJob) Start() error {
	if _, err := j.cron.AddFunc("* * * * * *", j.Wake); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Notification dispatch job started (running every second)")
	return nil
}

// Wake starts a dispatch round in the background unless one is running.
func (j *NotificationDispatchJob) Wake() {
	if j.ctx.Err() != nil || !j.running.TryLock() {
		return
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		defer j.running.Unlock()
		j.run(j.ctx)
	}()
}

func (j *NotificationDispatchJob) run(ctx context.Context) {
	cmd, err := commands.NewDispatchNotificationsCommand(j.batchSize, time.Now().UTC())
	if err != nil {
		j.logger.ErrorContext(ctx, "Notification dispatch job misconfigured", "error", err)
		return
	}

	stats, err := j.handler.Handle(ctx, cmd)
	if j.recorder != nil {
		j.recorder.RecordNotifications(stats.Sent, stats.Retried, stats.Failed)
	}
	if err != nil && ctx.Err() == nil {
		j.logger.ErrorContext(ctx, "Notification dispatch job failed", "error", err)
	}
	if stats.Failed > 0 {
		j.logger.WarnContext(ctx, "Notifications moved to manual review", "failed", stats.Failed)
	}
	if stats.Total() > 0 {
		j.logger.DebugContext(ctx, "Notification round finished",
			"sent", stats.Sent, "retried", stats.Retried, "failed", stats.Failed)
	}
}

// Stop cancels the round in progress and waits for it to return.
func (j *NotificationDispatchJob) Stop() {
	<-j.cron.Stop().Done()
	j.cancel()
	j.wg.Wait()
	j.logger.InfoContext(context.Background(), "Notification dispatch job stopped")
}
