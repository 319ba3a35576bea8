package jobs

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const DefaultAssignmentBatchSize = 50

type PendingOrdersAssigner interface {
	Handle(ctx context.Context, cmd commands.AssignPendingOrdersCommand) (int, error)
}

// OrderAssignmentJob retries dispatch for PAID orders that found no driver
// when they were paid. Runs every five seconds.
type OrderAssignmentJob struct {
	handler   PendingOrdersAssigner
	batchSize int
	cron      *cron.Cron
	logger    *slog.Logger
}

func NewOrderAssignmentJob(handler PendingOrdersAssigner, batchSize int, logger *slog.Logger) *OrderAssignmentJob {
	if batchSize <= 0 {
		batchSize = DefaultAssignmentBatchSize
	}
	return &OrderAssignmentJob{
		handler:   handler,
		batchSize: batchSize,
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger.With("component", "order_assignment_job"),
	}
}

func (j *OrderAssignmentJob) Start() error {
	if _, err := j.cron.AddFunc("*/5 * * * * *", func() { j.run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Order assignment job started (running every 5 seconds)")
	return nil
}

func (j *OrderAssignmentJob) run(ctx context.Context) {
	cmd, err := commands.NewAssignPendingOrdersCommand(j.batchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Order assignment job misconfigured", "error", err)
		return
	}

	assigned, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Order assignment job failed", "error", err, "assigned", assigned)
		return
	}
	if assigned > 0 {
		j.logger.InfoContext(ctx, "Pending orders assigned", "assigned", assigned)
	}
}

func (j *OrderAssignmentJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Order assignment job stopped")
}
