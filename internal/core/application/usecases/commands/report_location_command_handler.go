package commands

import (
	"context"
)

// ReportLocationCommandHandler applies a GPS ping to the driver and to each of
// the driver's active tasks. Terminal tasks and stale pings are skipped.
type ReportLocationCommandHandler struct {
	uowFactory DispatchUoWFactory
}

func NewReportLocationCommandHandler(uowFactory DispatchUoWFactory) ReportLocationCommandHandler {
	return ReportLocationCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle returns how many tasks took the ping.
func (h ReportLocationCommandHandler) Handle(ctx context.Context, cmd ReportLocationCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	var updated int
	err := retryOnConflict(ctx, func() error {
		var err error
		updated, err = h.handle(ctx, cmd)
		return err
	})
	return updated, err
}

func (h ReportLocationCommandHandler) handle(ctx context.Context, cmd ReportLocationCommand) (int, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	driverRepo := uow.DriverRepository()
	taskRepo := uow.TaskRepository()

	d, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return 0, err
	}

	applied, err := d.RecordPosition(cmd.Point(), cmd.At())
	if err != nil {
		return 0, err
	}
	if applied {
		if err = driverRepo.Update(ctx, d); err != nil {
			return 0, err
		}
	}

	tasks, err := taskRepo.ListActiveByDriver(ctx, d.ID())
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, t := range tasks {
		ok, err := t.RecordPosition(cmd.Point(), cmd.At())
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		if err = taskRepo.Update(ctx, t); err != nil {
			return 0, err
		}
		updated++
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}

	return updated, nil
}
