package commands_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func assignCommand(t *testing.T, orderID kernel.UUID) commands.AssignDriverCommand {
	t.Helper()
	cmd, err := commands.NewAssignDriverCommand(orderID)
	require.NoError(t, err)
	return cmd
}

func TestAssignDriverCommandHandler_Handle_Success(t *testing.T) {
	f := newFixture(t)
	o := newPaidOrder(t)
	busy := newTestDriver(t, "Busy")
	require.NoError(t, busy.TakeTask(3))
	idle := newTestDriver(t, "Idle")

	f.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
	f.tasks.On("GetActiveByOrder", mock.Anything, o.ID()).Return(nil, errs.NewObjectNotFoundError("task", o.ID())).Once()
	f.drivers.On("ListAvailable", mock.Anything, 3).Return([]*driver.Driver{busy, idle}, nil).Once()
	f.drivers.On("Update", mock.Anything, idle).Return(nil).Once()
	f.orders.On("Update", mock.Anything, o).Return(nil).Once()
	f.tasks.On("Add", mock.Anything, mock.AnythingOfType("*task.Task")).Return(nil).Once()
	f.expectCommit()

	handler := commands.NewAssignDriverCommandHandler(f.dispatchFactory(), services.NewOrderDispatcher(3))
	tk, err := handler.Handle(f.ctx, assignCommand(t, o.ID()))

	require.NoError(t, err)
	assert.Equal(t, task.Assigned, tk.Status())
	assert.Equal(t, idle.ID(), tk.DriverID())
	assert.Equal(t, order.Assigned, o.Status())
	assert.Equal(t, 1, idle.Load())
}

func TestAssignDriverCommandHandler_Handle_SecondAssignIsRejected(t *testing.T) {
	f := newFixture(t)
	o, active, _ := newAssignedOrder(t)

	f.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
	f.tasks.On("GetActiveByOrder", mock.Anything, o.ID()).Return(active, nil).Once()

	handler := commands.NewAssignDriverCommandHandler(f.dispatchFactory(), services.NewOrderDispatcher(3))
	_, err := handler.Handle(f.ctx, assignCommand(t, o.ID()))

	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestAssignDriverCommandHandler_Handle_NoDriverAvailable(t *testing.T) {
	f := newFixture(t)
	o := newPaidOrder(t)

	f.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
	f.tasks.On("GetActiveByOrder", mock.Anything, o.ID()).Return(nil, errs.NewObjectNotFoundError("task", o.ID())).Once()
	f.drivers.On("ListAvailable", mock.Anything, 3).Return([]*driver.Driver{}, nil).Once()

	handler := commands.NewAssignDriverCommandHandler(f.dispatchFactory(), services.NewOrderDispatcher(3))
	_, err := handler.Handle(f.ctx, assignCommand(t, o.ID()))

	require.ErrorIs(t, err, errs.ErrNoDriverAvailable)
	assert.Equal(t, order.Paid, o.Status())
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestAssignDriverCommandHandler_Handle_UnpaidOrder(t *testing.T) {
	f := newFixture(t)
	o := newTestOrder(t)

	f.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
	f.tasks.On("GetActiveByOrder", mock.Anything, o.ID()).Return(nil, errs.NewObjectNotFoundError("task", o.ID())).Once()
	f.drivers.On("ListAvailable", mock.Anything, 3).Return([]*driver.Driver{newTestDriver(t, "Ana")}, nil).Once()

	handler := commands.NewAssignDriverCommandHandler(f.dispatchFactory(), services.NewOrderDispatcher(3))
	_, err := handler.Handle(f.ctx, assignCommand(t, o.ID()))

	require.ErrorIs(t, err, errs.ErrInvalidTransition)
}

type stubAssigner struct {
	results map[kernel.UUID]error
	calls   []kernel.UUID
}

func (s *stubAssigner) Handle(_ context.Context, cmd commands.AssignDriverCommand) (*task.Task, error) {
	s.calls = append(s.calls, cmd.OrderID())
	if err := s.results[cmd.OrderID()]; err != nil {
		return nil, err
	}
	return task.NewTask(kernel.NewUUID(), cmd.OrderID(), kernel.NewUUID(), time.Now().UTC())
}

func TestAssignPendingOrdersCommandHandler_Handle(t *testing.T) {
	f := newFixture(t)
	first, taken, second, starved, never := newPaidOrder(t), newPaidOrder(t), newPaidOrder(t), newPaidOrder(t), newPaidOrder(t)

	assigner := &stubAssigner{results: map[kernel.UUID]error{
		taken.ID():   errs.NewInvalidTransitionError("order", "ASSIGNED", "assign"),
		starved.ID(): errs.ErrNoDriverAvailable,
	}}
	f.orders.On("ListPaidUnassigned", mock.Anything, 10).
		Return([]*order.Order{first, taken, second, starved, never}, nil).Once()

	cmd, err := commands.NewAssignPendingOrdersCommand(10)
	require.NoError(t, err)

	handler := commands.NewAssignPendingOrdersCommandHandler(f.orderFactory(), assigner)
	assigned, err := handler.Handle(f.ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, 2, assigned)
	assert.Equal(t, []kernel.UUID{first.ID(), taken.ID(), second.ID(), starved.ID()}, assigner.calls)
}

func TestNewAssignPendingOrdersCommand_InvalidBatch(t *testing.T) {
	_, err := commands.NewAssignPendingOrdersCommand(0)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestManualAssignCommandHandler_Handle_OverridesLoadCap(t *testing.T) {
	f := newFixture(t)
	o := newPaidOrder(t)
	full := newTestDriver(t, "Full")
	for range 3 {
		require.NoError(t, full.TakeTask(3))
	}

	f.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
	f.tasks.On("GetActiveByOrder", mock.Anything, o.ID()).Return(nil, errs.NewObjectNotFoundError("task", o.ID())).Once()
	f.drivers.On("Get", mock.Anything, full.ID()).Return(full, nil).Once()
	f.drivers.On("Update", mock.Anything, full).Return(nil).Once()
	f.orders.On("Update", mock.Anything, o).Return(nil).Once()
	f.tasks.On("Add", mock.Anything, mock.AnythingOfType("*task.Task")).Return(nil).Once()
	f.expectCommit()

	cmd, err := commands.NewManualAssignCommand(o.ID(), full.ID())
	require.NoError(t, err)

	handler := commands.NewManualAssignCommandHandler(f.dispatchFactory(), services.NewOrderDispatcher(3))
	tk, err := handler.Handle(f.ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, full.ID(), tk.DriverID())
	assert.Equal(t, 4, full.Load())
	assert.Equal(t, order.Assigned, o.Status())
}

func TestManualAssignCommandHandler_Handle_InactiveDriver(t *testing.T) {
	f := newFixture(t)
	o := newPaidOrder(t)
	off := newTestDriver(t, "Off")
	off.Deactivate()

	f.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
	f.tasks.On("GetActiveByOrder", mock.Anything, o.ID()).Return(nil, errs.NewObjectNotFoundError("task", o.ID())).Once()
	f.drivers.On("Get", mock.Anything, off.ID()).Return(off, nil).Once()

	cmd, err := commands.NewManualAssignCommand(o.ID(), off.ID())
	require.NoError(t, err)

	handler := commands.NewManualAssignCommandHandler(f.dispatchFactory(), services.NewOrderDispatcher(3))
	_, err = handler.Handle(f.ctx, cmd)

	require.ErrorIs(t, err, errs.ErrNoDriverAvailable)
}
