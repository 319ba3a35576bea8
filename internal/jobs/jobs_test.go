package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockPendingOrdersAssigner struct{ mock.Mock }

func (m *MockPendingOrdersAssigner) Handle(ctx context.Context, cmd commands.AssignPendingOrdersCommand) (int, error) {
	args := m.Called(ctx, cmd)
	return args.Int(0), args.Error(1)
}

type MockNotificationRecorder struct{ mock.Mock }

func (m *MockNotificationRecorder) RecordNotifications(sent, retried, failed int) {
	m.Called(sent, retried, failed)
}

type blockingDispatcher struct {
	calls   atomic.Int32
	release chan struct{}
	stats   commands.DispatchStats
}

func (d *blockingDispatcher) Handle(
	ctx context.Context, _ commands.DispatchNotificationsCommand,
) (commands.DispatchStats, error) {
	d.calls.Add(1)
	select {
	case <-d.release:
	case <-ctx.Done():
		return commands.DispatchStats{}, ctx.Err()
	}
	return d.stats, nil
}

type MockUnprocessedPaymentsLister struct{ mock.Mock }

func (m *MockUnprocessedPaymentsLister) Handle(
	ctx context.Context, q queries.ListUnprocessedPaymentsQuery,
) ([]queries.UnprocessedPayment, error) {
	args := m.Called(ctx, q)
	payments, _ := args.Get(0).([]queries.UnprocessedPayment)
	return payments, args.Error(1)
}

func TestOrderAssignmentJob_RunUsesBatchSize(t *testing.T) {
	assigner := new(MockPendingOrdersAssigner)
	assigner.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.AssignPendingOrdersCommand) bool {
		return cmd.BatchSize() == 7
	})).Return(2, nil).Once()
	assigner.On("Handle", mock.Anything, mock.Anything).Return(0, errors.New("db down")).Once()

	job := NewOrderAssignmentJob(assigner, 7, discardLogger())
	job.run(context.Background())
	job.run(context.Background())

	assigner.AssertExpectations(t)
}

func TestNotificationDispatchJob_WakeNeverOverlaps(t *testing.T) {
	dispatcher := &blockingDispatcher{
		release: make(chan struct{}),
		stats:   commands.DispatchStats{Sent: 2, Retried: 1},
	}
	recorder := new(MockNotificationRecorder)
	recorder.On("RecordNotifications", 2, 1, 0).Once()

	job := NewNotificationDispatchJob(dispatcher, recorder, 10, discardLogger())

	job.Wake()
	require.Eventually(t, func() bool { return dispatcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	job.Wake()
	job.Wake()

	close(dispatcher.release)
	job.wg.Wait()

	assert.Equal(t, int32(1), dispatcher.calls.Load())
	recorder.AssertExpectations(t)
}

func TestNotificationDispatchJob_StopCancelsRound(t *testing.T) {
	dispatcher := &blockingDispatcher{release: make(chan struct{})}
	recorder := new(MockNotificationRecorder)
	recorder.On("RecordNotifications", 0, 0, 0).Maybe()

	job := NewNotificationDispatchJob(dispatcher, recorder, 10, discardLogger())
	job.Wake()
	require.Eventually(t, func() bool { return dispatcher.calls.Load() == 1 }, time.Second, time.Millisecond)

	job.Stop()
	job.Wake()

	assert.Equal(t, int32(1), dispatcher.calls.Load())
}

func TestPaymentReconciliationJob_RunQueriesBeforeGrace(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lister := new(MockUnprocessedPaymentsLister)
	lister.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.ListUnprocessedPaymentsQuery) bool {
		return q.ReceivedBefore().Equal(now.Add(-15*time.Minute)) && q.Limit() == reconciliationBatchSize
	})).Return([]queries.UnprocessedPayment{
		{ID: kernel.NewUUID(), Provider: "generic", ProviderRef: "R1", Rejection: "amount mismatch"},
		{ID: kernel.NewUUID(), Provider: "stripe", ProviderRef: "evt_1", Rejection: "unknown order"},
	}, nil).Once()

	job := NewPaymentReconciliationJob(lister, 15*time.Minute, discardLogger())
	job.now = func() time.Time { return now }

	assert.Equal(t, 2, job.run(context.Background()))
	lister.AssertExpectations(t)
}

func TestPaymentReconciliationJob_RunSurvivesErrors(t *testing.T) {
	lister := new(MockUnprocessedPaymentsLister)
	lister.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	job := NewPaymentReconciliationJob(lister, 0, discardLogger())

	assert.Equal(t, 0, job.run(context.Background()))
	assert.Equal(t, DefaultReconciliationGrace, job.grace)
}

func TestJobManager_StartAndStopAll(t *testing.T) {
	assigner := new(MockPendingOrdersAssigner)
	assigner.On("Handle", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	dispatcher := &blockingDispatcher{release: make(chan struct{})}
	close(dispatcher.release)
	lister := new(MockUnprocessedPaymentsLister)
	lister.On("Handle", mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	manager := NewJobManager(
		NewOrderAssignmentJob(assigner, 0, discardLogger()),
		NewNotificationDispatchJob(dispatcher, nil, 0, discardLogger()),
		NewPaymentReconciliationJob(lister, 0, discardLogger()),
	)

	require.NoError(t, manager.StartAll())
	manager.WakeNotifications()
	manager.StopAll()

	assert.GreaterOrEqual(t, dispatcher.calls.Load(), int32(1))
}
