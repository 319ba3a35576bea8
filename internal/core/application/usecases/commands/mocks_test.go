package commands_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if load, ok := args.Get(0).(func() *order.Order); ok {
		return load(), args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListPaidUnassigned(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockTaskRepository struct{ mock.Mock }

func (m *MockTaskRepository) Add(ctx context.Context, t *task.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) GetActiveByOrder(ctx context.Context, orderID kernel.UUID) (*task.Task, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListActiveByDriver(ctx context.Context, driverID kernel.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

type MockDriverRepository struct{ mock.Mock }

func (m *MockDriverRepository) Add(ctx context.Context, d *driver.Driver) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDriverRepository) Update(ctx context.Context, d *driver.Driver) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) ListAvailable(ctx context.Context, loadCap int) ([]*driver.Driver, error) {
	args := m.Called(ctx, loadCap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Driver), args.Error(1)
}

type MockPaymentLedger struct{ mock.Mock }

func (m *MockPaymentLedger) Admit(ctx context.Context, e *payment.Event) (payment.AdmitResult, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(payment.AdmitResult), args.Error(1)
}

func (m *MockPaymentLedger) Update(ctx context.Context, e *payment.Event) error {
	return m.Called(ctx, e).Error(0)
}

type MockConversationRepository struct{ mock.Mock }

func (m *MockConversationRepository) Add(ctx context.Context, c *conversation.Conversation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockConversationRepository) Update(ctx context.Context, c *conversation.Conversation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockConversationRepository) Get(ctx context.Context, id kernel.UUID) (*conversation.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conversation.Conversation), args.Error(1)
}

func (m *MockConversationRepository) ListOpenByOrder(
	ctx context.Context, orderID kernel.UUID,
) ([]*conversation.Conversation, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*conversation.Conversation), args.Error(1)
}

type MockNotificationRepository struct{ mock.Mock }

func (m *MockNotificationRepository) Add(ctx context.Context, j *notification.Job) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockNotificationRepository) Update(ctx context.Context, j *notification.Job) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockNotificationRepository) Get(ctx context.Context, id kernel.UUID) (*notification.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Job), args.Error(1)
}

func (m *MockNotificationRepository) ClaimDue(
	ctx context.Context, now time.Time, limit int,
) ([]*notification.Job, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Job), args.Error(1)
}

type MockTransport struct{ mock.Mock }

func (m *MockTransport) Send(ctx context.Context, destination, message string) error {
	return m.Called(ctx, destination, message).Error(0)
}

// MockUoW satisfies every narrowed unit of work used by the handlers.
type MockUoW struct {
	mock.Mock

	orders        ports.OrderRepository
	tasks         ports.TaskRepository
	drivers       ports.DriverRepository
	ledger        ports.PaymentLedger
	conversations ports.ConversationRepository
	notifications ports.NotificationRepository
}

func (m *MockUoW) Begin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	return m.orders
}

func (m *MockUoW) TaskRepository() ports.TaskRepository {
	return m.tasks
}

func (m *MockUoW) DriverRepository() ports.DriverRepository {
	return m.drivers
}

func (m *MockUoW) PaymentLedger() ports.PaymentLedger {
	return m.ledger
}

func (m *MockUoW) ConversationRepository() ports.ConversationRepository {
	return m.conversations
}

func (m *MockUoW) NotificationRepository() ports.NotificationRepository {
	return m.notifications
}

// MockUoWFactory hands out the same MockUoW to every Create call.
type MockUoWFactory[T any] struct {
	mock.Mock
	uow T
}

func (f *MockUoWFactory[T]) Create() T {
	f.Called()
	return f.uow
}

type fixture struct {
	ctx           context.Context
	orders        *MockOrderRepository
	tasks         *MockTaskRepository
	drivers       *MockDriverRepository
	ledger        *MockPaymentLedger
	conversations *MockConversationRepository
	notifications *MockNotificationRepository
	uow           *MockUoW
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:           t.Context(),
		orders:        new(MockOrderRepository),
		tasks:         new(MockTaskRepository),
		drivers:       new(MockDriverRepository),
		ledger:        new(MockPaymentLedger),
		conversations: new(MockConversationRepository),
		notifications: new(MockNotificationRepository),
	}
	f.uow = &MockUoW{
		orders:        f.orders,
		tasks:         f.tasks,
		drivers:       f.drivers,
		ledger:        f.ledger,
		conversations: f.conversations,
		notifications: f.notifications,
	}
	f.uow.On("Begin", mock.Anything).Return(nil).Maybe()
	f.uow.On("Rollback", mock.Anything).Return(nil).Maybe()

	t.Cleanup(func() {
		f.orders.AssertExpectations(t)
		f.tasks.AssertExpectations(t)
		f.drivers.AssertExpectations(t)
		f.ledger.AssertExpectations(t)
		f.conversations.AssertExpectations(t)
		f.notifications.AssertExpectations(t)
		f.uow.AssertExpectations(t)
	})
	return f
}

func newFactory[T any](uow T) *MockUoWFactory[T] {
	factory := &MockUoWFactory[T]{uow: uow}
	factory.On("Create").Return()
	return factory
}

func (f *fixture) orderFactory() *MockUoWFactory[commands.OrderUoW] {
	return newFactory[commands.OrderUoW](f.uow)
}

func (f *fixture) driverFactory() *MockUoWFactory[commands.DriverUoW] {
	return newFactory[commands.DriverUoW](f.uow)
}

func (f *fixture) paymentFactory() *MockUoWFactory[commands.PaymentUoW] {
	return newFactory[commands.PaymentUoW](f.uow)
}

func (f *fixture) dispatchFactory() *MockUoWFactory[commands.DispatchUoW] {
	return newFactory[commands.DispatchUoW](f.uow)
}

func (f *fixture) conversationFactory() *MockUoWFactory[commands.ConversationUoW] {
	return newFactory[commands.ConversationUoW](f.uow)
}

func (f *fixture) notificationFactory() *MockUoWFactory[commands.NotificationUoW] {
	return newFactory[commands.NotificationUoW](f.uow)
}

func (f *fixture) expectCommit() {
	f.uow.On("Commit", mock.Anything).Return(nil).Once()
}

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()
	item, err := order.NewLineItem("sku-1", 2, 500)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), "customer-1", "+15550001111", []order.LineItem{item}, time.Now().UTC())
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func newPaidOrder(t *testing.T) *order.Order {
	t.Helper()
	o := newTestOrder(t)
	applied, err := o.ConfirmPayment("ref-paid", o.Total(), time.Now().UTC())
	require.NoError(t, err)
	require.True(t, applied)
	o.ClearDomainEvents()
	return o
}

func newTestDriver(t *testing.T, name string) *driver.Driver {
	t.Helper()
	d, err := driver.NewDriver(kernel.NewUUID(), name, "+15550002222")
	require.NoError(t, err)
	return d
}

// newAssignedOrder returns a paid order assigned to a fresh driver together
// with its active task.
func newAssignedOrder(t *testing.T) (*order.Order, *task.Task, *driver.Driver) {
	t.Helper()
	o := newPaidOrder(t)
	d := newTestDriver(t, "Ana")
	now := time.Now().UTC()

	tk, err := task.NewTask(kernel.NewUUID(), o.ID(), d.ID(), now)
	require.NoError(t, err)
	require.NoError(t, o.Assign(d.ID(), now))
	require.NoError(t, d.TakeTask(3))
	o.ClearDomainEvents()
	tk.ClearDomainEvents()
	return o, tk, d
}
