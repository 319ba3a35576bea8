package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	postgres_adapter "fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/notificationrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...kernel.DomainEvent) {
	m.Called(ctx, events)
}

type paymentFactory struct{ f *postgres_adapter.GormUnitOfWorkFactory }

func (p paymentFactory) Create() commands.PaymentUoW { return p.f.Create() }

type dispatchFactory struct{ f *postgres_adapter.GormUnitOfWorkFactory }

func (d dispatchFactory) Create() commands.DispatchUoW { return d.f.Create() }

type conversationFactory struct{ f *postgres_adapter.GormUnitOfWorkFactory }

func (c conversationFactory) Create() commands.ConversationUoW { return c.f.Create() }

type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	pg        *pgtest.Database
	publisher *MockEventPublisher
	factory   *postgres_adapter.GormUnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate())

	suite.publisher = new(MockEventPublisher)
	suite.publisher.On("Publish", mock.Anything, mock.Anything).Maybe()
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(suite.pg.DB, suite.publisher)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *UnitOfWorkIntegrationTestSuite) placeOrder() *order.Order {
	item, err := order.NewLineItem("sku-1", 2, 500)
	suite.Require().NoError(err)
	o, err := order.NewOrder(kernel.NewUUID(), "customer-1", "+15550001111",
		[]order.LineItem{item}, time.Now().UTC())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(context.Background(), o))
	return o
}

func (suite *UnitOfWorkIntegrationTestSuite) jobs() []notificationrepo.JobDTO {
	var dtos []notificationrepo.JobDTO
	suite.Require().NoError(suite.pg.DB.Order("created_at").Find(&dtos).Error)
	return dtos
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().Error(uow.Commit(ctx), "commit without begin")
	suite.Require().Error(uow.Rollback(ctx), "rollback without begin")

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "second begin is a no-op")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Rollback(ctx))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestCommit_WritesOutboxJobAndPublishes() {
	ctx := context.Background()
	o := suite.placeOrder()

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	loaded, err := uow.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	_, err = loaded.ConfirmPayment("R1", loaded.Total(), time.Now().UTC())
	suite.Require().NoError(err)
	suite.Require().NoError(uow.OrderRepository().Update(ctx, loaded))
	suite.Require().NoError(uow.Commit(ctx))

	jobs := suite.jobs()
	suite.Require().Len(jobs, 1)
	suite.Equal("+15550001111", jobs[0].Target)
	suite.Equal("PENDING", jobs[0].Status)
	suite.Require().NotNil(jobs[0].OrderID)
	suite.Equal(o.ID().Bytes(), *jobs[0].OrderID)

	suite.Empty(loaded.DomainEvents())
	suite.publisher.AssertCalled(suite.T(), "Publish", mock.Anything, mock.MatchedBy(func(events []kernel.DomainEvent) bool {
		return len(events) == 1 && events[0].EventName() == order.EventStatusChanged
	}))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestRollback_DiscardsOutboxAndKeepsEvents() {
	ctx := context.Background()
	o := suite.placeOrder()

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	loaded, err := uow.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	_, err = loaded.ConfirmPayment("R1", loaded.Total(), time.Now().UTC())
	suite.Require().NoError(err)
	suite.Require().NoError(uow.OrderRepository().Update(ctx, loaded))
	suite.Require().NoError(uow.Rollback(ctx))

	suite.Empty(suite.jobs())
	suite.Len(loaded.DomainEvents(), 1)
	suite.publisher.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything)

	got, err := suite.factory.Create().OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Placed, got.Status())
}

// The same provider reference delivered concurrently advances the order once
// and queues one notification.
func (suite *UnitOfWorkIntegrationTestSuite) TestProcessPayment_ConcurrentRetries_AppliedOnce() {
	ctx := context.Background()
	o := suite.placeOrder()
	handler := commands.NewProcessPaymentCommandHandler(paymentFactory{suite.factory})

	const racers = 10
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		applied    int
		duplicates int
	)
	start := make(chan struct{})
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd, err := commands.NewProcessPaymentCommand("generic", "R1", o.ID().String(),
				o.Total(), payment.StatusSucceeded, []byte(`{}`))
			suite.NoError(err)
			<-start

			result, err := handler.Handle(ctx, cmd)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, errs.ErrDuplicateEvent):
				duplicates++
			case err == nil && result.Outcome == commands.PaymentApplied:
				applied++
			default:
				suite.Failf("unexpected outcome", "result %+v, error %v", result, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	suite.Equal(1, applied)
	suite.Equal(racers-1, duplicates)
	suite.Len(suite.jobs(), 1)

	got, err := suite.factory.Create().OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Paid, got.Status())
	suite.Equal(2, got.Version())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestAssignDriver_SecondAssignRejected() {
	ctx := context.Background()
	o := suite.placeOrder()
	_, err := o.ConfirmPayment("R1", o.Total(), time.Now().UTC())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.factory.Create().OrderRepository().Update(ctx, o))

	d, err := driver.NewDriver(kernel.NewUUID(), "Ana", "+15550002222")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.factory.Create().DriverRepository().Add(ctx, d))

	handler := commands.NewAssignDriverCommandHandler(dispatchFactory{suite.factory}, services.NewOrderDispatcher(3))
	cmd, err := commands.NewAssignDriverCommand(o.ID())
	suite.Require().NoError(err)

	t, err := handler.Handle(ctx, cmd)
	suite.Require().NoError(err)
	suite.Equal(d.ID(), t.DriverID())

	_, err = handler.Handle(ctx, cmd)
	suite.Require().ErrorIs(err, errs.ErrInvalidTransition)

	uow := suite.factory.Create()
	gotOrder, err := uow.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Assigned, gotOrder.Status())
	gotDriver, err := uow.DriverRepository().Get(ctx, d.ID())
	suite.Require().NoError(err)
	suite.Equal(1, gotDriver.Load())
}

// Concurrent handoff requests all succeed and leave the conversation with a
// human after a single write.
func (suite *UnitOfWorkIntegrationTestSuite) TestRequestHandoff_Concurrent() {
	ctx := context.Background()
	c, err := conversation.NewConversation(kernel.NewUUID(), nil, nil)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.factory.Create().ConversationRepository().Add(ctx, c))

	handler := commands.NewRequestHandoffCommandHandler(conversationFactory{suite.factory})
	cmd, err := commands.NewRequestHandoffCommand(c.ID(), "")
	suite.Require().NoError(err)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got, err := handler.Handle(ctx, cmd)
			suite.NoError(err)
			if err == nil {
				suite.Equal(conversation.HumanActive, got.Status())
			}
		}()
	}
	close(start)
	wg.Wait()

	got, err := suite.factory.Create().ConversationRepository().Get(ctx, c.ID())
	suite.Require().NoError(err)
	suite.Equal(conversation.HumanActive, got.Status())
	suite.Equal(2, got.Version())
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
