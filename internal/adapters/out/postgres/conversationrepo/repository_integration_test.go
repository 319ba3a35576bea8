package conversationrepo_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/conversationrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

type ConversationRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	repository *conversationrepo.GormConversationRepository
}

func (suite *ConversationRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *ConversationRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate())

	tracker := new(MockAggregateTracker)
	tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = conversationrepo.NewGormConversationRepository(suite.pg.DB, tracker)
}

func (suite *ConversationRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *ConversationRepositoryIntegrationTestSuite) addConversation(orderID *kernel.UUID) *conversation.Conversation {
	user := "user-1"
	c, err := conversation.NewConversation(kernel.NewUUID(), &user, orderID)
	suite.Require().NoError(err)
	c.ReceiveMessage(time.Now().UTC())
	suite.Require().NoError(suite.repository.Add(context.Background(), c))
	return c
}

func (suite *ConversationRepositoryIntegrationTestSuite) TestAddAndGet() {
	c := suite.addConversation(nil)

	got, err := suite.repository.Get(context.Background(), c.ID())
	suite.Require().NoError(err)
	suite.Equal(conversation.AIActive, got.Status())
	suite.Equal(1, got.UnreadCount())
	suite.Require().NotNil(got.UserID())
	suite.Equal("user-1", *got.UserID())
	suite.Nil(got.OrderID())
	suite.NotNil(got.LastMessageAt())
}

func (suite *ConversationRepositoryIntegrationTestSuite) TestAdd_SameIDTwice_ReturnsConflict() {
	c := suite.addConversation(nil)

	again, err := conversation.Restore(c.Snapshot())
	suite.Require().NoError(err)
	suite.Require().ErrorIs(suite.repository.Add(context.Background(), again), errs.ErrConcurrentConflict)
}

func (suite *ConversationRepositoryIntegrationTestSuite) TestListOpenByOrder_SkipsClosedAndOtherOrders() {
	ctx := context.Background()
	orderID := kernel.NewUUID()
	otherOrder := kernel.NewUUID()

	open := suite.addConversation(&orderID)
	closed := suite.addConversation(&orderID)
	suite.addConversation(&otherOrder)
	suite.addConversation(nil)

	closed.Close()
	suite.Require().NoError(suite.repository.Update(ctx, closed))

	got, err := suite.repository.ListOpenByOrder(ctx, orderID)
	suite.Require().NoError(err)
	suite.Require().Len(got, 1)
	suite.Equal(open.ID(), got[0].ID())
}

func TestConversationRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ConversationRepositoryIntegrationTestSuite))
}
