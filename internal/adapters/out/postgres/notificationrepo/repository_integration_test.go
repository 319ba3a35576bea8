package notificationrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/notificationrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type NotificationRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	repository *notificationrepo.GormNotificationRepository
}

func (suite *NotificationRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *NotificationRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate())
	suite.repository = notificationrepo.NewGormNotificationRepository(suite.pg.DB)
}

func (suite *NotificationRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *NotificationRepositoryIntegrationTestSuite) addJob(at time.Time) *notification.Job {
	orderID := kernel.NewUUID()
	job, err := notification.NewJob(kernel.NewUUID(), "+15550001111", notification.Payload{
		Kind:    notification.KindOrderStatusChanged,
		OrderID: orderID.String(),
		Status:  "PAID",
	}, &orderID, at)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(context.Background(), job))
	return job
}

func (suite *NotificationRepositoryIntegrationTestSuite) TestAddAndGet() {
	job := suite.addJob(time.Now().UTC())

	got, err := suite.repository.Get(context.Background(), job.ID())
	suite.Require().NoError(err)
	suite.Equal(notification.Pending, got.Status())
	suite.Equal("+15550001111", got.Target())
	suite.Equal(job.OrderID(), got.OrderID())

	msg, err := got.Message()
	suite.Require().NoError(err)
	suite.Contains(msg, "Payment received")
}

func (suite *NotificationRepositoryIntegrationTestSuite) TestClaimDue_OnlyDuePendingJobs() {
	ctx := context.Background()
	now := time.Now().UTC()

	oldest := suite.addJob(now.Add(-2 * time.Minute))
	due := suite.addJob(now.Add(-time.Minute))
	suite.addJob(now.Add(time.Hour))

	sent := suite.addJob(now.Add(-3 * time.Minute))
	suite.Require().NoError(sent.MarkSent(now))
	suite.Require().NoError(suite.repository.Update(ctx, sent))

	jobs, err := suite.repository.ClaimDue(ctx, now, 10)
	suite.Require().NoError(err)
	suite.Require().Len(jobs, 2)
	suite.Equal(oldest.ID(), jobs[0].ID())
	suite.Equal(due.ID(), jobs[1].ID())
}

// A job locked by one worker is invisible to another until released.
func (suite *NotificationRepositoryIntegrationTestSuite) TestClaimDue_SkipsLockedRows() {
	ctx := context.Background()
	now := time.Now().UTC()
	first := suite.addJob(now.Add(-time.Minute))
	second := suite.addJob(now)

	errStop := errors.New("stop")
	err := suite.pg.DB.Transaction(func(tx1 *gorm.DB) error {
		claimed, err := notificationrepo.NewGormNotificationRepository(tx1).ClaimDue(ctx, now, 1)
		suite.Require().NoError(err)
		suite.Require().Len(claimed, 1)
		suite.Equal(first.ID(), claimed[0].ID())

		return suite.pg.DB.Transaction(func(tx2 *gorm.DB) error {
			other, err := notificationrepo.NewGormNotificationRepository(tx2).ClaimDue(ctx, now, 10)
			suite.Require().NoError(err)
			suite.Require().Len(other, 1)
			suite.Equal(second.ID(), other[0].ID())
			return errStop
		})
	})
	suite.Require().ErrorIs(err, errStop)
}

func (suite *NotificationRepositoryIntegrationTestSuite) TestUpdate_PersistsRetrySchedule() {
	ctx := context.Background()
	now := time.Now().UTC()
	job := suite.addJob(now)

	retryAt := now.Add(4 * time.Second)
	suite.Require().NoError(job.RecordFailure(errors.New("gateway timeout"), 5, retryAt))
	suite.Require().NoError(suite.repository.Update(ctx, job))

	got, err := suite.repository.Get(ctx, job.ID())
	suite.Require().NoError(err)
	suite.Equal(1, got.Attempts())
	suite.Equal("gateway timeout", got.LastError())
	suite.WithinDuration(retryAt, got.NextAttemptAt(), time.Millisecond)

	jobs, err := suite.repository.ClaimDue(ctx, now, 10)
	suite.Require().NoError(err)
	suite.Empty(jobs)
}

func TestNotificationRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationRepositoryIntegrationTestSuite))
}
