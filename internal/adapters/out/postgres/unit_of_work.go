// Package postgres provides the GORM-based Unit of Work shared by every
// command handler.
//
// A unit of work spans one database transaction. Repositories obtained from
// it share the transaction and report every aggregate they write back to it.
// On Commit the unit of work drains the domain events recorded by those
// aggregates and, still inside the transaction, writes one notification job
// for every event that must reach a customer (outbox). Once the transaction
// is durable the same events are handed to the event publisher.
//
// Usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
//
// Each UnitOfWork instance belongs to one goroutine. Concurrent operations
// create separate instances from the factory.
package postgres

import (
	"context"
	"fmt"

	"fulfillment/internal/adapters/out/postgres/conversationrepo"
	"fulfillment/internal/adapters/out/postgres/driverrepo"
	"fulfillment/internal/adapters/out/postgres/notificationrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/paymentrepo"
	"fulfillment/internal/adapters/out/postgres/taskrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/ports"

	"gorm.io/gorm"
)

// NotificationChannel is the LISTEN/NOTIFY channel signalled when a commit
// queued at least one notification job.
const NotificationChannel = "notification_jobs"

// eventSource is implemented by every aggregate that records domain events.
type eventSource interface {
	DomainEvents() []kernel.DomainEvent
	ClearDomainEvents()
}

// trackedAggregate is an aggregate written during the unit of work.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate any
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection
// pool and one event publisher.
type GormUnitOfWorkFactory struct {
	db        *gorm.DB
	publisher ports.EventPublisher
}

// NewGormUnitOfWorkFactory creates the factory. publisher may be nil, in which
// case committed events are only turned into notification jobs.
//
// The db must be opened with gorm.Config{TranslateError: true} so that key
// collisions surface as concurrency conflicts.
func NewGormUnitOfWorkFactory(db *gorm.DB, publisher ports.EventPublisher) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{
		db:        db,
		publisher: publisher,
	}
}

func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		publisher:         f.publisher,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates one transaction and the aggregates written in it.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	publisher         ports.EventPublisher
	trackedAggregates []trackedAggregate
}

// Begin opens the transaction. Calling it twice is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	uow.trackedAggregates = uow.trackedAggregates[:0]
	return nil
}

// Commit writes the outbox rows for the drained events, commits, and then
// publishes the events. Events stay on the aggregates if the commit fails.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	events := uow.drainEvents()
	if err := uow.writeOutbox(ctx, events); err != nil {
		return err
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		return err
	}

	for _, tracked := range uow.trackedAggregates {
		if source, ok := tracked.Aggregate.(eventSource); ok {
			source.ClearDomainEvents()
		}
	}
	uow.trackedAggregates = uow.trackedAggregates[:0]

	if uow.publisher != nil && len(events) > 0 {
		uow.publisher.Publish(ctx, events...)
	}

	return nil
}

// Rollback discards the transaction. It returns gorm.ErrInvalidTransaction
// when nothing is open, which makes a deferred Rollback after Commit harmless.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

// OrderRepository runs inside the current transaction when one is open and
// against the pool otherwise. The same holds for every repository below.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) TaskRepository() ports.TaskRepository {
	return taskrepo.NewGormTaskRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) DriverRepository() ports.DriverRepository {
	return driverrepo.NewGormDriverRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) PaymentLedger() ports.PaymentLedger {
	return paymentrepo.NewGormPaymentLedger(uow.conn())
}

func (uow *GormUnitOfWork) ConversationRepository() ports.ConversationRepository {
	return conversationrepo.NewGormConversationRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) NotificationRepository() ports.NotificationRepository {
	return notificationrepo.NewGormNotificationRepository(uow.conn())
}

// TrackAggregate registers an aggregate written in this unit of work. An
// aggregate written twice is tracked once.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate any) {
	for _, tracked := range uow.trackedAggregates {
		if tracked.Aggregate == aggregate {
			return
		}
	}
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

func (uow *GormUnitOfWork) drainEvents() []kernel.DomainEvent {
	var events []kernel.DomainEvent
	for _, tracked := range uow.trackedAggregates {
		if source, ok := tracked.Aggregate.(eventSource); ok {
			events = append(events, source.DomainEvents()...)
		}
	}
	return events
}

func (uow *GormUnitOfWork) writeOutbox(ctx context.Context, events []kernel.DomainEvent) error {
	repo := notificationrepo.NewGormNotificationRepository(uow.tx)

	queued := 0
	for _, event := range events {
		source, ok := event.(notification.Source)
		if !ok {
			continue
		}

		aggregateID := event.AggregateID()
		job, err := notification.NewJob(
			kernel.NewUUID(),
			source.NotificationTarget(),
			source.NotificationPayload(),
			&aggregateID,
			event.OccurredAt(),
		)
		if err != nil {
			return fmt.Errorf("outbox %s: %w", event.EventName(), err)
		}
		if err := repo.Add(ctx, job); err != nil {
			return fmt.Errorf("outbox %s: %w", event.EventName(), err)
		}
		queued++
	}

	if queued == 0 {
		return nil
	}
	return uow.tx.WithContext(ctx).Exec("SELECT pg_notify(?, '')", NotificationChannel).Error
}
