package ports

import (
	"context"
)

type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork spans one database transaction. Repositories obtained from it
// share the transaction; Commit also writes a NotificationJob for every
// customer-facing event recorded by the tracked aggregates.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	Commit(ctx context.Context) error

	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository

	TaskRepository() TaskRepository

	DriverRepository() DriverRepository

	PaymentLedger() PaymentLedger

	ConversationRepository() ConversationRepository

	NotificationRepository() NotificationRepository
}
