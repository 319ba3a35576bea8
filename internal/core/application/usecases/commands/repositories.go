package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	TaskRepoFactory interface {
		TaskRepository() ports.TaskRepository
	}

	DriverRepoFactory interface {
		DriverRepository() ports.DriverRepository
	}

	PaymentLedgerFactory interface {
		PaymentLedger() ports.PaymentLedger
	}

	ConversationRepoFactory interface {
		ConversationRepository() ports.ConversationRepository
	}

	NotificationRepoFactory interface {
		NotificationRepository() ports.NotificationRepository
	}

	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	DriverUoW interface {
		TxManager
		DriverRepoFactory
	}

	DriverUoWFactory interface {
		Create() DriverUoW
	}

	PaymentUoW interface {
		TxManager
		OrderRepoFactory
		PaymentLedgerFactory
	}

	PaymentUoWFactory interface {
		Create() PaymentUoW
	}

	// DispatchUoW covers every operation that moves orders, tasks and driver
	// load together.
	DispatchUoW interface {
		TxManager
		OrderRepoFactory
		TaskRepoFactory
		DriverRepoFactory
	}

	DispatchUoWFactory interface {
		Create() DispatchUoW
	}

	ConversationUoW interface {
		TxManager
		ConversationRepoFactory
	}

	ConversationUoWFactory interface {
		Create() ConversationUoW
	}

	NotificationUoW interface {
		TxManager
		NotificationRepoFactory
	}

	NotificationUoWFactory interface {
		Create() NotificationUoW
	}
)
