// Package eventhandlers reacts to committed domain events: paid orders are
// offered to the dispatch policy right away, failed deliveries escalate the
// customer's support conversations, and every transition is counted.
package eventhandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/pkg/errs"
)

type DriverAssigner interface {
	Handle(ctx context.Context, cmd commands.AssignDriverCommand) (*task.Task, error)
}

type ConversationEscalator interface {
	Handle(ctx context.Context, cmd commands.EscalateOrderConversationsCommand) (int, error)
}

type TransitionRecorder interface {
	RecordTransition(entity, to string)
}

// OrderPaidHandler tries to dispatch an order as soon as its payment commits.
// Orders left PAID are picked up by the periodic assignment job.
type OrderPaidHandler struct {
	assigner DriverAssigner
	logger   *slog.Logger
}

func NewOrderPaidHandler(assigner DriverAssigner, logger *slog.Logger) OrderPaidHandler {
	return OrderPaidHandler{assigner: assigner, logger: logger.With("component", "order_paid_handler")}
}

func (h OrderPaidHandler) Handle(ctx context.Context, event kernel.DomainEvent) error {
	changed, ok := event.(order.StatusChanged)
	if !ok || changed.To != order.Paid {
		return nil
	}

	cmd, err := commands.NewAssignDriverCommand(changed.OrderID)
	if err != nil {
		return err
	}

	assigned, err := h.assigner.Handle(ctx, cmd)
	switch {
	case err == nil:
		h.logger.InfoContext(ctx, "driver assigned",
			"order_id", changed.OrderID.String(),
			"driver_id", assigned.DriverID().String(),
			"task_id", assigned.ID().String())
		return nil
	case errors.Is(err, errs.ErrNoDriverAvailable), errors.Is(err, errs.ErrInvalidTransition):
		// Left for the assignment job, or already handled by it.
		return nil
	default:
		return fmt.Errorf("assign driver to order %s: %w", changed.OrderID, err)
	}
}

// TaskFailedHandler hands the customer's open conversations about the order
// to a human when its delivery fails.
type TaskFailedHandler struct {
	escalator ConversationEscalator
	logger    *slog.Logger
}

func NewTaskFailedHandler(escalator ConversationEscalator, logger *slog.Logger) TaskFailedHandler {
	return TaskFailedHandler{escalator: escalator, logger: logger.With("component", "task_failed_handler")}
}

func (h TaskFailedHandler) Handle(ctx context.Context, event kernel.DomainEvent) error {
	changed, ok := event.(task.StatusChanged)
	if !ok || changed.To != task.Failed {
		return nil
	}

	reason := "delivery failed"
	if changed.Reason != "" {
		reason = "delivery failed: " + changed.Reason
	}
	cmd, err := commands.NewEscalateOrderConversationsCommand(changed.OrderID, reason)
	if err != nil {
		return err
	}

	escalated, err := h.escalator.Handle(ctx, cmd)
	if err != nil {
		return fmt.Errorf("escalate conversations of order %s: %w", changed.OrderID, err)
	}
	if escalated > 0 {
		h.logger.InfoContext(ctx, "conversations handed to support",
			"order_id", changed.OrderID.String(), "count", escalated)
	}
	return nil
}

// TransitionCounter feeds the state transition metric.
type TransitionCounter struct {
	recorder TransitionRecorder
}

func NewTransitionCounter(recorder TransitionRecorder) TransitionCounter {
	return TransitionCounter{recorder: recorder}
}

func (c TransitionCounter) Handle(_ context.Context, event kernel.DomainEvent) error {
	switch e := event.(type) {
	case order.StatusChanged:
		c.recorder.RecordTransition("order", e.To.String())
	case order.PaymentRejected:
		c.recorder.RecordTransition("payment", order.PaymentFailed.String())
	case task.StatusChanged:
		c.recorder.RecordTransition("task", e.To.String())
	case conversation.HandoffRequested:
		c.recorder.RecordTransition("conversation", conversation.HumanActive.String())
	}
	return nil
}
