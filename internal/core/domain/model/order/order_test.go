package order_test

import (
	"encoding/json"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newItems(t *testing.T) []order.LineItem {
	t.Helper()
	a, err := order.NewLineItem("sku-1", 2, 1500)
	require.NoError(t, err)
	b, err := order.NewLineItem("sku-2", 1, 999)
	require.NoError(t, err)
	return []order.LineItem{a, b}
}

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), "customer-1", "+15550100", newItems(t), now)
	require.NoError(t, err)
	return o
}

func paidOrder(t *testing.T) *order.Order {
	t.Helper()
	o := newOrder(t)
	applied, err := o.ConfirmPayment("R1", o.Total(), now)
	require.NoError(t, err)
	require.True(t, applied)
	o.ClearDomainEvents()
	return o
}

func assignedOrder(t *testing.T) (*order.Order, kernel.UUID) {
	t.Helper()
	o := paidOrder(t)
	driverID := kernel.NewUUID()
	require.NoError(t, o.Assign(driverID, now))
	o.ClearDomainEvents()
	return o, driverID
}

func TestNewOrder(t *testing.T) {
	t.Run("placed with pending payment and computed totals", func(t *testing.T) {
		o := newOrder(t)

		assert.Equal(t, order.Placed, o.Status())
		assert.Equal(t, order.PaymentPending, o.PaymentStatus())
		assert.Equal(t, int64(3999), o.Subtotal())
		assert.Equal(t, int64(3999), o.Total())
		assert.Equal(t, now, o.Timestamps().PlacedAt)
		assert.Empty(t, o.DomainEvents())
		require.NoError(t, o.Validate())
	})

	t.Run("aggregates every validation error", func(t *testing.T) {
		_, err := order.NewOrder(kernel.UUID{}, "", "", nil, now)

		require.Error(t, err)
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "customerRef")
		assert.Contains(t, err.Error(), "contact")
		assert.Contains(t, err.Error(), "items")
	})

	t.Run("rejects zero value line item", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), "c", "+1", []order.LineItem{{}}, now)

		require.ErrorIs(t, err, order.ErrLineItemIsNotConstructed)
	})
}

func TestNewLineItem(t *testing.T) {
	_, err := order.NewLineItem("", 0, -1)

	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestOrder_ConfirmPayment(t *testing.T) {
	t.Run("moves placed order to paid and records one event", func(t *testing.T) {
		o := newOrder(t)

		applied, err := o.ConfirmPayment("R1", 3999, now)

		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, order.Paid, o.Status())
		assert.Equal(t, order.PaymentPaid, o.PaymentStatus())
		assert.Equal(t, "R1", o.PaymentRef())
		require.NotNil(t, o.Timestamps().PaidAt)

		events := o.DomainEvents()
		require.Len(t, events, 1)
		changed, ok := events[0].(order.StatusChanged)
		require.True(t, ok)
		assert.Equal(t, order.Placed, changed.From)
		assert.Equal(t, order.Paid, changed.To)
		assert.Equal(t, "+15550100", changed.NotificationTarget())
		assert.Equal(t, notification.KindOrderStatusChanged, changed.NotificationPayload().Kind)
	})

	t.Run("second confirmation is a no-op", func(t *testing.T) {
		o := paidOrder(t)

		applied, err := o.ConfirmPayment("R2", o.Total(), now)

		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, "R1", o.PaymentRef())
		assert.Empty(t, o.DomainEvents())
	})

	t.Run("no-op for orders beyond paid", func(t *testing.T) {
		o, _ := assignedOrder(t)

		applied, err := o.ConfirmPayment("R3", o.Total(), now)

		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, order.Assigned, o.Status())
	})

	t.Run("amount mismatch leaves order untouched", func(t *testing.T) {
		o := newOrder(t)

		_, err := o.ConfirmPayment("R1", 1, now)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, order.Placed, o.Status())
		assert.Equal(t, order.PaymentPending, o.PaymentStatus())
	})

	t.Run("cancelled order rejects payment", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.Cancel(false, now))

		_, err := o.ConfirmPayment("R1", o.Total(), now)

		require.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("failed payment can still be confirmed", func(t *testing.T) {
		o := newOrder(t)
		failed, err := o.FailPayment(now)
		require.NoError(t, err)
		require.True(t, failed)

		applied, err := o.ConfirmPayment("R9", o.Total(), now)

		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, order.PaymentPaid, o.PaymentStatus())
	})
}

func TestOrder_FailPayment(t *testing.T) {
	t.Run("records payment failed event once", func(t *testing.T) {
		o := newOrder(t)

		first, err := o.FailPayment(now)
		require.NoError(t, err)
		second, err := o.FailPayment(now)
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, second)
		assert.Equal(t, order.Placed, o.Status())
		assert.Equal(t, order.PaymentFailed, o.PaymentStatus())
		require.Len(t, o.DomainEvents(), 1)
		assert.IsType(t, order.PaymentRejected{}, o.DomainEvents()[0])
	})

	t.Run("ignored once paid", func(t *testing.T) {
		o := paidOrder(t)

		applied, err := o.FailPayment(now)

		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, order.PaymentPaid, o.PaymentStatus())
	})
}

func TestOrder_Assign(t *testing.T) {
	t.Run("paid order is assigned", func(t *testing.T) {
		o := paidOrder(t)
		driverID := kernel.NewUUID()

		require.NoError(t, o.Assign(driverID, now))

		assert.Equal(t, order.Assigned, o.Status())
		require.NotNil(t, o.DriverID())
		assert.True(t, driverID.IsEqual(*o.DriverID()))
	})

	t.Run("second assign is rejected", func(t *testing.T) {
		o, first := assignedOrder(t)

		err := o.Assign(kernel.NewUUID(), now)

		require.ErrorIs(t, err, errs.ErrInvalidTransition)
		assert.True(t, first.IsEqual(*o.DriverID()))
		assert.Empty(t, o.DomainEvents())
	})

	t.Run("unpaid order cannot be assigned", func(t *testing.T) {
		o := newOrder(t)

		require.ErrorIs(t, o.Assign(kernel.NewUUID(), now), errs.ErrInvalidTransition)
		assert.Nil(t, o.DriverID())
	})

	t.Run("reassign keeps assigned status", func(t *testing.T) {
		o, _ := assignedOrder(t)
		other := kernel.NewUUID()

		require.NoError(t, o.Reassign(other, now))

		assert.Equal(t, order.Assigned, o.Status())
		assert.True(t, other.IsEqual(*o.DriverID()))
	})
}

func TestOrder_DeliveryChain(t *testing.T) {
	o, _ := assignedOrder(t)

	require.ErrorIs(t, o.ConfirmDelivery(now), errs.ErrInvalidTransition)
	require.NoError(t, o.ConfirmPickup(now))
	require.ErrorIs(t, o.ConfirmPickup(now), errs.ErrInvalidTransition)
	require.NoError(t, o.StartTransit(now))
	require.NoError(t, o.ConfirmDelivery(now))

	assert.Equal(t, order.Delivered, o.Status())
	assert.True(t, o.IsTerminal())
	assert.Len(t, o.DomainEvents(), 3)
	ts := o.Timestamps()
	assert.NotNil(t, ts.PickedUpAt)
	assert.NotNil(t, ts.InTransitAt)
	assert.NotNil(t, ts.DeliveredAt)
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("paid order without task", func(t *testing.T) {
		o := paidOrder(t)

		require.NoError(t, o.Cancel(false, now))

		assert.Equal(t, order.Cancelled, o.Status())
		assert.NotNil(t, o.Timestamps().CancelledAt)
	})

	t.Run("rejected while a task is active", func(t *testing.T) {
		o := paidOrder(t)

		require.ErrorIs(t, o.Cancel(true, now), errs.ErrInvalidTransition)
		assert.Equal(t, order.Paid, o.Status())
	})

	t.Run("rejected once assigned", func(t *testing.T) {
		o, _ := assignedOrder(t)

		require.ErrorIs(t, o.Cancel(false, now), errs.ErrInvalidTransition)
	})
}

func TestOrder_Refund(t *testing.T) {
	t.Run("in transit order without active task", func(t *testing.T) {
		o, _ := assignedOrder(t)
		require.NoError(t, o.ConfirmPickup(now))
		require.NoError(t, o.StartTransit(now))

		require.NoError(t, o.Refund(false, now))

		assert.Equal(t, order.Refunded, o.Status())
		assert.Equal(t, order.PaymentRefunded, o.PaymentStatus())
	})

	t.Run("unpaid order cannot be refunded", func(t *testing.T) {
		o := newOrder(t)

		require.ErrorIs(t, o.Refund(false, now), errs.ErrInvalidTransition)
		assert.Equal(t, order.PaymentPending, o.PaymentStatus())
	})

	t.Run("delivered order cannot be refunded", func(t *testing.T) {
		o, _ := assignedOrder(t)
		require.NoError(t, o.ConfirmPickup(now))
		require.NoError(t, o.StartTransit(now))
		require.NoError(t, o.ConfirmDelivery(now))

		require.ErrorIs(t, o.Refund(false, now), errs.ErrInvalidTransition)
	})
}

func TestRestore(t *testing.T) {
	t.Run("round trips a snapshot", func(t *testing.T) {
		o, _ := assignedOrder(t)
		o.MarkSaved()

		restored, err := order.Restore(o.Snapshot())

		require.NoError(t, err)
		assert.True(t, o.IsEqual(restored))
		assert.Equal(t, o.Snapshot(), restored.Snapshot())
		assert.Equal(t, 1, restored.Version())
	})

	t.Run("rejects fulfillment status without paid payment", func(t *testing.T) {
		s := newOrder(t).Snapshot()
		s.Status = order.InTransit
		driverID := kernel.NewUUID()
		s.DriverID = &driverID

		_, err := order.Restore(s)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects assigned without driver", func(t *testing.T) {
		s := paidOrder(t).Snapshot()
		s.Status = order.Assigned

		_, err := order.Restore(s)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects status outside the enumeration", func(t *testing.T) {
		s := newOrder(t).Snapshot()
		s.Status = order.Status(42)

		_, err := order.Restore(s)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestStatusChanged_JSON(t *testing.T) {
	o := paidOrder(t)
	require.NoError(t, o.Assign(kernel.NewUUID(), now))

	data, err := json.Marshal(o.DomainEvents()[0])

	require.NoError(t, err)
	assert.Contains(t, string(data), `"from":"PAID"`)
	assert.Contains(t, string(data), `"to":"ASSIGNED"`)
	assert.NotContains(t, string(data), "+15550100")
}
