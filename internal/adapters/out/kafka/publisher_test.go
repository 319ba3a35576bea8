package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPublisher_Handle(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	orderID := kernel.NewUUID()
	event := order.StatusChanged{
		OrderID:       orderID,
		Contact:       "+15550001111",
		From:          order.Placed,
		To:            order.Paid,
		PaymentStatus: order.PaymentPaid,
		At:            time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "order-changed", msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, orderID.String(), string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)

		var got struct {
			Name        string         `json:"name"`
			AggregateID string         `json:"aggregateId"`
			Payload     map[string]any `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(value, &got))
		assert.Equal(t, order.EventStatusChanged, got.Name)
		assert.Equal(t, orderID.String(), got.AggregateID)
		assert.Equal(t, "PAID", got.Payload["to"])
		assert.NotContains(t, got.Payload, "Contact", "contact details stay out of the stream")
		return nil
	})

	publisher := NewEventPublisher(producer, "order-changed", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, publisher.Handle(context.Background(), event))
	require.NoError(t, publisher.Close())
}

func TestEventPublisher_HandleReturnsSendError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	publisher := NewEventPublisher(producer, "order-changed", slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := publisher.Handle(context.Background(), order.StatusChanged{OrderID: kernel.NewUUID(), At: time.Now()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	require.NoError(t, publisher.Close())
}
