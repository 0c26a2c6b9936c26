package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_PublishOrderEvent(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	orderID := uuid.New()

	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event domain.OrderEvent
		require.NoError(t, json.Unmarshal(val, &event))
		assert.Equal(t, domain.OrderEventClaimed, event.Type)
		assert.Equal(t, orderID, event.OrderID)
		return nil
	})

	p := NewProducerWithClient(mock, &Config{Topic: "order_events"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := p.PublishOrderEvent(context.Background(), domain.OrderEvent{
		Type:    domain.OrderEventClaimed,
		OrderID: orderID,
		Status:  domain.OrderAccepted,
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducer_SendError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWithClient(mock, &Config{Topic: "order_events"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := p.Send(context.Background(), "k", []byte("v"))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}
