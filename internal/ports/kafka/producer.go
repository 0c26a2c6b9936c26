package kafka

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
)

// IKafkaProducer интерфейс для отправки сообщений в Kafka
type IKafkaProducer interface {
	// Send отправляет произвольное сообщение
	Send(ctx context.Context, key string, value []byte) error
	// Close закрывает producer
	Close() error
}

// IOrderEventProducer публикация событий жизненного цикла заказа
type IOrderEventProducer interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}
