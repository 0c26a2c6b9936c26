package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"log/slog"

	"github.com/IBM/sarama"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
)

// Producer реализация Kafka producer
type Producer struct {
	producer sarama.SyncProducer
	cfg      *Config
	log      *slog.Logger
}

// NewProducer создаёт новый Kafka producer
func NewProducer(cfg *Config, log *slog.Logger) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(cfg.GetBrokers(), newProducerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("kafka producer created",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
	)

	return NewProducerWithClient(producer, cfg, log), nil
}

// NewProducerWithClient оборачивает готовый sarama.SyncProducer (в тестах - mocks)
func NewProducerWithClient(producer sarama.SyncProducer, cfg *Config, log *slog.Logger) *Producer {
	return &Producer{
		producer: producer,
		cfg:      cfg,
		log:      log,
	}
}

func newProducerConfig(cfg *Config) *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	applySecurity(config, cfg)
	return config
}

// applySecurity настройка SASL/TLS (если указано)
func applySecurity(config *sarama.Config, cfg *Config) {
	if cfg.SecurityProtocol != "SASL_SSL" && cfg.SecurityProtocol != "SASL_PLAINTEXT" {
		return
	}
	config.Net.SASL.Enable = true
	config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	if cfg.SASLMechanism == "SCRAM-SHA-256" {
		config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
	}
	config.Net.SASL.User = cfg.SASLUsername
	config.Net.SASL.Password = cfg.SASLPassword
	// TLS только для SASL_SSL
	if cfg.SecurityProtocol == "SASL_SSL" {
		config.Net.TLS.Enable = true
	}
}

// NewConsumerConfig конфиг consumer group с теми же настройками безопасности
func NewConsumerConfig(cfg *Config) *sarama.Config {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	applySecurity(config, cfg)
	return config
}

// PublishOrderEvent отправляет событие заказа, ключ - id заказа (порядок событий одного заказа сохраняется)
func (p *Producer) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.cfg.Topic,
		Key:   sarama.StringEncoder(event.OrderID.String()),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	return p.send(msg)
}

// Send отправляет произвольное сообщение
func (p *Producer) Send(ctx context.Context, key string, value []byte) error {
	return p.send(&sarama.ProducerMessage{
		Topic: p.cfg.Topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
}

func (p *Producer) send(msg *sarama.ProducerMessage) error {
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Debug("kafka send failed",
			"error", err,
			"topic", msg.Topic,
		)
		return fmt.Errorf("kafka send failed [topic=%s]: %w", msg.Topic, err)
	}

	p.log.Debug("message sent to kafka",
		"topic", msg.Topic,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	p.log.Info("kafka producer closed")
	return nil
}
