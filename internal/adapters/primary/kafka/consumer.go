package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	kafkaAdapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/kafka"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	kafkaPorts "github.com/admin/tg-bots/nanny-bot/internal/ports/kafka"
)

const rejoinDelay = 5 * time.Second

// Consumer читает один топик в составе consumer group
type Consumer struct {
	group   sarama.ConsumerGroup
	cfg     *kafkaAdapter.Config
	handler kafkaPorts.MessageHandler
	log     *slog.Logger
}

// NewConsumer создаёт consumer group на cfg.Topic
func NewConsumer(cfg *kafkaAdapter.Config, handler kafkaPorts.MessageHandler, log *slog.Logger) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(cfg.GetBrokers(), cfg.ConsumerGroup, kafkaAdapter.NewConsumerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	log.Info("kafka consumer created",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"consumer_group", cfg.ConsumerGroup,
	)

	return newConsumer(group, cfg, handler, log), nil
}

func newConsumer(group sarama.ConsumerGroup, cfg *kafkaAdapter.Config, handler kafkaPorts.MessageHandler, log *slog.Logger) *Consumer {
	return &Consumer{
		group:   group,
		cfg:     cfg,
		handler: handler,
		log:     log,
	}
}

// Start блокируется до отмены ctx. Consume возвращается при каждой ребалансировке, поэтому вызывается в цикле.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &groupHandler{
		handler: c.handler,
		log:     c.log.With("topic", c.cfg.Topic),
	}

	for {
		err := c.group.Consume(ctx, []string{c.cfg.Topic}, handler)
		if ctx.Err() != nil {
			c.log.Info("kafka consumer stopping", "topic", c.cfg.Topic)
			return nil
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil {
			c.log.Error("kafka consume failed, rejoining",
				"error", err,
				"topic", c.cfg.Topic,
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(rejoinDelay):
			}
		}
	}
}

func (c *Consumer) Close() error {
	if err := c.group.Close(); err != nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	c.log.Info("kafka consumer closed", "topic", c.cfg.Topic)
	return nil
}

// groupHandler реализует sarama.ConsumerGroupHandler
type groupHandler struct {
	handler kafkaPorts.MessageHandler
	log     *slog.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.log.Debug("kafka consumer group session setup")
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.log.Debug("kafka consumer group session cleanup")
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if h.process(session.Context(), message) {
				session.MarkMessage(message, "")
			}
		}
	}
}

// process true, если сообщение можно коммитить
func (h *groupHandler) process(ctx context.Context, message *sarama.ConsumerMessage) bool {
	headers := make(map[string]string, len(message.Headers))
	for _, hdr := range message.Headers {
		if hdr != nil {
			headers[string(hdr.Key)] = string(hdr.Value)
		}
	}

	err := h.handler.HandleMessage(ctx, string(message.Key), message.Value, headers)
	switch {
	case err == nil:
		return true
	case domain.IsBusinessError(err):
		// повтор не поможет
		h.log.Warn("kafka message dropped",
			"error", err,
			"partition", message.Partition,
			"offset", message.Offset,
		)
		return true
	default:
		// TODO: складывать такие сообщения в DLQ-топик вместо пропуска
		h.log.Error("failed to handle kafka message",
			"error", err,
			"key", string(message.Key),
			"partition", message.Partition,
			"offset", message.Offset,
		)
		return false
	}
}
