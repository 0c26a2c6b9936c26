package alerter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/alerter"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/service"
)

// Service реализует IAlerterService: алерты о сбоях и новые анкеты на модерацию
type Service struct {
	client *alerter.Client
	prefix string
	log    *slog.Logger
}

// New создаёт новый сервис для отправки алертов. prefix добавляется первой строкой (имя окружения)
func New(client *alerter.Client, prefix string, log *slog.Logger) service.IAlerterService {
	return &Service{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

func (s *Service) SendAlert(ctx context.Context, message string) error {
	if s.client == nil {
		return fmt.Errorf("alerter client is not initialized")
	}

	if s.prefix != "" {
		message = fmt.Sprintf("[%s]\n%s", s.prefix, message)
	}

	return s.client.SendAlert(ctx, message)
}
