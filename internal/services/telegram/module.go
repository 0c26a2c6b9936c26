package telegram

import (
	"fmt"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/service"
	tgPort "github.com/admin/tg-bots/nanny-bot/internal/ports/telegram"
)

type Service struct {
	BotIDToType      map[domain.BotId]domain.BotType        // botID → botType (для роутинга к UseCase)
	BotTypeToUsecase map[domain.BotType]service.IBotService // botType → UseCase
	TelegramClients  map[domain.BotId]tgPort.IClient        // botID → Client
	Log              *slog.Logger
}

func New(
	botIDToType map[domain.BotId]domain.BotType,
	botServices map[domain.BotType]service.IBotService,
	telegramClients map[domain.BotId]tgPort.IClient,
	log *slog.Logger,
) *Service {
	return &Service{
		BotIDToType:      botIDToType,
		BotTypeToUsecase: botServices,
		TelegramClients:  telegramClients,
		Log:              log,
	}
}

// SetBotServices устанавливает botServices: usecase бота сам зависит от этого сервиса как от отправителя,
// поэтому связывание идёт в два шага
func (s *Service) SetBotServices(botServices map[domain.BotType]service.IBotService) {
	s.BotTypeToUsecase = botServices
}

// GetBotType возвращает botType для указанного botID
func (s *Service) GetBotType(botID domain.BotId) (domain.BotType, error) {
	botType, ok := s.BotIDToType[botID]
	if !ok {
		return "", fmt.Errorf("bot_type not found for bot_id: %s", botID)
	}
	return botType, nil
}

func (s *Service) botService(botID domain.BotId) (service.IBotService, error) {
	botType, err := s.GetBotType(botID)
	if err != nil {
		return nil, err
	}
	botService, ok := s.BotTypeToUsecase[botType]
	if !ok {
		return nil, fmt.Errorf("unknown bot_type: %s", botType)
	}
	return botService, nil
}

func (s *Service) client(botID domain.BotId) (tgPort.IClient, error) {
	client, ok := s.TelegramClients[botID]
	if !ok {
		return nil, fmt.Errorf("telegram client not found for bot_id: %s", botID)
	}
	return client, nil
}
