package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/service"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/storage"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/usecase"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/fsm"
)

// Service диалоги бота: регистрация, анкеты, заказы, отзывы
type Service struct {
	UserRepo        repository.IUserRepo
	ChildRepo       repository.IChildRepo
	Drafts          repository.IDraftStore
	Orders          usecase.IOrderUsecase
	Reviews         usecase.IReviewUsecase
	Moderation      usecase.IModerationUsecase
	TelegramService service.ITelegramService
	S3Client        storage.IS3Client // nil - аватар хранится как file_id Telegram
	Engine          *fsm.Engine
	Log             *slog.Logger

	registration *fsm.Wizard
	child        *fsm.Wizard
	nanny        *fsm.Wizard
	order        *fsm.Wizard
	review       *fsm.Wizard

	now func() time.Time
}

func New(
	userRepo repository.IUserRepo,
	childRepo repository.IChildRepo,
	stateRepo repository.IStateRepo,
	drafts repository.IDraftStore,
	orders usecase.IOrderUsecase,
	reviews usecase.IReviewUsecase,
	moderation usecase.IModerationUsecase,
	telegramService service.ITelegramService,
	s3Client storage.IS3Client,
	log *slog.Logger,
) (*Service, error) {
	s := &Service{
		UserRepo:        userRepo,
		ChildRepo:       childRepo,
		Drafts:          drafts,
		Orders:          orders,
		Reviews:         reviews,
		Moderation:      moderation,
		TelegramService: telegramService,
		S3Client:        s3Client,
		Engine:          fsm.NewEngine(stateRepo, drafts, telegramService, log),
		Log:             log,
		now:             time.Now,
	}

	s.registration = s.registrationWizard()
	s.child = s.childWizard()
	s.nanny = s.nannyWizard()
	s.order = s.orderWizard()
	s.review = s.reviewWizard()

	for _, w := range []*fsm.Wizard{s.registration, s.child, s.order, s.review, s.nanny} {
		if err := s.Engine.Register(w); err != nil {
			return nil, fmt.Errorf("failed to register wizard %s: %w", w.Name, err)
		}
	}
	return s, nil
}

var _ service.IBotService = (*Service)(nil)

func (s *Service) turn(botID domain.BotId, chatID int64, user *domain.User) *fsm.Turn {
	return &fsm.Turn{
		BotID:  botID,
		ChatID: chatID,
		User:   user,
		Role:   user.Role,
	}
}
