package orders

import (
	"log/slog"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/ports/jobs"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/kafka"
	paymentPort "github.com/admin/tg-bots/nanny-bot/internal/ports/payment"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/service"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/usecase"
)

const (
	DefaultNoResponseTimeout = time.Hour
	DefaultReviewDelay       = 10 * time.Second

	listLimit = 10
)

// Config таймеры жизненного цикла заказа
type Config struct {
	NoResponseTimeout time.Duration `envconfig:"NO_RESPONSE_TIMEOUT" default:"1h"`
	ReviewDelay       time.Duration `envconfig:"REVIEW_DELAY" default:"10s"`
}

type Service struct {
	Orders    repository.IOrderRepo
	Users     repository.IUserRepo
	Profiles  repository.IProfileRepo
	Notifier  service.INotifier
	Scheduler jobs.IDelayedScheduler
	Events    kafka.IOrderEventProducer   // nil, если топик событий не настроен
	Payments  paymentPort.IPaymentProvider // nil, если оплата выключена
	Cfg       Config
	Log       *slog.Logger

	now func() time.Time
}

func New(
	orders repository.IOrderRepo,
	users repository.IUserRepo,
	profiles repository.IProfileRepo,
	notifier service.INotifier,
	scheduler jobs.IDelayedScheduler,
	events kafka.IOrderEventProducer,
	payments paymentPort.IPaymentProvider,
	cfg Config,
	log *slog.Logger,
) *Service {
	if cfg.NoResponseTimeout <= 0 {
		cfg.NoResponseTimeout = DefaultNoResponseTimeout
	}
	if cfg.ReviewDelay <= 0 {
		cfg.ReviewDelay = DefaultReviewDelay
	}
	return &Service{
		Orders:    orders,
		Users:     users,
		Profiles:  profiles,
		Notifier:  notifier,
		Scheduler: scheduler,
		Events:    events,
		Payments:  payments,
		Cfg:       cfg,
		Log:       log,
		now:       time.Now,
	}
}

var _ usecase.IOrderUsecase = (*Service)(nil)
