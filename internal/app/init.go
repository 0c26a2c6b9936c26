package app

import (
	"context"
	"fmt"
	"net/http"

	server "github.com/admin/tg-bots/nanny-bot/internal/adapters/primary/http"
	adminController "github.com/admin/tg-bots/nanny-bot/internal/adapters/primary/http/controllers/admin"
	healthcheckController "github.com/admin/tg-bots/nanny-bot/internal/adapters/primary/http/controllers/healthcheck"
	metricsController "github.com/admin/tg-bots/nanny-bot/internal/adapters/primary/http/controllers/metrics"
	telegramController "github.com/admin/tg-bots/nanny-bot/internal/adapters/primary/http/controllers/telegram"
	kafkaConsumerAdapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/primary/kafka"
	kafkaHandlers "github.com/admin/tg-bots/nanny-bot/internal/adapters/primary/kafka/handlers"
	alerterAdapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/alerter"
	kafkaAdapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/kafka"
	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/payment/yookassa"
	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/inmemory"
	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/s3"
	tgAdapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/telegram"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/cache"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/kafka"
	paymentPort "github.com/admin/tg-bots/nanny-bot/internal/ports/payment"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/repository"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/service"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/storage"
	tgPort "github.com/admin/tg-bots/nanny-bot/internal/ports/telegram"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/usecase"
	childRepo "github.com/admin/tg-bots/nanny-bot/internal/repository/child"
	draftRepo "github.com/admin/tg-bots/nanny-bot/internal/repository/draft"
	orderRepo "github.com/admin/tg-bots/nanny-bot/internal/repository/order"
	profileRepo "github.com/admin/tg-bots/nanny-bot/internal/repository/profile"
	reviewRepo "github.com/admin/tg-bots/nanny-bot/internal/repository/review"
	stateRepo "github.com/admin/tg-bots/nanny-bot/internal/repository/state"
	userRepo "github.com/admin/tg-bots/nanny-bot/internal/repository/user"
	alerterService "github.com/admin/tg-bots/nanny-bot/internal/services/alerter"
	jobScheduler "github.com/admin/tg-bots/nanny-bot/internal/services/jobs"
	telegramService "github.com/admin/tg-bots/nanny-bot/internal/services/telegram"
	botUsecase "github.com/admin/tg-bots/nanny-bot/internal/usecases/bot"
	moderationUsecase "github.com/admin/tg-bots/nanny-bot/internal/usecases/moderation"
	notifierUsecase "github.com/admin/tg-bots/nanny-bot/internal/usecases/notifier"
	ordersUsecase "github.com/admin/tg-bots/nanny-bot/internal/usecases/orders"
	reviewsUsecase "github.com/admin/tg-bots/nanny-bot/internal/usecases/reviews"
	"github.com/jmoiron/sqlx"
)

const (
	kafkaOrderEvents = "order_events"
	kafkaModeration  = "moderation"
)

type Dependencies struct {
	DB              *sqlx.DB
	HTTPServer      *http.Server
	TelegramService *telegramService.Service
	TelegramPoller  *tgAdapter.Poller
	KafkaProducers  map[string]*kafkaAdapter.Producer
	KafkaConsumers  map[string]*kafkaConsumerAdapter.Consumer
	Cache           cache.Cache
	JobScheduler    *jobScheduler.Scheduler
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies(ctx context.Context) (*Dependencies, error) {
	db, err := a.initPostgres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	repos := a.initRepositories(db)
	telegramClients, tgService, err := a.initTelegram(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram: %w", err)
	}

	external := a.initExternalServices()
	kafkaProducers := a.initKafkaProducers()
	scheduler := jobScheduler.NewScheduler(a.Log, external.Alerter)

	useCases, err := a.initUseCases(repos, tgService, external, kafkaProducers, scheduler)
	if err != nil {
		return nil, fmt.Errorf("failed to init use cases: %w", err)
	}
	tgService.SetBotServices(map[domain.BotType]service.IBotService{
		domain.BotTypeNanny: useCases.Bot,
	})

	kafkaConsumers := a.initKafkaConsumers(useCases.Moderation)

	httpServer := a.initHTTP(db, external, tgService, useCases.Moderation)
	poller, err := a.initTelegramMode(ctx, tgService, telegramClients)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram mode: %w", err)
	}

	return &Dependencies{
		DB:              db,
		HTTPServer:      httpServer,
		TelegramService: tgService,
		TelegramPoller:  poller,
		KafkaProducers:  kafkaProducers,
		KafkaConsumers:  kafkaConsumers,
		Cache:           external.Cache,
		JobScheduler:    scheduler,
	}, nil
}

type repositories struct {
	User    repository.IUserRepo
	Child   repository.IChildRepo
	Profile repository.IProfileRepo
	Order   repository.IOrderRepo
	Review  repository.IReviewRepo
	State   repository.IStateRepo
}

func (a *App) initRepositories(db *sqlx.DB) *repositories {
	persistenceLayer := pg.NewDB(db)
	return &repositories{
		User:    userRepo.New(persistenceLayer, a.Log),
		Child:   childRepo.New(persistenceLayer, a.Log),
		Profile: profileRepo.New(persistenceLayer, a.Log),
		Order:   orderRepo.New(persistenceLayer, a.Log),
		Review:  reviewRepo.New(persistenceLayer, a.Log),
		State:   stateRepo.New(persistenceLayer, a.Log),
	}
}

// externalServices опциональные внешние сервисы. Интерфейсные поля остаются nil (не typed nil), если сервис выключен.
type externalServices struct {
	Alerter  service.IAlerterService
	Cache    cache.Cache
	S3       storage.IS3Client
	Payments paymentPort.IPaymentProvider
}

func (a *App) initExternalServices() *externalServices {
	services := &externalServices{}

	if a.Cfg.Alerter.IsEnabled() {
		alerterClient := alerterAdapter.NewClient(a.Cfg.Alerter, a.Log)
		services.Alerter = alerterService.New(alerterClient, a.Cfg.Env, a.Log)
	}

	// черновики заказов: Redis, при недоступности память процесса
	if a.Cfg.UseRedis && a.Cfg.Redis != nil {
		redisClient, err := a.Cfg.Redis.NewConnection()
		if err != nil {
			a.Log.Warn("failed to init redis, drafts will be kept in memory", "error", err)
		} else {
			services.Cache = redisAdapter.NewClient(redisClient, a.Cfg.Redis.KeyPrefix)
			a.Log.Info("redis connected successfully")
		}
	}
	if services.Cache == nil {
		services.Cache = inmemory.NewCache()
	}

	if a.Cfg.S3.IsEnabled() {
		minioClient, err := a.Cfg.S3.NewClient()
		if err != nil {
			a.Log.Warn("failed to init s3, avatars will be stored as telegram file ids", "error", err)
		} else {
			services.S3 = s3Adapter.NewClient(minioClient, a.Cfg.S3.Bucket, a.Log)
		}
	}

	if a.Cfg.Payment.IsEnabled() {
		services.Payments = yookassa.NewProvider(a.Cfg.Payment, a.Log)
		a.Log.Info("yookassa payments enabled")
	}

	return services
}

func (a *App) initTelegram(ctx context.Context) (
	clients map[domain.BotId]*tgAdapter.Client,
	tgSvc *telegramService.Service,
	err error,
) {
	if len(a.Cfg.Bots.List) == 0 {
		return nil, nil, fmt.Errorf("no bots configured: at least one bot must be specified via BOTS_COUNT and BOTS_0_* environment variables")
	}

	botIDToType := make(map[domain.BotId]domain.BotType)
	clients = make(map[domain.BotId]*tgAdapter.Client)
	portClients := make(map[domain.BotId]tgPort.IClient)

	for i, botCfg := range a.Cfg.Bots.List {
		botID, botType, err := botCfg.ToDomain()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to convert bot config at index %d: %w", i, err)
		}

		client := tgAdapter.NewClient(botCfg.BotToken, a.Log)
		botIDToType[botID] = botType
		clients[botID] = client
		portClients[botID] = client

		if err := a.registerBotCommands(ctx, client); err != nil {
			a.Log.Warn("failed to register bot commands", "error", err, "bot_id", botID)
		}
	}

	tgSvc = telegramService.New(
		botIDToType,
		make(map[domain.BotType]service.IBotService), // заполняется после создания use case
		portClients,
		a.Log,
	)

	return clients, tgSvc, nil
}

func (a *App) initKafkaProducers() map[string]*kafkaAdapter.Producer {
	producers := make(map[string]*kafkaAdapter.Producer)
	for _, kafkaCfg := range a.Cfg.Kafka.List {
		if !kafkaCfg.Config.IsProducer() {
			continue
		}
		prod, err := kafkaAdapter.NewProducer(kafkaCfg.Config, a.Log)
		if err != nil {
			a.Log.Warn("failed to create kafka producer", "error", err, "name", kafkaCfg.Name)
			continue
		}
		producers[kafkaCfg.Name] = prod
	}
	return producers
}

func (a *App) initKafkaConsumers(moderation usecase.IModerationUsecase) map[string]*kafkaConsumerAdapter.Consumer {
	consumers := make(map[string]*kafkaConsumerAdapter.Consumer)
	for _, kafkaCfg := range a.Cfg.Kafka.List {
		if !kafkaCfg.Config.IsConsumer() {
			continue
		}

		handler := a.createHandlerForTopic(kafkaCfg.Name, moderation)
		if handler == nil {
			a.Log.Warn("no handler for kafka topic, skipping consumer", "name", kafkaCfg.Name)
			continue
		}

		consumer, err := kafkaConsumerAdapter.NewConsumer(kafkaCfg.Config, handler, a.Log)
		if err != nil {
			a.Log.Warn("failed to create kafka consumer", "error", err, "name", kafkaCfg.Name)
			continue
		}
		consumers[kafkaCfg.Name] = consumer
	}
	return consumers
}

func (a *App) createHandlerForTopic(name string, moderation usecase.IModerationUsecase) kafka.MessageHandler {
	switch name {
	case kafkaModeration:
		return kafkaHandlers.NewModerationDecisionHandler(moderation, a.Log)
	default:
		return nil
	}
}

type useCases struct {
	Bot        *botUsecase.Service
	Moderation usecase.IModerationUsecase
}

func (a *App) initUseCases(
	repos *repositories,
	tgService *telegramService.Service,
	external *externalServices,
	kafkaProducers map[string]*kafkaAdapter.Producer,
	scheduler *jobScheduler.Scheduler,
) (*useCases, error) {
	// уведомления вне диалога уходят от первого бота
	notifyBotID, _, err := a.Cfg.Bots.List[0].ToDomain()
	if err != nil {
		return nil, err
	}
	notifier := notifierUsecase.New(repos.User, tgService, notifyBotID, a.Cfg.Notifier.Pause, a.Log)

	var events kafka.IOrderEventProducer
	if prod, ok := kafkaProducers[kafkaOrderEvents]; ok {
		events = prod
	}

	orders := ordersUsecase.New(
		repos.Order,
		repos.User,
		repos.Profile,
		notifier,
		scheduler,
		events,            // может быть nil
		external.Payments, // может быть nil
		a.Cfg.Orders,
		a.Log,
	)
	reviews := reviewsUsecase.New(repos.Review, repos.Order, repos.User, repos.Profile, a.Log)
	moderation := moderationUsecase.New(repos.Profile, repos.User, notifier, external.Alerter, a.Log)
	drafts := draftRepo.New(external.Cache, a.Cfg.Drafts.TTL, a.Log)

	bot, err := botUsecase.New(
		repos.User,
		repos.Child,
		repos.State,
		drafts,
		orders,
		reviews,
		moderation,
		tgService,
		external.S3, // может быть nil
		a.Log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init bot use case: %w", err)
	}

	return &useCases{Bot: bot, Moderation: moderation}, nil
}

func (a *App) initHTTP(
	db *sqlx.DB,
	external *externalServices,
	tgService *telegramService.Service,
	moderation usecase.IModerationUsecase,
) *http.Server {
	controllers := []server.Controller{
		healthcheckController.New(db, external.Cache, a.Log),
		telegramController.New(tgService, a.Log),
		metricsController.New(),
		adminController.New(moderation, external.S3, a.Cfg.Admin.Token, a.Log),
	}

	return server.NewHTTPServer(a.Cfg.Server, a.Log, controllers...)
}

// initTelegramMode webhook в проде, long polling локально
func (a *App) initTelegramMode(
	ctx context.Context,
	tgService *telegramService.Service,
	telegramClients map[domain.BotId]*tgAdapter.Client,
) (*tgAdapter.Poller, error) {
	a.Log.Info("telegram configuration",
		"use_webhook", a.Cfg.Telegram.IsWebhookEnabled(),
		"webhook_url", a.Cfg.Telegram.WebhookURL,
	)

	if a.Cfg.Telegram.IsWebhookEnabled() {
		if err := a.setupWebhooks(ctx, telegramClients); err != nil {
			return nil, fmt.Errorf("failed to setup webhooks: %w", err)
		}
		return nil, nil
	}

	a.Log.Warn("polling mode enabled - this should only be used for local development")
	return a.initPolling(tgService, telegramClients), nil
}

func (a *App) setupWebhooks(ctx context.Context, telegramClients map[domain.BotId]*tgAdapter.Client) error {
	if a.Cfg.Telegram.WebhookURL == "" {
		return fmt.Errorf("webhook_url is required when use_webhook is true")
	}

	webhookURL := a.Cfg.Telegram.WebhookEndpoint()

	for botID, client := range telegramClients {
		if err := client.SetWebhook(ctx, webhookURL, string(botID)); err != nil {
			a.Log.Error("failed to set webhook", "error", err, "bot_id", botID, "webhook_url", webhookURL)
			return fmt.Errorf("failed to set webhook for bot %s: %w", botID, err)
		}

		a.Log.Info("webhook set successfully", "bot_id", botID, "webhook_url", webhookURL)
	}

	return nil
}

func (a *App) initPolling(
	tgService *telegramService.Service,
	telegramClients map[domain.BotId]*tgAdapter.Client,
) *tgAdapter.Poller {
	handler := func(ctx context.Context, botID domain.BotId, update *domain.Update) error {
		err := tgService.HandleUpdate(ctx, botID, update)
		if domain.IsBusinessError(err) {
			return nil
		}
		return err
	}

	firstBotID, _, _ := a.Cfg.Bots.List[0].ToDomain()

	return tgAdapter.NewPoller(
		telegramClients[firstBotID],
		firstBotID,
		a.Cfg.Telegram,
		handler,
		a.Log,
	)
}

func (a *App) registerBotCommands(ctx context.Context, client *tgAdapter.Client) error {
	commands := []tgAdapter.BotCommand{
		{Command: "start", Description: "Начать работу с ботом"},
		{Command: "menu", Description: "Главное меню"},
		{Command: "orders", Description: "Мои заказы"},
		{Command: "cancel", Description: "Отменить текущий шаг"},
		{Command: "help", Description: "Справка"},
	}

	return client.SetMyCommands(ctx, commands)
}

// initPostgres подключается к PostgreSQL и применяет миграции
func (a *App) initPostgres(ctx context.Context) (*sqlx.DB, error) {
	db, err := a.Cfg.Postgres.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	a.Log.Info("postgres connected successfully")

	if err := pg.RunMigrations(ctx, db, a.Log); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
