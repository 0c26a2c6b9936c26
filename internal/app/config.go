package app

import (
	"fmt"
	"time"

	server "github.com/admin/tg-bots/nanny-bot/internal/adapters/primary/http"
	alerterAdapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/alerter"
	kafkaAdapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/kafka"
	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/payment/yookassa"
	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/storage/s3"
	"github.com/admin/tg-bots/nanny-bot/internal/adapters/secondary/telegram"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/pkg/logger"
	"github.com/admin/tg-bots/nanny-bot/internal/usecases/orders"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      string                    `envconfig:"ENV" default:"local"`
	Postgres *pg.Config                `envconfig:"POSTGRES"`
	Redis    *redisAdapter.Config      `envconfig:"REDIS"`
	UseRedis bool                      `envconfig:"USE_REDIS" default:"false"`
	Log      *logger.Config            `envconfig:"LOG"`
	Server   *server.Config            `envconfig:"APISERVER"`
	Telegram *telegram.Config          `envconfig:"TELEGRAM"`
	Bots     BotsConfig                `envconfig:"BOTS"`
	Kafka    kafkaAdapter.KafkaConfigs `envconfig:"KAFKA"`
	Alerter  *alerterAdapter.Config    `envconfig:"ALERTER"`
	S3       *s3Adapter.Config         `envconfig:"S3"`
	Payment  *yookassa.Config          `envconfig:"YOOKASSA"`
	Orders   orders.Config             `envconfig:"ORDERS"`
	Drafts   DraftsConfig              `envconfig:"DRAFTS"`
	Notifier NotifierConfig            `envconfig:"NOTIFIER"`
	Admin    AdminConfig               `envconfig:"ADMIN"`
}

type DraftsConfig struct {
	TTL time.Duration `envconfig:"TTL" default:"24h"`
}

// NotifierConfig пауза между сообщениями рассылки, чтобы не упираться в лимиты Telegram
type NotifierConfig struct {
	Pause time.Duration `envconfig:"PAUSE" default:"100ms"`
}

// AdminConfig без токена админский API закрыт
type AdminConfig struct {
	Token string `envconfig:"TOKEN"`
}

// BotsConfig конфигурация ботов
type BotsConfig struct {
	Count int         `envconfig:"COUNT" default:"1"`
	List  []BotConfig `envconfig:"-"` // загружаем вручную
}

// Load загружает конфигурацию ботов из переменных окружения
func (bc *BotsConfig) Load(envPrefix string) error {
	bc.List = make([]BotConfig, bc.Count)
	for i := 0; i < bc.Count; i++ {
		prefix := fmt.Sprintf("%s_BOTS_%d", envPrefix, i) // NANNY_BOT_BOTS_0, NANNY_BOT_BOTS_1, ...
		var bot BotConfig
		if err := envconfig.Process(prefix, &bot); err != nil {
			return fmt.Errorf("failed to load bot %d: %w", i, err)
		}
		bc.List[i] = bot
	}
	return nil
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	// envconfig не умеет определять размер слайса
	if err := cfg.Bots.Load(envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load bots config: %w", err)
	}

	if err := cfg.Kafka.Load(envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load kafka config: %w", err)
	}

	return cfg, nil
}

// BotConfig конфигурация одного бота
type BotConfig struct {
	BotID    string `envconfig:"ID" required:"true"`    // NANNY_BOT_BOTS_0_ID, совпадает с secret token вебхука
	BotType  string `envconfig:"TYPE" default:"nanny"`  // NANNY_BOT_BOTS_0_TYPE
	BotToken string `envconfig:"TOKEN" required:"true"` // NANNY_BOT_BOTS_0_TOKEN
}

func (c *BotConfig) Validate() error {
	if c.BotID == "" {
		return fmt.Errorf("bot_id is required")
	}
	if c.BotType == "" {
		return fmt.Errorf("bot_type is required")
	}
	if c.BotToken == "" {
		return fmt.Errorf("bot_token is required")
	}

	botType := domain.BotType(c.BotType)
	if !botType.IsValid() {
		return fmt.Errorf("invalid bot_type: %s", c.BotType)
	}

	return nil
}

func (c *BotConfig) ToDomain() (domain.BotId, domain.BotType, error) {
	if err := c.Validate(); err != nil {
		return "", "", fmt.Errorf("invalid bot config: %w", err)
	}

	return domain.BotId(c.BotID), domain.BotType(c.BotType), nil
}
