package telegram

import (
	"strconv"
	"strings"
)

// webhookPath маршрут вебхука в HTTP-сервере
const webhookPath = "/webhook/"

type Config struct {
	UseWebhook     string `envconfig:"USE_WEBHOOK"` // строка: так переменную отдаёт хостинг
	WebhookURL     string `envconfig:"WEBHOOK_URL"` // публичный адрес сервиса без пути
	PollingTimeout int    `envconfig:"POLLING_TIMEOUT" default:"30"`
}

func (c *Config) IsWebhookEnabled() bool {
	enabled, err := strconv.ParseBool(strings.TrimSpace(c.UseWebhook))
	return err == nil && enabled
}

// WebhookEndpoint полный адрес, который регистрируется в Telegram
func (c *Config) WebhookEndpoint() string {
	return strings.TrimRight(c.WebhookURL, "/") + webhookPath
}
