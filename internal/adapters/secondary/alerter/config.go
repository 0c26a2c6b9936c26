package alerter

// Config чат модераторов. Без токена и чата алерты о новых анкетах только логируются.
type Config struct {
	BotToken        string `envconfig:"BOT_TOKEN"`
	ChatID          int64  `envconfig:"CHAT_ID"`
	MessageThreadID *int64 `envconfig:"MESSAGE_THREAD_ID"`
}

func (c *Config) IsEnabled() bool {
	return c != nil && c.BotToken != "" && c.ChatID != 0
}
