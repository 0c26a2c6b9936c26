package yookassa

import "time"

type Config struct {
	ShopID    string        `envconfig:"SHOP_ID"`
	SecretKey string        `envconfig:"SECRET_KEY"`
	BaseURL   string        `envconfig:"BASE_URL" default:"https://api.yookassa.ru/v3"`
	ReturnURL string        `envconfig:"RETURN_URL" default:"https://t.me"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

// IsEnabled провайдер включён, если заданы реквизиты магазина
func (c *Config) IsEnabled() bool {
	return c != nil && c.ShopID != "" && c.SecretKey != ""
}
