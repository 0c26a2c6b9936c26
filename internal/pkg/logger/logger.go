package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Encoding string `envconfig:"ENCODING" default:"console"`
	Level    string `envconfig:"LEVEL" default:"info"`
}

// sensitiveKeys атрибуты с персональными данными родителей и нянь
var sensitiveKeys = map[string]struct{}{
	"phone":   {},
	"address": {},
}

func New(app string, cfg *Config) *slog.Logger {
	return newLogger(app, cfg, os.Stdout, os.Stderr)
}

func newLogger(app string, cfg *Config, jsonOut, consoleOut io.Writer) *slog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}

	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		panic(fmt.Errorf("invalid logger config: %w", err))
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug,
		ReplaceAttr: maskSensitive,
	}

	var handler slog.Handler
	switch cfg.Encoding {
	case "json":
		handler = slog.NewJSONHandler(jsonOut, opts)
	case "console", "":
		handler = slog.NewTextHandler(consoleOut, opts)
	default:
		panic(fmt.Errorf("invalid logger config: encoding %s is not supported", cfg.Encoding))
	}

	return slog.New(handler).With("app", app)
}

// ParseLevel парсит строковый уровень в slog.Level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("level %s is not supported", level)
	}
}

// maskSensitive оставляет от телефона и адреса только последние символы
func maskSensitive(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[a.Key]; !ok {
		return a
	}
	if a.Value.Kind() != slog.KindString {
		return slog.String(a.Key, "***")
	}
	return slog.String(a.Key, mask(a.Value.String()))
}

func mask(s string) string {
	runes := []rune(s)
	if len(runes) <= 4 {
		return "***"
	}
	return "***" + string(runes[len(runes)-4:])
}
