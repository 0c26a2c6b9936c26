package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger пишет строку на каждый запрос. Тело вебхука не логируется: там персональные данные.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		c.Next()

		status := c.Writer.Status()
		var level slog.Level
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		default:
			level = slog.LevelDebug
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		log.LogAttrs(req.Context(), level, "request completed",
			slog.String("method", req.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("response_size", c.Writer.Size()),
			slog.String("remote_addr", c.ClientIP()),
		)
	}
}
