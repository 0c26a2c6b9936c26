package healthcheckController

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/ports/cache"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

const readyTimeout = 2 * time.Second

type HealthCheckController struct {
	db    *sqlx.DB
	cache cache.Cache
	log   *slog.Logger
}

// New cache может быть nil, тогда проверяется только БД
func New(db *sqlx.DB, cache cache.Cache, log *slog.Logger) *HealthCheckController {
	return &HealthCheckController{
		db:    db,
		cache: cache,
		log:   log,
	}
}

func (c *HealthCheckController) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", c.health)
	r.GET("/ready", c.ready)
}

func (c *HealthCheckController) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "nanny-bot",
	})
}

// ready проверяет БД и хранилище состояний диалогов
func (c *HealthCheckController) ready(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), readyTimeout)
	defer cancel()

	if err := c.db.PingContext(checkCtx); err != nil {
		c.log.Error("database not ready", "error", err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "database unavailable",
		})
		return
	}

	if c.cache != nil {
		if _, err := c.cache.Exists(checkCtx, "healthcheck"); err != nil {
			c.log.Error("cache not ready", "error", err)
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "cache unavailable",
			})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
