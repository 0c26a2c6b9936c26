package telegram

import (
	"log/slog"
	"net/http"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	telegramService "github.com/admin/tg-bots/nanny-bot/internal/services/telegram"
	"github.com/gin-gonic/gin"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

type Controller struct {
	TgService *telegramService.Service
	Log       *slog.Logger
}

func New(TgService *telegramService.Service, log *slog.Logger) *Controller {
	return &Controller{
		TgService: TgService,
		Log:       log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhook/", c.handleWebhook)
}

// handleWebhook секретный токен вебхука совпадает с bot_id из конфигурации
func (c *Controller) handleWebhook(ctx *gin.Context) {
	secretToken := ctx.GetHeader(secretTokenHeader)
	if secretToken == "" {
		c.Log.Warn("webhook without secret token")
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "secret token required"})
		return
	}

	botID := domain.BotId(secretToken)
	if _, err := c.TgService.GetBotType(botID); err != nil {
		c.Log.Warn("unknown bot_id in webhook",
			"bot_id", botID,
			"error", err,
		)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown bot_id"})
		return
	}

	var update domain.Update
	if err := ctx.ShouldBindJSON(&update); err != nil {
		c.Log.Warn("failed to bind webhook request",
			"error", err,
			"bot_id", botID,
		)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	c.Log.Debug("received webhook update",
		"update_id", update.UpdateID,
		"bot_id", botID,
	)

	if err := c.TgService.HandleUpdate(ctx.Request.Context(), botID, &update); err != nil {
		// пользователю уже ответили, повтор от Telegram не нужен
		if domain.IsBusinessError(err) {
			ctx.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
		c.Log.Error("failed to handle update",
			"error", err,
			"update_id", update.UpdateID,
			"bot_id", botID,
		)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process update"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
