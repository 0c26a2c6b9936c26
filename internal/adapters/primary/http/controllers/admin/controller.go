package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/admin/tg-bots/nanny-bot/internal/adapters/primary/http/middlewares"
	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/storage"
	"github.com/admin/tg-bots/nanny-bot/internal/ports/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const avatarURLTTL = 15 * time.Minute

// Controller админская очередь модерации анкет
type Controller struct {
	Moderation usecase.IModerationUsecase
	S3Client   storage.IS3Client // nil если S3 не настроен
	Token      string
	Log        *slog.Logger
}

func New(
	moderation usecase.IModerationUsecase,
	s3Client storage.IS3Client,
	token string,
	log *slog.Logger,
) *Controller {
	return &Controller{
		Moderation: moderation,
		S3Client:   s3Client,
		Token:      token,
		Log:        log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	admin := router.Group("/admin", middlewares.AdminToken(c.Token, c.Log))
	{
		admin.GET("/nannies/pending", c.listPending)
		admin.POST("/nannies/:userID/approve", c.approve)
		admin.POST("/nannies/:userID/reject", c.reject)
	}
}

// PendingNanny анкета в очереди модерации
type PendingNanny struct {
	*domain.PendingProfile
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// RejectRequest причина отказа необязательна
type RejectRequest struct {
	Reason *string `json:"reason"`
}

func (c *Controller) listPending(ctx *gin.Context) {
	profiles, err := c.Moderation.ListPending(ctx.Request.Context())
	if err != nil {
		c.Log.Error("failed to list pending profiles", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending profiles"})
		return
	}

	result := make([]PendingNanny, 0, len(profiles))
	for _, p := range profiles {
		item := PendingNanny{PendingProfile: p}
		if p.AvatarKey != nil && c.S3Client != nil {
			url, err := c.S3Client.GetPresignedURL(ctx.Request.Context(), *p.AvatarKey, avatarURLTTL)
			if err != nil {
				c.Log.Warn("failed to presign avatar",
					"error", err,
					"user_id", p.UserID,
				)
			} else {
				item.AvatarURL = &url
			}
		}
		result = append(result, item)
	}

	ctx.JSON(http.StatusOK, gin.H{"profiles": result})
}

func (c *Controller) approve(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}

	if err := c.Moderation.Approve(ctx.Request.Context(), userID, usecase.SourceHTTP); err != nil {
		c.writeError(ctx, userID, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "status": domain.ProfileVerified})
}

func (c *Controller) reject(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}

	var req RejectRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	if req.Reason != nil {
		reason := strings.TrimSpace(*req.Reason)
		req.Reason = &reason
		if reason == "" {
			req.Reason = nil
		}
	}

	if err := c.Moderation.Reject(ctx.Request.Context(), userID, req.Reason, usecase.SourceHTTP); err != nil {
		c.writeError(ctx, userID, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "status": domain.ProfileRejected})
}

func (c *Controller) userID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("userID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}

func (c *Controller) writeError(ctx *gin.Context, userID uuid.UUID, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
	case errors.Is(err, domain.ErrInvalidTransition):
		ctx.JSON(http.StatusConflict, gin.H{"error": "profile is not pending review"})
	default:
		c.Log.Error("moderation decision failed",
			"error", err,
			"user_id", userID,
		)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "moderation failed"})
	}
}
