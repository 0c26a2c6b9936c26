package middlewares

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminToken пускает только запросы с верным X-Admin-Token. Пустой токен закрывает доступ полностью.
func AdminToken(token string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(AdminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			log.Warn("admin request rejected",
				"route", c.FullPath(),
				"client_ip", c.ClientIP(),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
