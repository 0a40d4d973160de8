package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/zlog"

	"zettahub/internal/dto"
	"zettahub/internal/service"
	"zettahub/pkg/auth"
)

func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}

// AdminAuth guards the admin surface: it requires a valid Bearer token and
// stores the verified username for downstream handlers.
func AdminAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			dto.UnauthorizedError(c, "Missing bearer token")
			c.Abort()
			return
		}

		username, err := tokens.Verify(token)
		if err != nil {
			dto.UnauthorizedError(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(service.AdminUsernameKey, username)
		c.Next()
	}
}
