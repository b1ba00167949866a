// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/birlikkoshan/todo-api/internal/auth"
	"github.com/birlikkoshan/todo-api/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogger logs one line per request. 5xx responses log at error level.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id := auth.UserIDFromContext(c); id != uuid.Nil {
			attrs = append(attrs, "user_id", id)
		}
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorContext(ctx, "http request", attrs...)
		case status >= 400:
			log.WarnContext(ctx, "http request", attrs...)
		default:
			log.InfoContext(ctx, "http request", attrs...)
		}
	}
}

// Recovery turns panics into a 500 envelope and logs them.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		log.ErrorContext(c.Request.Context(), "panic recovered", "err", err, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Fail("Internal server error", nil))
	})
}
