package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/birlikkoshan/todo-api/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextKeyIdentity = "identity"

// IdentityFromContext returns the identity set by RequireIdentity.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// UserIDFromContext returns the current user ID set by RequireIdentity. uuid.Nil if not set.
func UserIDFromContext(c *gin.Context) uuid.UUID {
	id, _ := IdentityFromContext(c)
	return id.UserID
}

// RequireIdentity returns a middleware that resolves the caller and stores the
// identity in context. A missing or rejected identity is 401; a failed user
// lookup is 500.
func RequireIdentity(r Resolver, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := r.Resolve(c.Request.Context(), c.Request.Header)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail(err.Error(), nil))
				return
			}
			log.ErrorContext(c.Request.Context(), "resolve identity", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Fail("Internal server error", nil))
			return
		}
		c.Set(contextKeyIdentity, id)
		c.Next()
	}
}
