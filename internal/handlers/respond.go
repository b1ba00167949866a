package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/birlikkoshan/todo-api/internal/auth"
	"github.com/birlikkoshan/todo-api/internal/dto"
	"github.com/birlikkoshan/todo-api/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgValidation      = "Validation error"
	msgQueryValidation = "Query validation error"
	msgTodoNotFound    = "Todo not found"
	msgInternal        = "Internal server error"
)

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, dto.OK(data))
}

func fail(c *gin.Context, status int, msg string, details []dto.FieldError) {
	c.AbortWithStatusJSON(status, dto.Fail(msg, details))
}

func badRequest(c *gin.Context, msg string, err error) {
	fail(c, http.StatusBadRequest, msg, bindingDetails(err))
}

// respondError maps service errors to status codes. Unknown errors are logged
// and answered with a generic 500.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, msgTodoNotFound, nil)
	case errors.Is(err, service.ErrEmailTaken):
		fail(c, http.StatusConflict, "User with this email already exists", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid email or password", nil)
	case errors.Is(err, auth.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, err.Error(), nil)
	default:
		log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "err", err)
		fail(c, http.StatusInternalServerError, msgInternal, nil)
	}
}
