package handlers

import (
	"log/slog"
	"net/http"

	"github.com/birlikkoshan/todo-api/internal/auth"
	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/dto"
	"github.com/birlikkoshan/todo-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TodoHandler struct {
	svc *service.TodoService
	log *slog.Logger
}

func NewTodoHandler(svc *service.TodoService, log *slog.Logger) *TodoHandler {
	return &TodoHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     UserIdHeader
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.Envelope{data=dto.TodoResponse}
// @Failure      400   {object}  dto.Envelope
// @Failure      401   {object}  dto.Envelope
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, msgValidation, err)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), auth.UserIDFromContext(c), req.Title, req.Description, dom.TodoStatus(req.Status))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, dto.NewTodoResponse(t))
}

// List godoc
// @Summary      List todos
// @Description  Search, filter, sort and paginate the caller's todos.
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Security     UserIdHeader
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Page size, 1-100 (default 10)"
// @Param        search     query     string  false  "Case-insensitive match on title or description"
// @Param        status     query     string  false  "pending or completed"
// @Param        sortBy     query     string  false  "createdAt, updatedAt or title"
// @Param        sortOrder  query     string  false  "ASC or DESC (default DESC)"
// @Param        startDate  query     string  false  "Created on or after (ISO 8601)"
// @Param        endDate    query     string  false  "Created on or before (ISO 8601)"
// @Success      200  {object}  dto.Envelope{data=[]dto.TodoResponse,pagination=dto.Pagination}
// @Failure      400  {object}  dto.Envelope
// @Failure      401  {object}  dto.Envelope
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	var req dto.ListTodosQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, msgQueryValidation, err)
		return
	}
	q := req.Query()
	page, err := h.svc.List(c.Request.Context(), auth.UserIDFromContext(c), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.Page(dto.NewTodoList(page.Items), dto.NewPagination(page.TotalCount, q.Page, q.Limit)))
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Security     UserIdHeader
// @Param        id   path      string  true  "Todo ID (UUID)"
// @Success      200  {object}  dto.Envelope{data=dto.TodoResponse}
// @Failure      401  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), auth.UserIDFromContext(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, dto.NewTodoResponse(t))
}

// Update godoc
// @Summary      Update a todo
// @Description  Partial update. Absent fields are unchanged; a null description clears it.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     UserIdHeader
// @Param        id    path      string                 true  "Todo ID (UUID)"
// @Param        body  body      dto.UpdateTodoRequest  true  "Partial update"
// @Success      200   {object}  dto.Envelope{data=dto.TodoResponse}
// @Failure      400   {object}  dto.Envelope
// @Failure      401   {object}  dto.Envelope
// @Failure      404   {object}  dto.Envelope
// @Router       /todos/{id} [put]
// @Router       /todos/{id} [patch]
func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTodoRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, msgValidation, err)
		return
	}
	t, err := h.svc.Update(c.Request.Context(), auth.UserIDFromContext(c), id, req.Patch())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, dto.NewTodoResponse(t))
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Security     UserIdHeader
// @Param        id   path      string  true  "Todo ID (UUID)"
// @Success      200  {object}  dto.Envelope{data=dto.MessageResponse}
// @Failure      401  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), auth.UserIDFromContext(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, dto.MessageResponse{Message: "Todo deleted successfully"})
}

// parseID reads a UUID path param. A malformed id cannot name an existing
// todo, so it is answered with 404.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, http.StatusNotFound, msgTodoNotFound, nil)
		return uuid.Nil, false
	}
	return id, true
}
