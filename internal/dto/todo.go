package dto

import (
	"bytes"
	"encoding/json"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
)

// NullableString tells an absent field apart from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type CreateTodoRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=255"`
	Description *string `json:"description"`
	Status      string  `json:"status" binding:"omitempty,oneof=pending completed"`
}

// UpdateTodoRequest is a partial update; absent fields stay unchanged and a
// null description clears it.
type UpdateTodoRequest struct {
	Title       *string        `json:"title" binding:"omitempty,min=1,max=255"`
	Description NullableString `json:"description" swaggertype:"string"`
	Status      *string        `json:"status" binding:"omitempty,oneof=pending completed"`
}

// Patch converts the request to a domain patch.
func (r UpdateTodoRequest) Patch() dom.TodoPatch {
	p := dom.TodoPatch{Title: r.Title}
	if r.Description.Set {
		p.SetDescription = true
		p.Description = r.Description.Value
	}
	if r.Status != nil {
		s := dom.TodoStatus(*r.Status)
		p.Status = &s
	}
	return p
}

// ListTodosQuery binds the list query string. Values stay strings so that
// each invalid one is reported instead of failing on the first.
type ListTodosQuery struct {
	Page      string `form:"page" binding:"omitempty,number,intmin=1"`
	Limit     string `form:"limit" binding:"omitempty,number,intmin=1,intmax=100"`
	Search    string `form:"search"`
	Status    string `form:"status" binding:"omitempty,oneof=pending completed"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=createdAt updatedAt title"`
	SortOrder string `form:"sortOrder" binding:"omitempty,sortorder"`
	StartDate string `form:"startDate" binding:"omitempty,isodate"`
	EndDate   string `form:"endDate" binding:"omitempty,isodate"`
}

type TodoResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewTodoResponse(t dom.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func NewTodoList(items []dom.Todo) []TodoResponse {
	out := make([]TodoResponse, 0, len(items))
	for _, t := range items {
		out = append(out, NewTodoResponse(t))
	}
	return out
}
