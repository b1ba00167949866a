package domain

import (
	"time"

	"github.com/google/uuid"
)

// TodoStatus is the lifecycle state of a todo.
type TodoStatus string

const (
	StatusPending   TodoStatus = "pending"
	StatusCompleted TodoStatus = "completed"
)

func (s TodoStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Todo is owned by exactly one user. DeletedAt != nil means soft-deleted.
type Todo struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description *string
	Status      TodoStatus

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// TodoPatch carries a partial update. Nil fields are left untouched;
// SetDescription with a nil Description clears it.
type TodoPatch struct {
	Title          *string
	Description    *string
	SetDescription bool
	Status         *TodoStatus
}

// Apply returns t with the patch fields replaced.
func (p TodoPatch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.SetDescription {
		t.Description = p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}
