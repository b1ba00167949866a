package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/birlikkoshan/todo-api/internal/cache"
	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/repo"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("todo not found")

type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	sf    singleflight.Group
	log   *slog.Logger
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache, log *slog.Logger) *TodoService {
	return &TodoService{repo: r, cache: c, log: log}
}

// Create stores a new todo for userID. Status defaults to pending.
func (s *TodoService) Create(ctx context.Context, userID uuid.UUID, title string, desc *string, status dom.TodoStatus) (dom.Todo, error) {
	if status == "" {
		status = dom.StatusPending
	}
	t, err := s.repo.Create(ctx, dom.Todo{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: desc,
		Status:      status,
	})
	if err != nil {
		return dom.Todo{}, err
	}
	s.log.InfoContext(ctx, "todo created", "todo_id", t.ID, "user_id", userID)
	s.invalidateCache(ctx, userID)
	return t, nil
}

// List returns one page of the caller's todos matching q.
func (s *TodoService) List(ctx context.Context, userID uuid.UUID, q dom.TodoQuery) (dom.TodoPage, error) {
	q = q.Normalize()
	if s.cache == nil {
		return s.repo.List(ctx, userID, q)
	}
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "read todo cache generation", "user_id", userID, "err", err)
		return s.repo.List(ctx, userID, q)
	}
	key := cache.ListKey(userID, gen, q)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if page, err := s.cache.GetList(ctx, userID, gen, q); err == nil && page != nil {
			return *page, nil
		}
		page, err := s.repo.List(ctx, userID, q)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetList(ctx, userID, gen, q, page); err != nil {
			s.log.WarnContext(ctx, "cache list page", "err", err)
		}
		return page, nil
	})
	if err != nil {
		return dom.TodoPage{}, err
	}
	return v.(dom.TodoPage), nil
}

func (s *TodoService) GetByID(ctx context.Context, userID, id uuid.UUID) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return dom.Todo{}, mapNotFound(err)
	}
	return t, nil
}

// Update applies patch to one of the caller's todos.
func (s *TodoService) Update(ctx context.Context, userID, id uuid.UUID, patch dom.TodoPatch) (dom.Todo, error) {
	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return dom.Todo{}, mapNotFound(err)
	}
	t, err := s.repo.Update(ctx, userID, patch.Apply(existing))
	if err != nil {
		return dom.Todo{}, mapNotFound(err)
	}
	s.log.InfoContext(ctx, "todo updated", "todo_id", id, "user_id", userID)
	s.invalidateCache(ctx, userID)
	return t, nil
}

// Delete soft-deletes one of the caller's todos.
func (s *TodoService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, userID, id); err != nil {
		return mapNotFound(err)
	}
	s.log.InfoContext(ctx, "todo deleted", "todo_id", id, "user_id", userID)
	s.invalidateCache(ctx, userID)
	return nil
}

func (s *TodoService) invalidateCache(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "invalidate todo cache", "user_id", userID, "err", err)
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
