package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TodoRepo persists todos. Every method is scoped to the owning user; rows of
// other users and soft-deleted rows behave as if they did not exist.
type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (dom.Todo, error)
	List(ctx context.Context, userID uuid.UUID, q dom.TodoQuery) (dom.TodoPage, error)
	Update(ctx context.Context, userID uuid.UUID, t dom.Todo) (dom.Todo, error)
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
}

type PGTodoRepo struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	now := r.now()
	t.CreatedAt, t.UpdatedAt = now, now
	st := insertStatement(pgDialect, t)
	row := r.db.QueryRow(ctx, st.sql+" RETURNING "+todoColumns, st.args...)
	return scanPGTodo(row)
}

func (r *PGTodoRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (dom.Todo, error) {
	st := getStatement(pgDialect, userID, id)
	return scanPGTodo(r.db.QueryRow(ctx, st.sql, st.args...))
}

func (r *PGTodoRepo) List(ctx context.Context, userID uuid.UUID, q dom.TodoQuery) (dom.TodoPage, error) {
	q = q.Normalize()
	count, page := listStatements(pgDialect, userID, q)

	var total int
	if err := r.db.QueryRow(ctx, count.sql, count.args...).Scan(&total); err != nil {
		return dom.TodoPage{}, fmt.Errorf("count todos: %w", err)
	}
	out := dom.TodoPage{Items: []dom.Todo{}, TotalCount: total}
	if q.PastEnd(total) {
		return out, nil
	}

	rows, err := r.db.Query(ctx, page.sql, page.args...)
	if err != nil {
		return dom.TodoPage{}, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanPGTodo(rows)
		if err != nil {
			return dom.TodoPage{}, err
		}
		out.Items = append(out.Items, t)
	}
	return out, rows.Err()
}

func (r *PGTodoRepo) Update(ctx context.Context, userID uuid.UUID, t dom.Todo) (dom.Todo, error) {
	st := updateStatement(pgDialect, userID, t, r.now())
	return scanPGTodo(r.db.QueryRow(ctx, st.sql+" RETURNING "+todoColumns, st.args...))
}

func (r *PGTodoRepo) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	st := softDeleteStatement(pgDialect, userID, id, r.now())
	tag, err := r.db.Exec(ctx, st.sql, st.args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPGTodo(row pgx.Row) (dom.Todo, error) {
	var t dom.Todo
	var status string
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &status,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	t.Status = dom.TodoStatus(status)
	return t, nil
}
