package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"

	"github.com/google/uuid"
)

// SQLiteTodoRepo implements TodoRepo over SQLite. Timestamps are stored as
// unix milliseconds.
type SQLiteTodoRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteTodoRepo(db *sql.DB) *SQLiteTodoRepo {
	return &SQLiteTodoRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the timestamp source.
func (r *SQLiteTodoRepo) WithClock(now func() time.Time) *SQLiteTodoRepo {
	r.now = now
	return r
}

func (r *SQLiteTodoRepo) stamp() time.Time {
	return fromMillis(toMillis(r.now()))
}

func (r *SQLiteTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	now := r.stamp()
	t.CreatedAt, t.UpdatedAt, t.DeletedAt = now, now, nil
	st := insertStatement(sqliteDialect, t)
	if _, err := r.db.ExecContext(ctx, st.sql, st.args...); err != nil {
		return dom.Todo{}, err
	}
	return t, nil
}

func (r *SQLiteTodoRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (dom.Todo, error) {
	st := getStatement(sqliteDialect, userID, id)
	return scanSQLiteTodo(r.db.QueryRowContext(ctx, st.sql, st.args...))
}

func (r *SQLiteTodoRepo) List(ctx context.Context, userID uuid.UUID, q dom.TodoQuery) (dom.TodoPage, error) {
	q = q.Normalize()
	count, page := listStatements(sqliteDialect, userID, q)

	var total int
	if err := r.db.QueryRowContext(ctx, count.sql, count.args...).Scan(&total); err != nil {
		return dom.TodoPage{}, fmt.Errorf("count todos: %w", err)
	}
	out := dom.TodoPage{Items: []dom.Todo{}, TotalCount: total}
	if q.PastEnd(total) {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, page.sql, page.args...)
	if err != nil {
		return dom.TodoPage{}, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanSQLiteTodo(rows)
		if err != nil {
			return dom.TodoPage{}, err
		}
		out.Items = append(out.Items, t)
	}
	return out, rows.Err()
}

func (r *SQLiteTodoRepo) Update(ctx context.Context, userID uuid.UUID, t dom.Todo) (dom.Todo, error) {
	st := updateStatement(sqliteDialect, userID, t, r.stamp())
	res, err := r.db.ExecContext(ctx, st.sql, st.args...)
	if err != nil {
		return dom.Todo{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return dom.Todo{}, err
	} else if n == 0 {
		return dom.Todo{}, ErrNotFound
	}
	return r.GetByID(ctx, userID, t.ID)
}

func (r *SQLiteTodoRepo) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	st := softDeleteStatement(sqliteDialect, userID, id, r.stamp())
	res, err := r.db.ExecContext(ctx, st.sql, st.args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTodo(row rowScanner) (dom.Todo, error) {
	var (
		t                    dom.Todo
		status               string
		desc                 sql.NullString
		createdAt, updatedAt int64
		deletedAt            sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &desc, &status, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	t.Status = dom.TodoStatus(status)
	if desc.Valid {
		d := desc.String
		t.Description = &d
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	if deletedAt.Valid {
		d := fromMillis(deletedAt.Int64)
		t.DeletedAt = &d
	}
	return t, nil
}
