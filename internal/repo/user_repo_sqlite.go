package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"

	"github.com/google/uuid"
)

// SQLiteUserRepo implements UserRepo with SQLite.
type SQLiteUserRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteUserRepo(db *sql.DB) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *SQLiteUserRepo) GetByEmail(ctx context.Context, email string) (dom.User, error) {
	return scanSQLiteUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?1`, email))
}

func (r *SQLiteUserRepo) GetByID(ctx context.Context, id uuid.UUID) (dom.User, error) {
	return scanSQLiteUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?1`, id))
}

func (r *SQLiteUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := fromMillis(toMillis(r.now()))
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?1, ?2, ?3, ?4, ?5, ?6)`,
		u.ID, u.Email, u.PasswordHash, u.Name, toMillis(now), toMillis(now))
	if err != nil {
		return dom.User{}, err
	}
	return u, nil
}

func scanSQLiteUser(row rowScanner) (dom.User, error) {
	var (
		u                    dom.User
		name                 sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dom.User{}, ErrNotFound
		}
		return dom.User{}, err
	}
	if name.Valid {
		n := name.String
		u.Name = &n
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}
