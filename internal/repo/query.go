package repo

import (
	"strconv"
	"strings"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"

	"github.com/google/uuid"
)

const todoColumns = "id, user_id, title, description, status, created_at, updated_at, deleted_at"

// dialect holds the SQL differences between the Postgres and SQLite stores.
type dialect struct {
	placeholder func(n int) string
	like        string
	timeArg     func(time.Time) any
}

var pgDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	like:        "ILIKE",
	timeArg:     func(t time.Time) any { return t },
}

// SQLite LIKE is already case-insensitive for ASCII. Numbered placeholders let
// one argument be referenced twice, as with $n on Postgres.
var sqliteDialect = dialect{
	placeholder: func(n int) string { return "?" + strconv.Itoa(n) },
	like:        "LIKE",
	timeArg:     func(t time.Time) any { return toMillis(t) },
}

// args accumulates positional arguments and hands out their placeholders.
type args struct {
	d    dialect
	vals []any
}

func newArgs(d dialect) *args { return &args{d: d} }

func (a *args) add(v any) string {
	a.vals = append(a.vals, v)
	return a.d.placeholder(len(a.vals))
}

func (a *args) time(t time.Time) string { return a.add(a.d.timeArg(t)) }

// ownerScope restricts a todo statement to the caller's live rows. Every todo
// read and write builds its WHERE clause from here.
func ownerScope(a *args, userID uuid.UUID) string {
	return "user_id = " + a.add(userID) + " AND deleted_at IS NULL"
}

// todoByID matches one live todo of the caller.
func todoByID(a *args, userID, id uuid.UUID) string {
	return "id = " + a.add(id) + " AND " + ownerScope(a, userID)
}

// todoFilter is the WHERE body of a list query.
func todoFilter(a *args, userID uuid.UUID, q dom.TodoQuery) string {
	conds := []string{ownerScope(a, userID)}
	if q.Status != "" {
		conds = append(conds, "status = "+a.add(string(q.Status)))
	}
	if q.StartDate != nil {
		conds = append(conds, "created_at >= "+a.time(*q.StartDate))
	}
	if q.EndDate != nil {
		conds = append(conds, "created_at <= "+a.time(*q.EndDate))
	}
	if q.Search != "" {
		p := a.add("%" + escapeLike(q.Search) + "%")
		conds = append(conds, "(title "+a.d.like+" "+p+` ESCAPE '\' OR description `+a.d.like+" "+p+` ESCAPE '\')`)
	}
	return strings.Join(conds, " AND ")
}

var sortColumns = map[dom.SortField]string{
	dom.SortByCreatedAt: "created_at",
	dom.SortByUpdatedAt: "updated_at",
	dom.SortByTitle:     "title",
}

// orderClause sorts by the requested column; id breaks ties so pages are stable.
func orderClause(q dom.TodoQuery) string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if q.SortOrder == dom.SortAsc {
		dir = "ASC"
	}
	return "ORDER BY " + col + " " + dir + ", id " + dir
}

type statement struct {
	sql  string
	args []any
}

// listStatements returns the count query and the page query for q.
// q must already be normalized.
func listStatements(d dialect, userID uuid.UUID, q dom.TodoQuery) (count, page statement) {
	a := newArgs(d)
	where := todoFilter(a, userID, q)
	count = statement{
		sql:  "SELECT COUNT(*) FROM todos WHERE " + where,
		args: append([]any(nil), a.vals...),
	}
	limit := a.add(q.Limit)
	offset := a.add(q.Offset())
	page = statement{
		sql:  "SELECT " + todoColumns + " FROM todos WHERE " + where + " " + orderClause(q) + " LIMIT " + limit + " OFFSET " + offset,
		args: a.vals,
	}
	return count, page
}

func getStatement(d dialect, userID, id uuid.UUID) statement {
	a := newArgs(d)
	where := todoByID(a, userID, id)
	return statement{sql: "SELECT " + todoColumns + " FROM todos WHERE " + where, args: a.vals}
}

// updateStatement rewrites the mutable fields of t. Callers append RETURNING if supported.
func updateStatement(d dialect, userID uuid.UUID, t dom.Todo, now time.Time) statement {
	a := newArgs(d)
	set := "title = " + a.add(t.Title) +
		", description = " + a.add(t.Description) +
		", status = " + a.add(string(t.Status)) +
		", updated_at = " + a.time(now)
	where := todoByID(a, userID, t.ID)
	return statement{sql: "UPDATE todos SET " + set + " WHERE " + where, args: a.vals}
}

func softDeleteStatement(d dialect, userID, id uuid.UUID, now time.Time) statement {
	a := newArgs(d)
	ts := a.time(now)
	where := todoByID(a, userID, id)
	return statement{sql: "UPDATE todos SET deleted_at = " + ts + ", updated_at = " + ts + " WHERE " + where, args: a.vals}
}

func insertStatement(d dialect, t dom.Todo) statement {
	a := newArgs(d)
	vals := []string{
		a.add(t.ID), a.add(t.UserID), a.add(t.Title), a.add(t.Description),
		a.add(string(t.Status)), a.time(t.CreatedAt), a.time(t.UpdatedAt),
	}
	return statement{
		sql:  "INSERT INTO todos (id, user_id, title, description, status, created_at, updated_at) VALUES (" + strings.Join(vals, ", ") + ")",
		args: a.vals,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }
