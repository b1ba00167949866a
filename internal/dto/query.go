package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
)

var dateLayouts = []string{
	"2006-01-02", // date only, midnight UTC
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// ParseDate accepts a date (YYYY-MM-DD) or an RFC3339 datetime. Values without
// a zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Query converts validated query parameters to a normalized domain query.
func (q ListTodosQuery) Query() dom.TodoQuery {
	out := dom.TodoQuery{
		Search:    q.Search,
		Status:    dom.TodoStatus(q.Status),
		SortBy:    dom.SortField(q.SortBy),
		SortOrder: dom.SortOrder(strings.ToUpper(q.SortOrder)),
	}
	out.Page, _ = strconv.Atoi(q.Page)
	out.Limit, _ = strconv.Atoi(q.Limit)
	if t, err := ParseDate(q.StartDate); q.StartDate != "" && err == nil {
		out.StartDate = &t
	}
	if t, err := ParseDate(q.EndDate); q.EndDate != "" && err == nil {
		out.EndDate = &t
	}
	return out.Normalize()
}
