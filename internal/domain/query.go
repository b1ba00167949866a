package domain

import "time"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortField names a sortable todo column.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByTitle     SortField = "title"
)

// SortOrder is ASC or DESC.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// TodoQuery is a validated list request. Zero values mean "not supplied".
type TodoQuery struct {
	Page      int
	Limit     int
	Search    string
	Status    TodoStatus
	SortBy    SortField
	SortOrder SortOrder
	StartDate *time.Time
	EndDate   *time.Time
}

// Normalize fills defaults and clamps paging into its allowed range.
func (q TodoQuery) Normalize() TodoQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	switch q.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByTitle:
	default:
		q.SortBy = SortByCreatedAt
	}
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}
	return q
}

// Offset is the number of rows skipped before the requested page.
// Callers check PastEnd first; a page beyond the last one can overflow.
func (q TodoQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// PastEnd reports whether the requested page starts beyond total rows.
// It compares page numbers, so any page that fits in an int is safe.
func (q TodoQuery) PastEnd(total int) bool {
	if total <= 0 || q.Limit < 1 {
		return true
	}
	return q.Page > (total+q.Limit-1)/q.Limit
}

// TodoPage is one page of a list query plus the unpaginated match count.
type TodoPage struct {
	Items      []Todo
	TotalCount int
}
