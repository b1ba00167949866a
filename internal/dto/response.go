package dto

import "math"

// Envelope wraps every JSON response.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	CurrentPage     int  `json:"currentPage"`
	Limit           int  `json:"limit"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPagination derives the page metadata for a list of total rows.
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{
		TotalCount:      total,
		TotalPages:      pages,
		CurrentPage:     page,
		Limit:           limit,
		HasNextPage:     page < pages,
		HasPreviousPage: page > 1,
	}
}

func OK(data any) Envelope { return Envelope{Success: true, Data: data} }

func Page(data any, p Pagination) Envelope {
	return Envelope{Success: true, Data: data, Pagination: &p}
}

func Fail(message string, details []FieldError) Envelope {
	return Envelope{Error: &ErrorBody{Message: message, Details: details}}
}

type MessageResponse struct {
	Message string `json:"message"`
}
