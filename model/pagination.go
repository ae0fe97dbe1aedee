package model

import "Musga/errs"

// Page carries validated pagination parameters.
type Page struct {
	Number int
	Size   int
}

// NewPage validates pagination input: page >= 1, 1 <= size <= 100.
func NewPage(number, size int) (Page, error) {
	if number < 1 {
		return Page{}, errs.E(errs.InvalidArgument, "page must be >= 1")
	}
	if size < 1 || size > 100 {
		return Page{}, errs.E(errs.InvalidArgument, "limit must be between 1 and 100")
	}
	return Page{Number: number, Size: size}, nil
}

// Offset is the row offset for SQL LIMIT/OFFSET queries.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages computes ceil(total/size).
func (p Page) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// Paginated is the response envelope for every list endpoint.
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginated assembles the envelope from a page of items and the total count.
func NewPaginated[T any](items []T, total int64, page Page) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{
		Data:       items,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Size,
		TotalPages: page.TotalPages(total),
	}
}
