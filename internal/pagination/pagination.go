// Package pagination provides the page request/result types shared by list
// endpoints across the academic contexts.
package pagination

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is a normalized page selector. Build it with NewPageRequest so
// out-of-range values are clamped rather than rejected.
type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest clamps page and pageSize to sane bounds.
func NewPageRequest(page, pageSize int) PageRequest {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return PageRequest{Page: page, PageSize: pageSize}
}

// Offset returns the row offset for the request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the row limit for the request.
func (p PageRequest) Limit() int {
	return p.PageSize
}

// PageResult is one page of items plus the totals needed to render paging
// controls.
type PageResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalItems int64
	TotalPages int
}

// NewPageResult assembles a result page, deriving TotalPages from the totals.
func NewPageResult[T any](items []T, req PageRequest, totalItems int64) PageResult[T] {
	totalPages := int(totalItems) / req.PageSize
	if int(totalItems)%req.PageSize != 0 {
		totalPages++
	}
	return PageResult[T]{
		Items:      items,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// HasNext reports whether a later page exists.
func (r PageResult[T]) HasNext() bool {
	return r.Page < r.TotalPages
}

// HasPrev reports whether an earlier page exists.
func (r PageResult[T]) HasPrev() bool {
	return r.Page > 1
}
