package kernel

// PaginationOptions carries page-based pagination parameters
type PaginationOptions struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the options into valid ranges
func (p PaginationOptions) Normalize() PaginationOptions {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the SQL offset for the current page
func (p PaginationOptions) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Limit returns the SQL limit for the current page
func (p PaginationOptions) Limit() int {
	return p.Normalize().PageSize
}

// PageInfo describes the page a result set belongs to
type PageInfo struct {
	Number int `json:"number"`
	Size   int `json:"size"`
	Total  int `json:"total"`
}

// Paginated wraps a page of items with its page info
type Paginated[T any] struct {
	Items []T      `json:"items"`
	Page  PageInfo `json:"page"`
}

// NewPaginated builds a Paginated result
func NewPaginated[T any](items []T, page, pageSize, total int) Paginated[T] {
	return Paginated[T]{
		Items: items,
		Page: PageInfo{
			Number: page,
			Size:   pageSize,
			Total:  total,
		},
	}
}

// TotalPages returns the number of pages in the full result set
func (p Paginated[T]) TotalPages() int {
	if p.Page.Size <= 0 {
		return 0
	}
	pages := p.Page.Total / p.Page.Size
	if p.Page.Total%p.Page.Size != 0 {
		pages++
	}
	return pages
}

// HasNext reports whether another page exists after this one
func (p Paginated[T]) HasNext() bool {
	return p.Page.Number < p.TotalPages()
}
