// Package listing holds the pagination and sorting parameters shared by list endpoints.
package listing

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 100000
)

type Params struct {
	Page     int
	PageSize int
}

// Normalize clamps Page to [1, MaxPage] and PageSize to [1, MaxPageSize].
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

func (p Params) Limit() int { return p.Normalize().PageSize }

type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

func NewPage[T any](items []T, p Params, total int) Page[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: p.Page, PageSize: p.PageSize, Total: total}
}

// Direction returns the SQL keyword for an order query value, DESC only for "desc".
func Direction(order string) string {
	if order == "desc" {
		return "DESC"
	}
	return "ASC"
}
