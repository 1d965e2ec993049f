package pagination

import (
	"net/http"
	"strconv"
)

// MaxPerPage caps per_page.
const MaxPerPage = 100

// Params holds optional page/per_page query parameters. PerPage 0 means
// the caller asked for everything.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// FromRequest reads page and per_page from the query string. Invalid values
// are ignored.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1}
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, MaxPerPage)
	}
	return p
}

// Result is one page of items.
type Result[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// Paginate cuts the requested page out of items, which keep their order.
func Paginate[T any](items []T, p Params) Result[T] {
	total := len(items)
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		return Result[T]{Items: items, TotalCount: total, Page: 1, PerPage: total, TotalPages: 1}
	}

	pages := (total + p.PerPage - 1) / p.PerPage
	start := min((p.Page-1)*p.PerPage, total)
	end := min(start+p.PerPage, total)

	return Result[T]{
		Items:      items[start:end],
		TotalCount: total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: pages,
		HasNext:    p.Page < pages,
	}
}
