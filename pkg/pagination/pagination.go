package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings. When
// neither page nor per_page is supplied, Enabled is false and callers
// return the full collection.
type Params struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Offset  int  `json:"-"`
	Enabled bool `json:"-"`
}

// DefaultParams returns the parameters used when paging is requested
// without explicit values.
func DefaultParams() Params {
	return Params{
		Page:    1,
		PerPage: defaultPerPage,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Invalid values fall back to defaults rather than failing the request.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		p.Enabled = true
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if perPage := q.Get("per_page"); perPage != "" {
		p.Enabled = true
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= maxPerPage {
			p.PerPage = v
		}
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Apply returns the page of items selected by p, or items unchanged when
// paging is not enabled.
func Apply[T any](items []T, p Params) []T {
	if !p.Enabled {
		return items
	}
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
