// Package paging parses page/limit query parameters and builds pagination
// metadata for list responses.
package paging

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the page size used when the caller does not specify one.
const DefaultLimit = 20

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// Page holds the parsed pagination inputs for a list query.
type Page struct {
	Number int // 1-based
	Limit  int
}

// Skip returns the number of documents to skip for this page.
func (p Page) Skip() int64 { return int64((p.Number - 1) * p.Limit) }

// Parse extracts "page" and "limit" from the request query, applying
// defaults and bounds. Invalid values fall back to defaults.
func Parse(r *http.Request) Page {
	p := Page{Number: 1, Limit: DefaultLimit}

	if s := r.URL.Query().Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Number = n
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			if n > MaxLimit {
				n = MaxLimit
			}
			p.Limit = n
		}
	}
	return p
}

// Meta is the pagination block returned alongside list items.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// MetaFor computes pagination metadata for a total document count.
func MetaFor(p Page, total int64) Meta {
	pages := (total + int64(p.Limit) - 1) / int64(p.Limit)
	if pages < 1 {
		pages = 1
	}
	return Meta{Page: p.Number, Limit: p.Limit, Total: total, Pages: pages}
}
