package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"-"`
	Offset int    `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:  1,
		Limit: defaultLimit,
	}
}

// FromRequest extracts page, limit, and search parameters from an HTTP request.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 && v <= maxLimit {
			p.Limit = v
		}
	}

	p.Search = r.URL.Query().Get("search")
	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// New computes a Pagination for the given params and total row count.
func New(params Params, total int) Pagination {
	totalPages := total / params.Limit
	if total%params.Limit > 0 {
		totalPages++
	}

	return Pagination{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
