// Package pagination implements page-number pagination for list endpoints.
// Clients pass ?page=N&limit=M and receive {count, next, previous, results}
// where next/previous are absolute URLs or null.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/config"
)

// ListOptions holds pagination parameters for list queries.
type ListOptions struct {
	Page    int
	PerPage int
}

// Offset returns the SQL OFFSET value for the current page.
func (o ListOptions) Offset() int {
	if o.Page < 1 {
		o.Page = 1
	}
	return (o.Page - 1) * o.PerPage
}

// FromQuery reads "page" and "limit" from query parameters. A missing page
// is page 1; a non-numeric or non-positive page is an invalid page (404).
// A missing or invalid limit falls back to the configured page size and a
// limit above the maximum is capped.
func FromQuery(q url.Values, cfg config.PaginationConfig) (ListOptions, error) {
	opts := ListOptions{Page: 1, PerPage: cfg.PageSize}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return opts, apperror.NewNotFound("Invalid page.")
		}
		opts.Page = page
	}

	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			opts.PerPage = min(limit, cfg.MaxPageSize)
		}
	}

	return opts, nil
}

// Page is one page of results in the wire format.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds a page of results. requestURL is the absolute URL of the
// current request; next/previous keep its query and swap the page number.
// Asking for a page past the last one (other than page 1) is an invalid page.
func NewPage[T any](results []T, total int, opts ListOptions, requestURL *url.URL) (Page[T], error) {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: total, Results: results}

	lastPage := 1
	if opts.PerPage > 0 && total > 0 {
		lastPage = (total + opts.PerPage - 1) / opts.PerPage
	}
	if opts.Page > lastPage {
		return page, apperror.NewNotFound("Invalid page.")
	}

	if opts.Page < lastPage {
		page.Next = pageURL(requestURL, opts.Page+1)
	}
	if opts.Page > 1 {
		page.Previous = pageURL(requestURL, opts.Page-1)
	}
	return page, nil
}

// pageURL returns requestURL with the page parameter set to n. Page 1 drops
// the parameter entirely.
func pageURL(requestURL *url.URL, n int) *string {
	if requestURL == nil {
		return nil
	}
	u := *requestURL
	q := u.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// AbsoluteURL resolves a request's path and query against the public base
// URL (e.g. "https://foodgram.example"), which is what next/previous links
// must point at when the server sits behind a proxy.
func AbsoluteURL(baseURL string, r *http.Request) *url.URL {
	u, err := url.Parse(baseURL)
	if err != nil {
		u = &url.URL{}
	}
	u.Path = strings.TrimRight(u.Path, "/") + r.URL.Path
	u.RawPath = ""
	u.RawQuery = r.URL.RawQuery
	return u
}
