package pagination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/config"
)

var testCfg = config.PaginationConfig{PageSize: 6, MaxPageSize: 20}

func TestFromQuery(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		wantPage int
		wantPer  int
		wantErr  bool
	}{
		{"defaults", "", 1, 6, false},
		{"explicit", "page=3&limit=10", 3, 10, false},
		{"limit capped", "limit=500", 1, 20, false},
		{"bad limit ignored", "limit=abc", 1, 6, false},
		{"zero limit ignored", "limit=0", 1, 6, false},
		{"bad page", "page=abc", 0, 0, true},
		{"zero page", "page=0", 0, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tc.query)
			opts, err := FromQuery(q, testCfg)
			if tc.wantErr {
				if !apperror.Is(err, apperror.TypeNotFound) {
					t.Fatalf("expected not found, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.Page != tc.wantPage || opts.PerPage != tc.wantPer {
				t.Errorf("got page=%d per=%d, want page=%d per=%d", opts.Page, opts.PerPage, tc.wantPage, tc.wantPer)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (ListOptions{Page: 3, PerPage: 6}).Offset(); got != 12 {
		t.Errorf("expected offset 12, got %d", got)
	}
	if got := (ListOptions{Page: 0, PerPage: 6}).Offset(); got != 0 {
		t.Errorf("expected offset 0, got %d", got)
	}
}

func TestNewPage_Links(t *testing.T) {
	u, _ := url.Parse("http://localhost:8080/api/recipes?page=2&tags=breakfast&limit=2")

	page, err := NewPage([]int{3, 4}, 5, ListOptions{Page: 2, PerPage: 2}, u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Count != 5 {
		t.Errorf("expected count 5, got %d", page.Count)
	}
	if page.Next == nil || *page.Next != "http://localhost:8080/api/recipes?limit=2&page=3&tags=breakfast" {
		t.Errorf("unexpected next: %v", page.Next)
	}
	if page.Previous == nil || *page.Previous != "http://localhost:8080/api/recipes?limit=2&tags=breakfast" {
		t.Errorf("unexpected previous: %v", page.Previous)
	}
}

func TestNewPage_SinglePage(t *testing.T) {
	page, err := NewPage[int](nil, 0, ListOptions{Page: 1, PerPage: 6}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Next != nil || page.Previous != nil {
		t.Error("expected no links on a single page")
	}
	if page.Results == nil {
		t.Error("results must serialize as [] not null")
	}
}

func TestNewPage_PastLastPage(t *testing.T) {
	_, err := NewPage([]int{}, 3, ListOptions{Page: 4, PerPage: 2}, nil)
	if !apperror.Is(err, apperror.TypeNotFound) {
		t.Fatalf("expected invalid page, got %v", err)
	}
}

func TestAbsoluteURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/users?limit=2", nil)

	u := AbsoluteURL("https://foodgram.example", r)
	if got := u.String(); got != "https://foodgram.example/api/users?limit=2" {
		t.Errorf("unexpected url %q", got)
	}
}
