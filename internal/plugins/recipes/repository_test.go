package recipes

import (
	"reflect"
	"strings"
	"testing"
)

func TestFilterClause(t *testing.T) {
	cases := []struct {
		name     string
		filter   ListFilter
		contains []string
		exists   int
		args     []any
	}{
		{
			name:   "no filter",
			filter: ListFilter{},
		},
		{
			name:     "two slugs share one subquery",
			filter:   ListFilter{TagSlugs: []string{"breakfast", "dinner"}},
			contains: []string{"t.slug IN (?,?)"},
			exists:   1,
			args:     []any{"breakfast", "dinner"},
		},
		{
			name:     "slug and author",
			filter:   ListFilter{TagSlugs: []string{"lunch"}, AuthorID: 7},
			contains: []string{"t.slug IN (?)", ") AND r.author_id = ?"},
			exists:   1,
			args:     []any{"lunch", int64(7)},
		},
		{
			name:     "favorited",
			filter:   ListFilter{FavoritedBy: 3},
			contains: []string{"FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?"},
			exists:   1,
			args:     []any{int64(3)},
		},
		{
			name:     "in cart",
			filter:   ListFilter{InCartOf: 3},
			contains: []string{"FROM shopping_cart sc WHERE sc.recipe_id = r.id AND sc.user_id = ?"},
			exists:   1,
			args:     []any{int64(3)},
		},
		{
			name: "everything",
			filter: ListFilter{
				TagSlugs:    []string{"breakfast", "dinner"},
				AuthorID:    2,
				FavoritedBy: 3,
				InCartOf:    3,
			},
			contains: []string{"t.slug IN (?,?)", "r.author_id = ?", "FROM favorites", "FROM shopping_cart"},
			exists:   3,
			args:     []any{"breakfast", "dinner", int64(2), int64(3), int64(3)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			where, args := filterClause(tc.filter)

			if tc.exists == 0 && len(tc.contains) == 0 {
				if where != "" || args != nil {
					t.Fatalf("expected no clause, got %q %v", where, args)
				}
				return
			}
			if !strings.HasPrefix(where, " WHERE ") {
				t.Errorf("expected WHERE prefix, got %q", where)
			}
			for _, frag := range tc.contains {
				if !strings.Contains(where, frag) {
					t.Errorf("expected %q in %q", frag, where)
				}
			}
			if got := strings.Count(where, "EXISTS"); got != tc.exists {
				t.Errorf("expected %d EXISTS subqueries, got %d in %q", tc.exists, got, where)
			}
			if !reflect.DeepEqual(args, tc.args) {
				t.Errorf("args = %#v, want %#v", args, tc.args)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "?,?,?" {
		t.Errorf("placeholders(3) = %q", got)
	}
	if got := valueRows(2, 3); got != "(?,?,?),(?,?,?)" {
		t.Errorf("valueRows(2, 3) = %q", got)
	}
}
