package recipes

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/plugins/auth"
)

type stubUsers struct {
	user *auth.User
}

func (s stubUsers) GetByID(_ context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, apperror.NewNotFound("Not found.")
	}
	return s.user, nil
}

func newListService(items []ShoppingItem, now time.Time) *shoppingListService {
	repo := &mockRecipeRepo{
		shoppingListFn: func(context.Context, int64) ([]ShoppingItem, error) {
			return items, nil
		},
	}
	svc := NewShoppingListService(repo, stubUsers{user: &auth.User{
		ID: 7, Username: "chef", FirstName: "Julia", LastName: "Child",
	}}).(*shoppingListService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestBuild_RendersAggregatedLines(t *testing.T) {
	items := []ShoppingItem{
		{Name: "flour", MeasurementUnit: "g", Amount: 700},
		{Name: "milk", MeasurementUnit: "ml", Amount: 250},
		{Name: "salt", MeasurementUnit: "pinch", Amount: 2},
	}
	svc := newListService(items, time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC))

	list, err := svc.Build(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Shopping list for Julia Child\n" +
		"Date: 2026-10-17\n\n" +
		"• flour - 700 (g)\n" +
		"• milk - 250 (ml)\n" +
		"• salt - 2 (pinch)\n"
	if string(list.Content) != want {
		t.Errorf("unexpected content:\n%s\nwant:\n%s", list.Content, want)
	}
	if list.Filename != "chef_shopping_list.txt" {
		t.Errorf("unexpected filename %q", list.Filename)
	}
}

func TestBuild_EmptyCart(t *testing.T) {
	svc := newListService(nil, time.Now())

	_, err := svc.Build(context.Background(), 7)
	appErr := assertAppError(t, err, 400)
	if appErr.Message != msgEmptyCart {
		t.Errorf("expected empty cart message, got %q", appErr.Message)
	}
}

func TestBuild_StableExceptDateLine(t *testing.T) {
	items := []ShoppingItem{{Name: "egg", MeasurementUnit: "pcs", Amount: 3}}
	first, err := newListService(items, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).Build(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	second, err := newListService(items, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)).Build(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}

	a := bytes.Split(first.Content, []byte("\n"))
	b := bytes.Split(second.Content, []byte("\n"))
	if len(a) != len(b) {
		t.Fatalf("line counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if i == 1 {
			continue
		}
		if !bytes.Equal(a[i], b[i]) {
			t.Errorf("line %d differs: %q vs %q", i, a[i], b[i])
		}
	}
	if bytes.Equal(a[1], b[1]) {
		t.Error("expected date lines to differ")
	}
}

func TestBuild_UnknownUser(t *testing.T) {
	svc := newListService([]ShoppingItem{{Name: "egg", MeasurementUnit: "pcs", Amount: 1}}, time.Now())
	_, err := svc.Build(context.Background(), 99)
	assertAppError(t, err, 404)
}
