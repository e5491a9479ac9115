package tags

import (
	"context"
	"errors"
	"testing"

	"github.com/foodgram/foodgram/internal/apperror"
)

// --- Mock Repository ---

// mockTagRepo implements TagRepository for testing.
type mockTagRepo struct {
	createFn        func(ctx context.Context, tag *Tag) error
	findByIDFn      func(ctx context.Context, id int64) (*Tag, error)
	listFn          func(ctx context.Context) ([]Tag, error)
	findByIDsFn     func(ctx context.Context, ids []int64) ([]Tag, error)
	listByRecipesFn func(ctx context.Context, recipeIDs []int64) (map[int64][]Tag, error)
}

func (m *mockTagRepo) Create(ctx context.Context, tag *Tag) error {
	if m.createFn != nil {
		return m.createFn(ctx, tag)
	}
	tag.ID = 1
	return nil
}

func (m *mockTagRepo) FindByID(ctx context.Context, id int64) (*Tag, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("Not found.")
}

func (m *mockTagRepo) List(ctx context.Context) ([]Tag, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockTagRepo) FindByIDs(ctx context.Context, ids []int64) ([]Tag, error) {
	if m.findByIDsFn != nil {
		return m.findByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockTagRepo) ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]Tag, error) {
	if m.listByRecipesFn != nil {
		return m.listByRecipesFn(ctx, recipeIDs)
	}
	return map[int64][]Tag{}, nil
}

// --- Test Helpers ---

func assertAppError(t *testing.T, err error, expectedCode int) *apperror.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
	return appErr
}

// --- Tests ---

func TestCreate_DerivesSlugAndNormalizesColor(t *testing.T) {
	var stored *Tag
	svc := NewTagService(&mockTagRepo{
		createFn: func(_ context.Context, tag *Tag) error {
			tag.ID = 3
			stored = tag
			return nil
		},
	})

	tag, err := svc.Create(context.Background(), CreateTagRequest{Name: "  Late Breakfast ", Color: "#ABCDEF"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || tag.ID != 3 {
		t.Fatal("expected tag to be stored")
	}
	if tag.Slug != "late-breakfast" {
		t.Errorf("expected derived slug, got %q", tag.Slug)
	}
	if tag.Color != "#abcdef" {
		t.Errorf("expected lowercase color, got %q", tag.Color)
	}
	if tag.Name != "Late Breakfast" {
		t.Errorf("expected trimmed name, got %q", tag.Name)
	}
}

func TestCreate_InvalidSlug(t *testing.T) {
	svc := NewTagService(&mockTagRepo{})

	_, err := svc.Create(context.Background(), CreateTagRequest{Name: "Lunch", Color: "#fff", Slug: "not a slug!"})
	appErr := assertAppError(t, err, 400)
	if len(appErr.Fields["slug"]) == 0 {
		t.Errorf("expected slug field error, got %v", appErr.Fields)
	}
}

func TestCreate_DuplicatePassesFieldError(t *testing.T) {
	svc := NewTagService(&mockTagRepo{
		createFn: func(context.Context, *Tag) error {
			return apperror.NewFieldError("color", "Tag with this color already exists.")
		},
	})

	_, err := svc.Create(context.Background(), CreateTagRequest{Name: "Lunch", Color: "#fff"})
	appErr := assertAppError(t, err, 400)
	if len(appErr.Fields["color"]) == 0 {
		t.Errorf("expected color field error, got %v", appErr.Fields)
	}
}

func TestCreate_StoreFailureIsInternal(t *testing.T) {
	svc := NewTagService(&mockTagRepo{
		createFn: func(context.Context, *Tag) error { return errors.New("connection reset") },
	})

	_, err := svc.Create(context.Background(), CreateTagRequest{Name: "Lunch", Color: "#fff"})
	assertAppError(t, err, 500)
}

func TestResolve(t *testing.T) {
	svc := NewTagService(&mockTagRepo{
		findByIDsFn: func(_ context.Context, ids []int64) ([]Tag, error) {
			return []Tag{{ID: 1, Slug: "breakfast"}, {ID: 2, Slug: "lunch"}}, nil
		},
	})

	tags, err := svc.Resolve(context.Background(), []int64{2, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 2 || tags[0].ID != 2 || tags[1].ID != 1 {
		t.Errorf("expected tags in request order, got %+v", tags)
	}

	_, err = svc.Resolve(context.Background(), []int64{1, 9})
	appErr := assertAppError(t, err, 400)
	if len(appErr.Fields["tags"]) == 0 {
		t.Errorf("expected tags field error, got %v", appErr.Fields)
	}
}

func TestList_NeverNil(t *testing.T) {
	svc := NewTagService(&mockTagRepo{})

	tags, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tags == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Breakfast":        "breakfast",
		"  Late  Dinner! ": "late-dinner",
		"???":              "tag",
	}
	for in, want := range cases {
		if got := generateSlug(in); got != want {
			t.Errorf("generateSlug(%q) = %q, want %q", in, got, want)
		}
	}
}
