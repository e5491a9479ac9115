package tags

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/foodgram/foodgram/internal/apperror"
)

// slugPattern matches one or more non-alphanumeric characters for slug generation.
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// validSlug is the accepted shape of a client-supplied slug.
var validSlug = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// TagService defines the business logic contract for tag operations.
// Handlers call these methods -- they never touch the repository directly.
type TagService interface {
	// Create validates input and creates a new tag. Admin only.
	Create(ctx context.Context, req CreateTagRequest) (*Tag, error)

	GetByID(ctx context.Context, id int64) (*Tag, error)
	List(ctx context.Context) ([]Tag, error)

	// Resolve returns the tags for ids in the order given, failing with a
	// field error on "tags" if any id is unknown.
	Resolve(ctx context.Context, ids []int64) ([]Tag, error)

	// ListByRecipes returns tags keyed by recipe ID.
	ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]Tag, error)
}

// tagService implements TagService with validation and slug generation.
type tagService struct {
	repo TagRepository
}

// NewTagService creates a new TagService backed by the given repository.
func NewTagService(repo TagRepository) TagService {
	return &tagService{repo: repo}
}

// Create normalizes the tag and persists it. The color is stored lowercase
// so "#FFF" and "#fff" collide on the unique key.
func (s *tagService) Create(ctx context.Context, req CreateTagRequest) (*Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.NewFieldError("name", "This field may not be blank.")
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = generateSlug(name)
	} else if !validSlug.MatchString(slug) {
		return nil, apperror.NewFieldError("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}

	tag := &Tag{
		Name:  name,
		Color: strings.ToLower(strings.TrimSpace(req.Color)),
		Slug:  slug,
	}

	if err := s.repo.Create(ctx, tag); err != nil {
		if apperror.Is(err, apperror.TypeValidation) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}

	return tag, nil
}

// GetByID retrieves a single tag by its primary key.
func (s *tagService) GetByID(ctx context.Context, id int64) (*Tag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil && !apperror.Is(err, apperror.TypeNotFound) {
		return nil, apperror.NewInternal(err)
	}
	return tag, err
}

// List returns all tags.
func (s *tagService) List(ctx context.Context) ([]Tag, error) {
	tags, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if tags == nil {
		tags = []Tag{}
	}
	return tags, nil
}

func (s *tagService) Resolve(ctx context.Context, ids []int64) ([]Tag, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	byID := make(map[int64]Tag, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	tags := make([]Tag, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, apperror.NewFieldError("tags", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func (s *tagService) ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]Tag, error) {
	byRecipe, err := s.repo.ListByRecipes(ctx, recipeIDs)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return byRecipe, nil
}

// generateSlug creates a URL-safe slug from a tag name. Converts to lowercase,
// replaces sequences of non-alphanumeric characters with a single hyphen, and
// trims leading/trailing hyphens.
func generateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "tag"
	}
	return slug
}
