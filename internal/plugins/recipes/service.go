package recipes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/metrics"
	"github.com/foodgram/foodgram/internal/pagination"
	"github.com/foodgram/foodgram/internal/plugins/auth"
	"github.com/foodgram/foodgram/internal/plugins/ingredients"
	"github.com/foodgram/foodgram/internal/plugins/media"
	"github.com/foodgram/foodgram/internal/sanitize"
	"github.com/foodgram/foodgram/internal/widgets/relations"
	"github.com/foodgram/foodgram/internal/widgets/tags"
)

// Validation messages clients key on.
const (
	msgNoTags              = "At least one tag is required."
	msgDuplicateTag        = "Tags must not repeat."
	msgNoIngredients       = "At least one ingredient is required."
	msgDuplicateIngredient = "Ingredients must not repeat."
	msgBadAmount           = "Ingredient amount must be at least 1."
	msgAmountTooLarge      = "Ingredient amount must be at most 2147483647."
	msgCookingTimeTooSmall = "Ensure this value is greater than or equal to 1."
	msgCookingTimeTooLarge = "Ensure this value is less than or equal to 2147483647."
	msgForbidden           = "You do not have permission to perform this action."
)

// TagResolver is the part of the tag service recipes depend on.
type TagResolver interface {
	Resolve(ctx context.Context, ids []int64) ([]tags.Tag, error)
	ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]tags.Tag, error)
}

// IngredientResolver is the part of the ingredient service recipes depend on.
type IngredientResolver interface {
	Resolve(ctx context.Context, ids []int64) (map[int64]ingredients.Ingredient, error)
}

// ProfileProjector projects authors for a viewer.
type ProfileProjector interface {
	Profiles(ctx context.Context, viewerID int64, users []auth.User) ([]auth.Profile, error)
}

// RecipeService defines the business logic contract for recipes.
// Handlers call these methods -- they never touch the repository directly.
type RecipeService interface {
	Create(ctx context.Context, actor Actor, req RecipeRequest) (*RecipeView, error)
	Update(ctx context.Context, actor Actor, id int64, req RecipeRequest) (*RecipeView, error)
	Delete(ctx context.Context, actor Actor, id int64) error

	Get(ctx context.Context, viewerID, id int64) (*RecipeView, error)
	List(ctx context.Context, viewerID int64, filter ListFilter, opts pagination.ListOptions) ([]RecipeView, int, error)

	// AddRelation and RemoveRelation toggle a favorite or shopping cart
	// entry for userID.
	AddRelation(ctx context.Context, kind relations.Kind, userID, recipeID int64) (*Summary, error)
	RemoveRelation(ctx context.Context, kind relations.Kind, userID, recipeID int64) error

	// AuthorPreviews returns recipe counts and newest-first previews capped
	// at limit (uncapped when limit is 0), keyed by author ID.
	AuthorPreviews(ctx context.Context, authorIDs []int64, limit int) (map[int64]AuthorRecipes, error)
}

type recipeService struct {
	repo        RecipeRepository
	tags        TagResolver
	ingredients IngredientResolver
	profiles    ProfileProjector
	images      media.ImageStore
	toggles     map[string]*relations.Toggle[Summary]
}

// NewRecipeService creates a new recipe service with the given dependencies.
func NewRecipeService(
	repo RecipeRepository,
	tagResolver TagResolver,
	ingredientResolver IngredientResolver,
	profiles ProfileProjector,
	rels relations.RelationRepository,
	images media.ImageStore,
) RecipeService {
	s := &recipeService{
		repo:        repo,
		tags:        tagResolver,
		ingredients: ingredientResolver,
		profiles:    profiles,
		images:      images,
	}
	s.toggles = map[string]*relations.Toggle[Summary]{
		relations.Favorite.Name:     relations.NewToggle[Summary](relations.Favorite, rels, s.summary, nil),
		relations.ShoppingCart.Name: relations.NewToggle[Summary](relations.ShoppingCart, rels, s.summary, nil),
	}
	return s
}

// Create validates the request, stores the image and writes the recipe with
// its tags and ingredients atomically.
func (s *recipeService) Create(ctx context.Context, actor Actor, req RecipeRequest) (*RecipeView, error) {
	if actor.UserID == 0 {
		return nil, apperror.NewMissingContext()
	}
	if strings.TrimSpace(req.Image) == "" {
		return nil, apperror.NewFieldError("image", "This field is required.")
	}
	recipe, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	recipe.AuthorID = actor.UserID

	image, err := s.images.SaveDataURL(ctx, req.Image)
	if err != nil {
		return nil, err
	}
	recipe.Image = image

	if err := s.repo.Create(ctx, recipe, req.Tags, req.Ingredients); err != nil {
		s.images.Delete(image)
		return nil, wrapStoreError(err)
	}

	metrics.RecordRecipeWrite(actionCreate)
	slog.Info("recipe created",
		slog.Int64("recipe_id", recipe.ID),
		slog.Int64("author_id", actor.UserID),
	)
	return s.Get(ctx, actor.UserID, recipe.ID)
}

// Update rewrites a recipe the actor owns (or any recipe for an admin).
// Without a new image the current one is kept; a replaced image is deleted
// once the transaction commits.
func (s *recipeService) Update(ctx context.Context, actor Actor, id int64, req RecipeRequest) (*RecipeView, error) {
	current, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	recipe, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	recipe.ID = id
	recipe.AuthorID = current.AuthorID
	recipe.Image = current.Image

	newImage := ""
	if strings.TrimSpace(req.Image) != "" {
		newImage, err = s.images.SaveDataURL(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		recipe.Image = newImage
	}

	if err := s.repo.Update(ctx, recipe, req.Tags, req.Ingredients); err != nil {
		if newImage != "" {
			s.images.Delete(newImage)
		}
		return nil, wrapStoreError(err)
	}
	if newImage != "" && current.Image != "" && current.Image != newImage {
		s.images.Delete(current.Image)
	}

	metrics.RecordRecipeWrite(actionUpdate)
	slog.Info("recipe updated", slog.Int64("recipe_id", id), slog.Int64("user_id", actor.UserID))
	return s.Get(ctx, actor.UserID, id)
}

func (s *recipeService) Delete(ctx context.Context, actor Actor, id int64) error {
	current, err := s.authorize(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapStoreError(err)
	}
	s.images.Delete(current.Image)

	metrics.RecordRecipeWrite(actionDelete)
	slog.Info("recipe deleted", slog.Int64("recipe_id", id), slog.Int64("user_id", actor.UserID))
	return nil
}

func (s *recipeService) Get(ctx context.Context, viewerID, id int64) (*RecipeView, error) {
	recipe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	views, err := s.assemble(ctx, viewerID, []Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns one page of recipe views. The favorited and in-cart filters
// are dropped for anonymous viewers rather than rejected.
func (s *recipeService) List(ctx context.Context, viewerID int64, filter ListFilter, opts pagination.ListOptions) ([]RecipeView, int, error) {
	if viewerID == 0 {
		filter.FavoritedBy = 0
		filter.InCartOf = 0
	}

	recipes, total, err := s.repo.List(ctx, filter, opts.PerPage, opts.Offset())
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	views, err := s.assemble(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *recipeService) AddRelation(ctx context.Context, kind relations.Kind, userID, recipeID int64) (*Summary, error) {
	toggle, err := s.toggle(kind)
	if err != nil {
		return nil, err
	}
	summary, err := toggle.Add(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *recipeService) RemoveRelation(ctx context.Context, kind relations.Kind, userID, recipeID int64) error {
	toggle, err := s.toggle(kind)
	if err != nil {
		return err
	}
	return toggle.Remove(ctx, userID, recipeID)
}

func (s *recipeService) AuthorPreviews(ctx context.Context, authorIDs []int64, limit int) (map[int64]AuthorRecipes, error) {
	counts, err := s.repo.CountByAuthors(ctx, authorIDs)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	previews, err := s.repo.PreviewByAuthors(ctx, authorIDs, limit)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	out := make(map[int64]AuthorRecipes, len(authorIDs))
	for _, authorID := range authorIDs {
		summaries := make([]Summary, 0, len(previews[authorID]))
		for i := range previews[authorID] {
			summaries = append(summaries, s.toSummary(&previews[authorID][i]))
		}
		out[authorID] = AuthorRecipes{Count: counts[authorID], Recipes: summaries}
	}
	return out, nil
}

func (s *recipeService) toggle(kind relations.Kind) (*relations.Toggle[Summary], error) {
	toggle, ok := s.toggles[kind.Name]
	if !ok {
		return nil, apperror.NewInternal(fmt.Errorf("no recipe toggle for relation kind %q", kind.Name))
	}
	return toggle, nil
}

// summary is the toggle lookup: it resolves a recipe id to its summary or
// NotFound.
func (s *recipeService) summary(ctx context.Context, recipeID int64) (Summary, error) {
	recipe, err := s.repo.FindByID(ctx, recipeID)
	if err != nil {
		return Summary{}, wrapStoreError(err)
	}
	return s.toSummary(recipe), nil
}

func (s *recipeService) toSummary(r *Recipe) Summary {
	return Summary{ID: r.ID, Name: r.Name, Image: s.images.URL(r.Image), CookingTime: r.CookingTime}
}

// authorize loads a recipe and checks the actor may change it.
func (s *recipeService) authorize(ctx context.Context, actor Actor, id int64) (*Recipe, error) {
	if actor.UserID == 0 {
		return nil, apperror.NewMissingContext()
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	if current.AuthorID != actor.UserID && !actor.IsAdmin {
		return nil, apperror.NewForbidden(msgForbidden)
	}
	return current, nil
}

// prepare checks the tag and ingredient lists and resolves their ids. The
// structural checks run first so an empty or repeated list is reported
// without touching the store.
func (s *recipeService) prepare(ctx context.Context, req RecipeRequest) (*Recipe, error) {
	fields := make(map[string][]string)

	if len(req.Tags) == 0 {
		fields["tags"] = append(fields["tags"], msgNoTags)
	} else if hasDuplicates(req.Tags) {
		fields["tags"] = append(fields["tags"], msgDuplicateTag)
	}

	if len(req.Ingredients) == 0 {
		fields["ingredients"] = append(fields["ingredients"], msgNoIngredients)
	} else {
		ids := make([]int64, len(req.Ingredients))
		for i, line := range req.Ingredients {
			ids[i] = line.ID
			switch {
			case line.Amount < 1:
				fields["ingredients"] = append(fields["ingredients"], msgBadAmount)
			case line.Amount > maxQuantity:
				fields["ingredients"] = append(fields["ingredients"], msgAmountTooLarge)
			}
		}
		if hasDuplicates(ids) {
			fields["ingredients"] = append(fields["ingredients"], msgDuplicateIngredient)
		}
	}

	switch {
	case req.CookingTime < 1:
		fields["cooking_time"] = append(fields["cooking_time"], msgCookingTimeTooSmall)
	case req.CookingTime > maxQuantity:
		fields["cooking_time"] = append(fields["cooking_time"], msgCookingTimeTooLarge)
	}

	name := sanitize.Text(req.Name)
	if name == "" {
		fields["name"] = append(fields["name"], "This field may not be blank.")
	}
	text := sanitize.Text(req.Text)
	if text == "" {
		fields["text"] = append(fields["text"], "This field may not be blank.")
	}

	if len(fields) > 0 {
		return nil, apperror.NewFieldErrors(fields)
	}

	if _, err := s.tags.Resolve(ctx, req.Tags); err != nil {
		return nil, err
	}
	ids := make([]int64, len(req.Ingredients))
	for i, line := range req.Ingredients {
		ids[i] = line.ID
	}
	if _, err := s.ingredients.Resolve(ctx, ids); err != nil {
		return nil, err
	}

	return &Recipe{Name: name, Text: text, CookingTime: req.CookingTime}, nil
}

// assemble builds views for recipes with a fixed number of queries: tags,
// ingredient lines, author profiles, and the two viewer flags.
func (s *recipeService) assemble(ctx context.Context, viewerID int64, recipes []Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, 0, len(recipes))
	if len(recipes) == 0 {
		return views, nil
	}

	ids := make([]int64, len(recipes))
	var authors []auth.User
	seenAuthor := make(map[int64]bool)
	for i := range recipes {
		ids[i] = recipes[i].ID
		if !seenAuthor[recipes[i].AuthorID] {
			seenAuthor[recipes[i].AuthorID] = true
			authors = append(authors, recipes[i].Author)
		}
	}

	tagsByRecipe, err := s.tags.ListByRecipes(ctx, ids)
	if err != nil {
		return nil, err
	}
	linesByRecipe, err := s.repo.IngredientsByRecipes(ctx, ids)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	profiles, err := s.profiles.Profiles(ctx, viewerID, authors)
	if err != nil {
		return nil, err
	}
	profileByID := make(map[int64]auth.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}

	favorited, err := s.toggles[relations.Favorite.Name].Flags(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := s.toggles[relations.ShoppingCart.Name].Flags(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	for i := range recipes {
		r := &recipes[i]
		recipeTags := tagsByRecipe[r.ID]
		if recipeTags == nil {
			recipeTags = []tags.Tag{}
		}
		lines := linesByRecipe[r.ID]
		if lines == nil {
			lines = []IngredientLine{}
		}
		views = append(views, RecipeView{
			ID:               r.ID,
			Tags:             recipeTags,
			Author:           profileByID[r.AuthorID],
			Ingredients:      lines,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            s.images.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		})
	}
	return views, nil
}

// wrapStoreError passes AppErrors through and wraps everything else as
// internal.
func wrapStoreError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal(err)
}

func hasDuplicates(ids []int64) bool {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
