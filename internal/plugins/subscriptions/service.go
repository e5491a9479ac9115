package subscriptions

import (
	"context"
	"log/slog"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/pagination"
	"github.com/foodgram/foodgram/internal/plugins/auth"
	"github.com/foodgram/foodgram/internal/plugins/recipes"
	"github.com/foodgram/foodgram/internal/widgets/relations"
)

// UserLookup resolves subscription targets.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*auth.User, error)
}

// RecipePreviewer supplies recipe counts and previews per author.
type RecipePreviewer interface {
	AuthorPreviews(ctx context.Context, authorIDs []int64, limit int) (map[int64]recipes.AuthorRecipes, error)
}

// SubscriptionService defines the business logic contract for following
// authors. recipesLimit caps each author's preview; 0 means no cap.
type SubscriptionService interface {
	List(ctx context.Context, userID int64, opts pagination.ListOptions, recipesLimit int) ([]Author, int, error)
	Subscribe(ctx context.Context, userID, authorID int64, recipesLimit int) (*Author, error)
	Unsubscribe(ctx context.Context, userID, authorID int64) error
}

type subscriptionService struct {
	repo    SubscriptionRepository
	recipes RecipePreviewer
	toggle  *relations.Toggle[*auth.User]
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(repo SubscriptionRepository, users UserLookup, previews RecipePreviewer, rels relations.RelationRepository) SubscriptionService {
	return &subscriptionService{
		repo:    repo,
		recipes: previews,
		toggle:  relations.NewToggle[*auth.User](relations.Subscription, rels, users.GetByID, noSelf),
	}
}

// noSelf rejects following yourself. It runs before the duplicate check,
// so a self-subscription never reports "already exists".
func noSelf(userID, authorID int64) error {
	if userID == authorID {
		return apperror.NewFieldError("errors", msgSelfSubscription)
	}
	return nil
}

func (s *subscriptionService) List(ctx context.Context, userID int64, opts pagination.ListOptions, recipesLimit int) ([]Author, int, error) {
	users, total, err := s.repo.ListAuthors(ctx, userID, opts.PerPage, opts.Offset())
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	authors, err := s.project(ctx, users, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, authorID int64, recipesLimit int) (*Author, error) {
	user, err := s.toggle.Add(ctx, userID, authorID)
	if err != nil {
		return nil, err
	}

	slog.Info("subscription added", slog.Int64("user_id", userID), slog.Int64("author_id", authorID))
	authors, err := s.project(ctx, []auth.User{*user}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &authors[0], nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, authorID int64) error {
	return s.toggle.Remove(ctx, userID, authorID)
}

// project builds Author views. Every author here is followed by the viewer,
// so is_subscribed is always true.
func (s *subscriptionService) project(ctx context.Context, users []auth.User, recipesLimit int) ([]Author, error) {
	authors := make([]Author, 0, len(users))
	if len(users) == 0 {
		return authors, nil
	}

	ids := make([]int64, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	previews, err := s.recipes.AuthorPreviews(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	for i := range users {
		p := previews[users[i].ID]
		summaries := p.Recipes
		if summaries == nil {
			summaries = []recipes.Summary{}
		}
		authors = append(authors, Author{
			Profile:      users[i].ToProfile(true),
			Recipes:      summaries,
			RecipesCount: p.Count,
		})
	}
	return authors, nil
}
