package recipes

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/metrics"
	"github.com/foodgram/foodgram/internal/plugins/auth"
)

const msgEmptyCart = "Shopping cart is empty."

// UserLookup resolves the user a shopping list is built for.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*auth.User, error)
}

// ShoppingListService renders the aggregated ingredients of a user's cart.
type ShoppingListService interface {
	// Build returns the shopping list for userID, or a 400 when the cart is
	// empty. It only reads, so two builds over an unchanged cart differ in
	// the date line alone.
	Build(ctx context.Context, userID int64) (*ShoppingList, error)
}

type shoppingListService struct {
	repo  RecipeRepository
	users UserLookup
	now   func() time.Time
}

// NewShoppingListService creates a new shopping list service.
func NewShoppingListService(repo RecipeRepository, users UserLookup) ShoppingListService {
	return &shoppingListService{repo: repo, users: users, now: time.Now}
}

func (s *shoppingListService) Build(ctx context.Context, userID int64) (*ShoppingList, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ShoppingList(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	// Every recipe has at least one ingredient, so no rows means no recipes
	// in the cart.
	if len(items) == 0 {
		return nil, apperror.NewBadRequest(msgEmptyCart)
	}

	metrics.RecordShoppingList()
	slog.Debug("shopping list built", slog.Int64("user_id", userID), slog.Int("items", len(items)))
	return &ShoppingList{
		Filename: user.Username + "_shopping_list.txt",
		Content:  renderShoppingList(user.DisplayName(), s.now(), items),
	}, nil
}

// renderShoppingList formats the list as plain text: a header naming the
// user, a date line, then one "• name - amount (unit)" line per item in the
// order given.
func renderShoppingList(displayName string, date time.Time, items []ShoppingItem) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Shopping list for %s\n", displayName)
	fmt.Fprintf(&buf, "Date: %s\n\n", date.Format("2006-01-02"))
	for _, item := range items {
		fmt.Fprintf(&buf, "• %s - %d (%s)\n", item.Name, item.Amount, item.MeasurementUnit)
	}
	return buf.Bytes()
}
