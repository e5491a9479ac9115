// Package recipes is the core of Foodgram: recipe composition (a recipe with
// its tag set and ingredient amounts written in one transaction), filtered
// listing, viewer-relative projection, the favorite and shopping cart
// toggles, and the shopping list export.
package recipes

import (
	"math"
	"time"

	"github.com/foodgram/foodgram/internal/plugins/auth"
	"github.com/foodgram/foodgram/internal/widgets/tags"
)

// Recipe is a stored recipe row joined with its author.
type Recipe struct {
	ID          int64
	AuthorID    int64
	Name        string
	Text        string
	Image       string // Stored media name, e.g. "recipes/<uuid>.png".
	CookingTime int
	PubDate     time.Time
	Author      auth.User
}

// IngredientLine is an ingredient of a recipe with its amount, as returned
// to clients.
type IngredientLine struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView is the full read projection of a recipe for one viewer.
type RecipeView struct {
	ID               int64            `json:"id"`
	Tags             []tags.Tag       `json:"tags"`
	Author           auth.Profile     `json:"author"`
	Ingredients      []IngredientLine `json:"ingredients"`
	IsFavorited      bool             `json:"is_favorited"`
	IsInShoppingCart bool             `json:"is_in_shopping_cart"`
	Name             string           `json:"name"`
	Image            string           `json:"image"`
	Text             string           `json:"text"`
	CookingTime      int              `json:"cooking_time"`
}

// Summary is the short projection returned by toggles and subscription
// previews.
type Summary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// maxQuantity caps amount and cooking_time at the signed 32-bit range.
const maxQuantity = math.MaxInt32

// IngredientAmount is one submitted ingredient line.
type IngredientAmount struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// RecipeRequest is the body of recipe create and update. Tags and
// ingredients are checked by the service so their errors carry the
// messages clients key on.
type RecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients"`
	Tags        []int64            `json:"tags"`
	Image       string             `json:"image"`
	Name        string             `json:"name" validate:"required,max=200"`
	Text        string             `json:"text" validate:"required"`
	CookingTime int                `json:"cooking_time" validate:"gte=1,lte=2147483647"`
}

// Actor identifies who is writing and whether they may act on others'
// recipes.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// ListFilter narrows the recipe list. Zero values mean "no filter";
// FavoritedBy and InCartOf hold the viewer id when those filters apply.
type ListFilter struct {
	TagSlugs    []string
	AuthorID    int64
	FavoritedBy int64
	InCartOf    int64
}

// AuthorRecipes is an author's recipe count with a newest-first preview.
type AuthorRecipes struct {
	Count   int
	Recipes []Summary
}

// ShoppingItem is one aggregated shopping list row.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// ShoppingList is a rendered shopping list ready for download.
type ShoppingList struct {
	Filename string
	Content  []byte
}

// Write actions recorded in metrics and logs.
const (
	actionCreate = "create"
	actionUpdate = "update"
	actionDelete = "delete"
)
