// Package subscriptions lets users follow recipe authors. The list view
// shows each followed author with a recipe count and a short preview of
// their newest recipes.
package subscriptions

import (
	"github.com/foodgram/foodgram/internal/plugins/auth"
	"github.com/foodgram/foodgram/internal/plugins/recipes"
)

// Author is a followed author as returned by the subscription endpoints.
type Author struct {
	auth.Profile
	Recipes      []recipes.Summary `json:"recipes"`
	RecipesCount int               `json:"recipes_count"`
}

const msgSelfSubscription = "You cannot subscribe to yourself."
