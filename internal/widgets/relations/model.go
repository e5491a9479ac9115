// Package relations implements Foodgram's user relations: favorites,
// shopping cart entries and author subscriptions. Each is a presence-only
// row keyed by a unique (owner, target) pair; the three differ only in the
// table they live in, the target they point at, and their conflict messages.
// A Kind describes one of them and a Toggle runs the shared add/remove flow
// over it.
package relations

// Kind describes one user-relation table. Table and column names are fixed
// at compile time and never come from user input.
type Kind struct {
	// Name labels the relation in logs and metrics.
	Name string

	Table        string
	OwnerColumn  string
	TargetColumn string

	// ExistsMessage is the Conflict message for adding a pair twice.
	ExistsMessage string

	// MissingMessage is the Conflict message for removing an absent pair.
	MissingMessage string
}

// The relation kinds. Each table carries a UNIQUE (owner, target) key so
// concurrent adds of the same pair produce exactly one row.
var (
	Favorite = Kind{
		Name:           "favorite",
		Table:          "favorites",
		OwnerColumn:    "user_id",
		TargetColumn:   "recipe_id",
		ExistsMessage:  "Recipe already exists in favorites.",
		MissingMessage: "Recipe does not exist in favorites.",
	}

	ShoppingCart = Kind{
		Name:           "shopping_cart",
		Table:          "shopping_cart",
		OwnerColumn:    "user_id",
		TargetColumn:   "recipe_id",
		ExistsMessage:  "Recipe already exists in the shopping cart.",
		MissingMessage: "Recipe does not exist in the shopping cart.",
	}

	Subscription = Kind{
		Name:           "subscription",
		Table:          "subscriptions",
		OwnerColumn:    "user_id",
		TargetColumn:   "author_id",
		ExistsMessage:  "Subscription already exists.",
		MissingMessage: "Subscription does not exist.",
	}
)
