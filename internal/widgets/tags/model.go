// Package tags implements the recipe tags widget. Tags are a small, admin
// managed catalog (breakfast, lunch, dinner...) with a unique name, color
// and slug. Recipes reference them through the recipe_tags join table and
// the recipe list filters on their slugs.
package tags

// Tag is a recipe label.
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// --- Request DTOs (bound from HTTP requests) ---

// CreateTagRequest holds the data submitted when creating a new tag. An
// empty slug is derived from the name.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor"`
	Slug  string `json:"slug" validate:"max=200"`
}
