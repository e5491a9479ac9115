// Package ingredients implements the ingredient catalog: a read-mostly list
// of (name, measurement unit) pairs that recipes reference by id. The
// catalog is seeded offline from CSV and searched by name prefix from the
// recipe editor.
package ingredients

// maxFieldLength is the column width of name and measurement_unit.
const maxFieldLength = 200

// Ingredient is a catalog entry. (Name, MeasurementUnit) is unique.
type Ingredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// CreateIngredientRequest holds an admin-submitted ingredient.
type CreateIngredientRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

// ImportResult summarizes a CSV import run.
type ImportResult struct {
	Created    int
	Duplicates int
	Failed     int
}
