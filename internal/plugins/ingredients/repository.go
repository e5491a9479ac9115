package ingredients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/database"
)

// IngredientRepository defines the data access contract for the catalog.
type IngredientRepository interface {
	Create(ctx context.Context, ing *Ingredient) error
	FindByID(ctx context.Context, id int64) (*Ingredient, error)
	FindByIDs(ctx context.Context, ids []int64) ([]Ingredient, error)

	// List returns ingredients whose name starts with prefix (all when
	// prefix is empty), ordered by name.
	List(ctx context.Context, prefix string) ([]Ingredient, error)

	// InsertIfAbsent inserts the pair unless it already exists and reports
	// whether a row was created.
	InsertIfAbsent(ctx context.Context, name, unit string) (bool, error)
}

type ingredientRepository struct {
	db *sql.DB
}

// NewIngredientRepository creates a new IngredientRepository backed by the
// given database connection.
func NewIngredientRepository(db *sql.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) Create(ctx context.Context, ing *Ingredient) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)`,
		ing.Name, ing.MeasurementUnit)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return apperror.NewFieldError("non_field_errors", "Ingredient with this name and measurement unit already exists.")
		}
		return fmt.Errorf("inserting ingredient: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	ing.ID = id
	return nil
}

func (r *ingredientRepository) FindByID(ctx context.Context, id int64) (*Ingredient, error) {
	var ing Ingredient
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, id).
		Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("querying ingredient by id: %w", err)
	}
	return &ing, nil
}

func (r *ingredientRepository) FindByIDs(ctx context.Context, ids []int64) ([]Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.query(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id IN (`+placeholders+`) ORDER BY id`,
		args...)
}

// List matches by prefix with LIKE; wildcard characters in the prefix are
// escaped so "50%" finds names starting with "50%". Case sensitivity
// follows the table collation (utf8mb4_unicode_ci: insensitive).
func (r *ingredientRepository) List(ctx context.Context, prefix string) ([]Ingredient, error) {
	if prefix == "" {
		return r.query(ctx, `SELECT id, name, measurement_unit FROM ingredients ORDER BY name, id`)
	}
	return r.query(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE name LIKE ? ESCAPE '\\' ORDER BY name, id`,
		escapeLike(prefix)+"%")
}

// InsertIfAbsent relies on the (name, measurement_unit) unique key. The
// no-op update swallows only the duplicate; data errors such as an
// over-long value still fail. RowsAffected is 1 for a new row and 0 for an
// unchanged existing one.
func (r *ingredientRepository) InsertIfAbsent(ctx context.Context, name, unit string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE id = id`, name, unit)
	if err != nil {
		return false, fmt.Errorf("inserting ingredient: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *ingredientRepository) query(ctx context.Context, query string, args ...any) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("scanning ingredient row: %w", err)
		}
		out = append(out, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingredient rows: %w", err)
	}
	return out, nil
}

// likeEscaper escapes LIKE wildcards and the escape character itself.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
