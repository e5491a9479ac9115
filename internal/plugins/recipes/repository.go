package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/database"
)

// RecipeRepository defines the data access contract for recipes.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type RecipeRepository interface {
	// Create inserts the recipe, its tag links and its ingredient lines in
	// one transaction and sets the generated ID.
	Create(ctx context.Context, r *Recipe, tagIDs []int64, lines []IngredientAmount) error

	// Update rewrites name, text, image and cooking time, then replaces the
	// tag links and ingredient lines, all in one transaction. Author and
	// pub_date are never touched.
	Update(ctx context.Context, r *Recipe, tagIDs []int64, lines []IngredientAmount) error

	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Recipe, error)

	// List returns one page of recipes matching filter, newest first, and
	// the total number of matches.
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Recipe, int, error)

	// IngredientsByRecipes returns ingredient lines keyed by recipe ID.
	IngredientsByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]IngredientLine, error)

	// ShoppingList aggregates the ingredients of every recipe in the user's
	// cart by (name, unit), ordered by name then unit.
	ShoppingList(ctx context.Context, userID int64) ([]ShoppingItem, error)

	// CountByAuthors returns recipe counts keyed by author ID.
	CountByAuthors(ctx context.Context, authorIDs []int64) (map[int64]int, error)

	// PreviewByAuthors returns up to limit newest recipes per author (all
	// when limit is 0), keyed by author ID.
	PreviewByAuthors(ctx context.Context, authorIDs []int64, limit int) (map[int64][]Recipe, error)
}

type recipeRepository struct {
	db *sql.DB
}

// NewRecipeRepository creates a new recipe repository backed by the given DB pool.
func NewRecipeRepository(db *sql.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

const recipeColumns = `r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.pub_date,
	u.id, u.email, u.username, u.first_name, u.last_name`

const recipeFrom = ` FROM recipes r JOIN users u ON u.id = r.author_id`

func scanRecipe(row interface{ Scan(...any) error }, r *Recipe) error {
	return row.Scan(&r.ID, &r.AuthorID, &r.Name, &r.Text, &r.Image, &r.CookingTime, &r.PubDate,
		&r.Author.ID, &r.Author.Email, &r.Author.Username, &r.Author.FirstName, &r.Author.LastName)
}

func (r *recipeRepository) Create(ctx context.Context, recipe *Recipe, tagIDs []int64, lines []IngredientAmount) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO recipes (author_id, name, text, image, cooking_time) VALUES (?, ?, ?, ?, ?)`,
		recipe.AuthorID, recipe.Name, recipe.Text, recipe.Image, recipe.CookingTime)
	if err != nil {
		return fmt.Errorf("inserting recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}

	if err := insertChildren(ctx, tx, id, tagIDs, lines); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing recipe: %w", err)
	}

	recipe.ID = id
	return nil
}

func (r *recipeRepository) Update(ctx context.Context, recipe *Recipe, tagIDs []int64, lines []IngredientAmount) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Locks the row so concurrent updates of one recipe serialize; the last
	// to commit wins.
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM recipes WHERE id = ? FOR UPDATE`, recipe.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NewNotFound("Not found.")
	}
	if err != nil {
		return fmt.Errorf("locking recipe: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE recipes SET name = ?, text = ?, image = ?, cooking_time = ? WHERE id = ?`,
		recipe.Name, recipe.Text, recipe.Image, recipe.CookingTime, recipe.ID); err != nil {
		return fmt.Errorf("updating recipe: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("clearing recipe tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("clearing recipe ingredients: %w", err)
	}
	if err := insertChildren(ctx, tx, recipe.ID, tagIDs, lines); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing recipe: %w", err)
	}
	return nil
}

// insertChildren bulk-inserts tag links and ingredient lines for a recipe.
// A foreign key failure means a tag or ingredient vanished after
// validation and is reported as a client error.
func insertChildren(ctx context.Context, tx *sql.Tx, recipeID int64, tagIDs []int64, lines []IngredientAmount) error {
	if len(tagIDs) > 0 {
		args := make([]any, 0, len(tagIDs)*2)
		for _, tagID := range tagIDs {
			args = append(args, recipeID, tagID)
		}
		query := `INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ` + valueRows(len(tagIDs), 2)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if database.IsMissingReference(err) {
				return apperror.NewFieldError("tags", "Tag does not exist.")
			}
			return fmt.Errorf("inserting recipe tags: %w", err)
		}
	}

	if len(lines) > 0 {
		args := make([]any, 0, len(lines)*3)
		for _, line := range lines {
			args = append(args, recipeID, line.ID, line.Amount)
		}
		query := `INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ` + valueRows(len(lines), 3)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if database.IsMissingReference(err) {
				return apperror.NewFieldError("ingredients", "Ingredient does not exist.")
			}
			if database.IsDuplicateEntry(err) {
				return apperror.NewFieldError("ingredients", msgDuplicateIngredient)
			}
			return fmt.Errorf("inserting recipe ingredients: %w", err)
		}
	}
	return nil
}

func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("Not found.")
	}
	return nil
}

func (r *recipeRepository) FindByID(ctx context.Context, id int64) (*Recipe, error) {
	recipe := &Recipe{}
	err := scanRecipe(r.db.QueryRowContext(ctx, `SELECT `+recipeColumns+recipeFrom+` WHERE r.id = ?`, id), recipe)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("querying recipe by id: %w", err)
	}
	return recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Recipe, int, error) {
	where, args := filterClause(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting recipes: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query := `SELECT ` + recipeColumns + recipeFrom + where +
		` ORDER BY r.pub_date DESC, r.id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var recipe Recipe
		if err := scanRecipe(rows, &recipe); err != nil {
			return nil, 0, fmt.Errorf("scanning recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	return recipes, total, rows.Err()
}

// filterClause builds the WHERE clause for a ListFilter. Tag slugs are ORed:
// a recipe matches when it carries any of them.
func filterClause(f ListFilter) (string, []any) {
	var conds []string
	var args []any

	if len(f.TagSlugs) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug IN (`+placeholders(len(f.TagSlugs))+`))`)
		for _, slug := range f.TagSlugs {
			args = append(args, slug)
		}
	}
	if f.AuthorID != 0 {
		conds = append(conds, `r.author_id = ?`)
		args = append(args, f.AuthorID)
	}
	if f.FavoritedBy != 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?)`)
		args = append(args, f.FavoritedBy)
	}
	if f.InCartOf != 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM shopping_cart sc WHERE sc.recipe_id = r.id AND sc.user_id = ?)`)
		args = append(args, f.InCartOf)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

func (r *recipeRepository) IngredientsByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]IngredientLine, error) {
	out := make(map[int64][]IngredientLine, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	query := `SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
	          FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
	          WHERE ri.recipe_id IN (` + placeholders(len(recipeIDs)) + `)
	          ORDER BY ri.recipe_id, ri.id`
	rows, err := r.db.QueryContext(ctx, query, int64Args(recipeIDs)...)
	if err != nil {
		return nil, fmt.Errorf("listing recipe ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		var line IngredientLine
		if err := rows.Scan(&recipeID, &line.ID, &line.Name, &line.MeasurementUnit, &line.Amount); err != nil {
			return nil, fmt.Errorf("scanning recipe ingredient: %w", err)
		}
		out[recipeID] = append(out[recipeID], line)
	}
	return out, rows.Err()
}

func (r *recipeRepository) ShoppingList(ctx context.Context, userID int64) ([]ShoppingItem, error) {
	query := `SELECT i.name, i.measurement_unit, SUM(ri.amount)
	          FROM shopping_cart sc
	          JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
	          JOIN ingredients i ON i.id = ri.ingredient_id
	          WHERE sc.user_id = ?
	          GROUP BY i.name, i.measurement_unit
	          ORDER BY i.name, i.measurement_unit`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregating shopping list: %w", err)
	}
	defer rows.Close()

	var items []ShoppingItem
	for rows.Next() {
		var item ShoppingItem
		if err := rows.Scan(&item.Name, &item.MeasurementUnit, &item.Amount); err != nil {
			return nil, fmt.Errorf("scanning shopping item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	query := `SELECT author_id, COUNT(*) FROM recipes
	          WHERE author_id IN (` + placeholders(len(authorIDs)) + `) GROUP BY author_id`
	rows, err := r.db.QueryContext(ctx, query, int64Args(authorIDs)...)
	if err != nil {
		return nil, fmt.Errorf("counting recipes by author: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var authorID int64
		var n int
		if err := rows.Scan(&authorID, &n); err != nil {
			return nil, fmt.Errorf("scanning recipe count: %w", err)
		}
		out[authorID] = n
	}
	return out, rows.Err()
}

// PreviewByAuthors ranks each author's recipes with ROW_NUMBER so one query
// serves a whole page of subscriptions.
func (r *recipeRepository) PreviewByAuthors(ctx context.Context, authorIDs []int64, limit int) (map[int64][]Recipe, error) {
	out := make(map[int64][]Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	args := int64Args(authorIDs)
	query := `SELECT id, author_id, name, image, cooking_time FROM (
	              SELECT id, author_id, name, image, cooking_time, pub_date,
	                     ROW_NUMBER() OVER (PARTITION BY author_id ORDER BY pub_date DESC, id DESC) AS rn
	              FROM recipes WHERE author_id IN (` + placeholders(len(authorIDs)) + `)
	          ) ranked`
	if limit > 0 {
		query += ` WHERE rn <= ?`
		args = append(args, limit)
	}
	query += ` ORDER BY author_id, rn`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recipe previews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipe Recipe
		if err := rows.Scan(&recipe.ID, &recipe.AuthorID, &recipe.Name, &recipe.Image, &recipe.CookingTime); err != nil {
			return nil, fmt.Errorf("scanning recipe preview: %w", err)
		}
		out[recipe.AuthorID] = append(out[recipe.AuthorID], recipe)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// valueRows returns n parenthesized groups of width placeholders.
func valueRows(n, width int) string {
	row := "(" + placeholders(width) + ")"
	return strings.TrimSuffix(strings.Repeat(row+",", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
