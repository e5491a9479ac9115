package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/database"
)

// TagRepository defines the data access contract for tag operations.
type TagRepository interface {
	Create(ctx context.Context, tag *Tag) error
	FindByID(ctx context.Context, id int64) (*Tag, error)
	List(ctx context.Context) ([]Tag, error)

	// FindByIDs returns the tags that exist among ids.
	FindByIDs(ctx context.Context, ids []int64) ([]Tag, error)

	// ListByRecipes returns tags for several recipes at once, keyed by recipe ID.
	ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]Tag, error)
}

// tagRepository implements TagRepository using MariaDB with hand-written SQL.
type tagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new TagRepository backed by the given database
// connection.
func NewTagRepository(db *sql.DB) TagRepository {
	return &tagRepository{db: db}
}

// uniqueKeyFields maps the tags table's unique keys to request fields.
var uniqueKeyFields = map[string]string{
	"uq_tags_name":  "name",
	"uq_tags_color": "color",
	"uq_tags_slug":  "slug",
}

// Create inserts a new tag. A unique key collision is reported as a field
// error on the colliding column.
func (r *tagRepository) Create(ctx context.Context, tag *Tag) error {
	query := `INSERT INTO tags (name, color, slug) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, tag.Name, tag.Color, tag.Slug)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			field, ok := uniqueKeyFields[database.DuplicateKey(err)]
			if !ok {
				field = "name"
			}
			return apperror.NewFieldError(field, fmt.Sprintf("Tag with this %s already exists.", field))
		}
		return fmt.Errorf("inserting tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	tag.ID = id

	return nil
}

// FindByID retrieves a single tag by its primary key.
func (r *tagRepository) FindByID(ctx context.Context, id int64) (*Tag, error) {
	var t Tag
	err := r.db.QueryRowContext(ctx, `SELECT id, name, color, slug FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("querying tag by id: %w", err)
	}
	return &t, nil
}

// List returns every tag ordered by id.
func (r *tagRepository) List(ctx context.Context) ([]Tag, error) {
	return r.query(ctx, `SELECT id, name, color, slug FROM tags ORDER BY id`)
}

// FindByIDs returns the tags among ids that exist, ordered by id.
func (r *tagRepository) FindByIDs(ctx context.Context, ids []int64) ([]Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(ids)
	return r.query(ctx, `SELECT id, name, color, slug FROM tags WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
}

// ListByRecipes returns tags for multiple recipes in a single query, keyed
// by recipe ID. This avoids N+1 queries on recipe list views.
func (r *tagRepository) ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]Tag, error) {
	result := make(map[int64][]Tag)
	if len(recipeIDs) == 0 {
		return result, nil
	}

	placeholders, args := inClause(recipeIDs)
	query := `SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
	          FROM tags t
	          INNER JOIN recipe_tags rt ON rt.tag_id = t.id
	          WHERE rt.recipe_id IN (` + placeholders + `)
	          ORDER BY t.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("batch getting recipe tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		var t Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("scanning recipe tag row: %w", err)
		}
		result[recipeID] = append(result[recipeID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipe tag rows: %w", err)
	}

	return result, nil
}

func (r *tagRepository) query(ctx context.Context, query string, args ...any) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag rows: %w", err)
	}
	return tags, nil
}

// inClause builds a parameterized IN list for ids.
func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}
