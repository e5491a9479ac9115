package relations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/database"
)

// RelationRepository defines the data access contract for user relations.
type RelationRepository interface {
	// Exists reports whether the (owner, target) pair is present.
	Exists(ctx context.Context, kind Kind, ownerID, targetID int64) (bool, error)

	// Add inserts the pair. A duplicate returns Conflict(kind.ExistsMessage);
	// a target deleted in the meantime returns NotFound.
	Add(ctx context.Context, kind Kind, ownerID, targetID int64) error

	// Remove deletes the pair and reports whether a row was deleted.
	Remove(ctx context.Context, kind Kind, ownerID, targetID int64) (bool, error)

	// ExistingTargets returns the subset of targetIDs paired with ownerID.
	ExistingTargets(ctx context.Context, kind Kind, ownerID int64, targetIDs []int64) (map[int64]bool, error)
}

type relationRepository struct {
	db *sql.DB
}

// NewRelationRepository creates a new RelationRepository backed by the
// given database connection.
func NewRelationRepository(db *sql.DB) RelationRepository {
	return &relationRepository{db: db}
}

func (r *relationRepository) Exists(ctx context.Context, kind Kind, ownerID, targetID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s = ?)`,
		kind.Table, kind.OwnerColumn, kind.TargetColumn)

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, ownerID, targetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking %s: %w", kind.Name, err)
	}
	return exists, nil
}

// Add relies on the table's UNIQUE key, not on a prior Exists check, to
// reject duplicates.
func (r *relationRepository) Add(ctx context.Context, kind Kind, ownerID, targetID int64) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (?, ?)`,
		kind.Table, kind.OwnerColumn, kind.TargetColumn)

	if _, err := r.db.ExecContext(ctx, query, ownerID, targetID); err != nil {
		if database.IsDuplicateEntry(err) {
			return apperror.NewConflict(kind.ExistsMessage)
		}
		if database.IsMissingReference(err) {
			return apperror.NewNotFound("Not found.")
		}
		return fmt.Errorf("inserting %s: %w", kind.Name, err)
	}
	return nil
}

func (r *relationRepository) Remove(ctx context.Context, kind Kind, ownerID, targetID int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`,
		kind.Table, kind.OwnerColumn, kind.TargetColumn)

	result, err := r.db.ExecContext(ctx, query, ownerID, targetID)
	if err != nil {
		return false, fmt.Errorf("deleting %s: %w", kind.Name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *relationRepository) ExistingTargets(ctx context.Context, kind Kind, ownerID int64, targetIDs []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(targetIDs))
	if ownerID == 0 || len(targetIDs) == 0 {
		return found, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(targetIDs)), ",")
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s IN (%s)`,
		kind.TargetColumn, kind.Table, kind.OwnerColumn, kind.TargetColumn, placeholders)

	args := make([]any, 0, len(targetIDs)+1)
	args = append(args, ownerID)
	for _, id := range targetIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s targets: %w", kind.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s target: %w", kind.Name, err)
		}
		found[id] = true
	}
	return found, rows.Err()
}
