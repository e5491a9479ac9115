package subscriptions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/foodgram/foodgram/internal/plugins/auth"
)

// SubscriptionRepository reads the authors a user follows. Adding and
// removing subscriptions goes through the relations widget.
type SubscriptionRepository interface {
	// ListAuthors returns one page of authors userID follows, oldest
	// subscription first, and the total count.
	ListAuthors(ctx context.Context, userID int64, limit, offset int) ([]auth.User, int, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new subscription repository backed by
// the given DB pool.
func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) ListAuthors(ctx context.Context, userID int64, limit, offset int) ([]auth.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting subscriptions: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name
		 FROM subscriptions s JOIN users u ON u.id = s.author_id
		 WHERE s.user_id = ?
		 ORDER BY s.id
		 LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing subscriptions: %w", err)
	}
	defer rows.Close()

	var authors []auth.User
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName); err != nil {
			return nil, 0, fmt.Errorf("scanning subscription: %w", err)
		}
		authors = append(authors, u)
	}
	return authors, total, rows.Err()
}
