package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/foodgram/foodgram/internal/apperror"
)

// UserRepository defines the data access contract for user operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	List(ctx context.Context, limit, offset int) ([]User, int, error)
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, username, first_name, last_name, password_hash, is_admin, created_at`

func scanUser(row interface{ Scan(...any) error }, u *User) error {
	return row.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
}

// Create inserts a new user row and sets the generated ID on the struct.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (email, username, first_name, last_name, password_hash, is_admin, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	user.ID = id

	return nil
}

// FindByID retrieves a user by primary key.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user := &User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, id), user)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves a user by their email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user := &User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, email), user)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return user, nil
}

// EmailExists returns true if a user with the given email already exists.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// UsernameExists returns true if the username is taken.
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username existence: %w", err)
	}
	return exists, nil
}

// UpdatePassword replaces the user's password hash.
func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// List returns one page of users ordered by id with the total count.
func (r *userRepository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
