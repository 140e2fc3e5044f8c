package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// UserRepository handles database operations for users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a user and sets its id. A taken username or email yields ErrDuplicate.
func (r *UserRepository) CreateUser(ctx context.Context, user *User) (int64, error) {
	if user.Role == "" {
		user.Role = RoleUser
	}
	user.CreatedAt = time.Now().UTC()
	query := `INSERT INTO users (username, email, password, role, created_at)
		VALUES (:username, :email, :password, :role, :created_at)`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("user %q: %w", user.Username, ErrDuplicate)
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new user id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) getBy(ctx context.Context, column string, value interface{}) (*User, error) {
	var user User
	query := `SELECT id, username, email, password, role, created_at FROM users WHERE ` + column + ` = ?`
	if err := r.db.GetContext(ctx, &user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with %s %v: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return &user, nil
}

// GetUserByEmail finds a user by e-mail address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email", email)
}

// GetUserByUsername finds a user by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return r.getBy(ctx, "username", username)
}

// GetUserByID finds a user by id.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return r.getBy(ctx, "id", id)
}

// SetRole changes the role of the user with the given e-mail.
func (r *UserRepository) SetRole(ctx context.Context, email, role string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE email = ?`, role, email)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user with email %s: %w", email, ErrNotFound)
	}
	return nil
}
