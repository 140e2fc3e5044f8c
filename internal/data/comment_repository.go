package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// CommentRepository handles database operations for comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// CreateComment inserts a comment and returns it re-read with the author's username.
func (r *CommentRepository) CreateComment(ctx context.Context, c *Comment) (*Comment, error) {
	c.CreatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx,
		`INSERT INTO blog_comments (blog_post_id, user_id, comment, created_at)
		VALUES (:blog_post_id, :user_id, :comment, :created_at)`, c)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new comment id: %w", err)
	}
	return r.GetCommentByID(ctx, id)
}

// GetCommentByID retrieves one comment with its author's username.
func (r *CommentRepository) GetCommentByID(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	query := `SELECT c.id, c.blog_post_id, c.user_id, c.comment, c.created_at, u.username
		FROM blog_comments c JOIN users u ON c.user_id = u.id WHERE c.id = ?`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ListCommentsByPost returns the comments of a post, oldest first.
func (r *CommentRepository) ListCommentsByPost(ctx context.Context, postID int64) ([]*Comment, error) {
	comments := []*Comment{}
	query := `SELECT c.id, c.blog_post_id, c.user_id, c.comment, c.created_at, u.username
		FROM blog_comments c JOIN users u ON c.user_id = u.id
		WHERE c.blog_post_id = ? ORDER BY c.created_at ASC, c.id ASC`
	if err := r.db.SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// DeleteComment removes a comment written by userID.
func (r *CommentRepository) DeleteComment(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blog_comments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no comment %d by user %d: %w", id, userID, ErrNotFound)
	}
	return nil
}
