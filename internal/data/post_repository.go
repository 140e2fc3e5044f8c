package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const postColumns = `bp.id, bp.user_id, bp.title, bp.content, bp.category, bp.featured_image,
	bp.created_at, bp.updated_at, u.username AS author_name`

// PostFilter narrows post listings. Zero values mean "no filter".
type PostFilter struct {
	Category string
	UserID   int64
}

func (f PostFilter) where() (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.Category != "" {
		conds = append(conds, "bp.category = ?")
		args = append(args, f.Category)
	}
	if f.UserID != 0 {
		conds = append(conds, "bp.user_id = ?")
		args = append(args, f.UserID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SQLPostRepository stores blog posts using sqlx.
type SQLPostRepository struct {
	db *sqlx.DB
}

// NewSQLPostRepository creates a new SQLPostRepository.
func NewSQLPostRepository(db *sqlx.DB) *SQLPostRepository {
	return &SQLPostRepository{db: db}
}

// CreatePost inserts a post and returns its generated id.
func (r *SQLPostRepository) CreatePost(ctx context.Context, post *BlogPost) (int64, error) {
	now := time.Now().UTC()
	post.CreatedAt, post.UpdatedAt = now, now
	query := `INSERT INTO blog_posts (user_id, title, content, category, featured_image, created_at, updated_at)
		VALUES (:user_id, :title, :content, :category, :featured_image, :created_at, :updated_at)`
	res, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create post query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new post id: %w", err)
	}
	post.ID = id
	return id, nil
}

// GetPostByID retrieves a single post with its author's name.
func (r *SQLPostRepository) GetPostByID(ctx context.Context, id int64) (*BlogPost, error) {
	var post BlogPost
	query := `SELECT ` + postColumns + ` FROM blog_posts bp JOIN users u ON bp.user_id = u.id WHERE bp.id = ?`
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post by id: %w", err)
	}
	return &post, nil
}

// UpdatePost updates title, content, category and image of a post owned by post.UserID.
func (r *SQLPostRepository) UpdatePost(ctx context.Context, post *BlogPost) error {
	post.UpdatedAt = time.Now().UTC()
	query := `UPDATE blog_posts SET title = :title, content = :content, category = :category,
		featured_image = :featured_image, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`
	result, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no post %d owned by user %d: %w", post.ID, post.UserID, ErrNotFound)
	}
	return nil
}

// DeletePost removes a post owned by userID.
func (r *SQLPostRepository) DeletePost(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no post %d owned by user %d: %w", id, userID, ErrNotFound)
	}
	return nil
}

// ListPosts returns posts matching f, newest first. A limit of 0 returns every match.
func (r *SQLPostRepository) ListPosts(ctx context.Context, f PostFilter, limit, offset int) ([]*BlogPost, error) {
	where, args := f.where()
	query := `SELECT ` + postColumns + ` FROM blog_posts bp JOIN users u ON bp.user_id = u.id` +
		where + ` ORDER BY bp.created_at DESC, bp.id DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	posts := []*BlogPost{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// CountPosts counts posts matching f.
func (r *SQLPostRepository) CountPosts(ctx context.Context, f PostFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM blog_posts bp`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}
