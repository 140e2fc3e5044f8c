package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// RatingRepository stores authenticated and public (per-IP) ratings.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository creates a new RatingRepository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// UpsertUserRating records a user's rating, replacing any earlier rating of the same post.
func (r *RatingRepository) UpsertUserRating(ctx context.Context, postID, userID int64, rating int) error {
	var query string
	switch r.db.DriverName() {
	case "sqlite3", "sqlite":
		query = `INSERT INTO blog_ratings (blog_post_id, user_id, rating, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (blog_post_id, user_id) DO UPDATE SET rating = excluded.rating, updated_at = excluded.updated_at`
	default:
		query = `INSERT INTO blog_ratings (blog_post_id, user_id, rating, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE rating = VALUES(rating), updated_at = VALUES(updated_at)`
	}
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, postID, userID, rating, now, now); err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// HasPublicRating reports whether ip already rated the post.
func (r *RatingRepository) HasPublicRating(ctx context.Context, postID int64, ip string) (bool, error) {
	var id int64
	err := r.db.GetContext(ctx, &id,
		`SELECT id FROM blog_ratings_public WHERE blog_post_id = ? AND ip_address = ?`, postID, ip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check public rating: %w", err)
	}
	return true, nil
}

// InsertPublicRating records an anonymous rating. A second rating from the same ip yields ErrDuplicate.
func (r *RatingRepository) InsertPublicRating(ctx context.Context, postID int64, ip string, rating int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blog_ratings_public (blog_post_id, ip_address, rating, created_at) VALUES (?, ?, ?, ?)`,
		postID, ip, rating, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("public rating for post %d from %s: %w", postID, ip, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert public rating: %w", err)
	}
	return nil
}

// GetUserRating returns the user's rating of a post, or 0 when there is none.
func (r *RatingRepository) GetUserRating(ctx context.Context, postID, userID int64) (int, error) {
	var rating int
	err := r.db.GetContext(ctx, &rating,
		`SELECT rating FROM blog_ratings WHERE blog_post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get user rating: %w", err)
	}
	return rating, nil
}

// GetTotals returns sums and counts of both rating pools. Empty pools contribute zero.
func (r *RatingRepository) GetTotals(ctx context.Context, postID int64) (RatingTotals, error) {
	var t RatingTotals
	query := `SELECT
		(SELECT COALESCE(SUM(rating), 0) FROM blog_ratings WHERE blog_post_id = ?) AS user_sum,
		(SELECT COUNT(*) FROM blog_ratings WHERE blog_post_id = ?) AS user_count,
		(SELECT COALESCE(SUM(rating), 0) FROM blog_ratings_public WHERE blog_post_id = ?) AS public_sum,
		(SELECT COUNT(*) FROM blog_ratings_public WHERE blog_post_id = ?) AS public_count`
	if err := r.db.GetContext(ctx, &t, query, postID, postID, postID, postID); err != nil {
		return RatingTotals{}, fmt.Errorf("failed to get rating totals: %w", err)
	}
	return t, nil
}
