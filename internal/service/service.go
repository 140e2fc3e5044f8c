// Package service holds the business rules of the blog: posts, comments, ratings,
// accounts and the contact form. Repositories and side effects are injected as interfaces.
package service

import (
	"context"
	"mime/multipart"

	"soulbalance/internal/data"
)

// PostRepository defines the interface for database operations on posts.
type PostRepository interface {
	CreatePost(ctx context.Context, post *data.BlogPost) (int64, error)
	GetPostByID(ctx context.Context, id int64) (*data.BlogPost, error)
	UpdatePost(ctx context.Context, post *data.BlogPost) error
	DeletePost(ctx context.Context, id, userID int64) error
	ListPosts(ctx context.Context, f data.PostFilter, limit, offset int) ([]*data.BlogPost, error)
	CountPosts(ctx context.Context, f data.PostFilter) (int, error)
}

// CommentRepository defines the interface for database operations on comments.
type CommentRepository interface {
	CreateComment(ctx context.Context, c *data.Comment) (*data.Comment, error)
	GetCommentByID(ctx context.Context, id int64) (*data.Comment, error)
	ListCommentsByPost(ctx context.Context, postID int64) ([]*data.Comment, error)
	DeleteComment(ctx context.Context, id, userID int64) error
}

// RatingRepository defines the interface for both rating pools.
type RatingRepository interface {
	UpsertUserRating(ctx context.Context, postID, userID int64, rating int) error
	HasPublicRating(ctx context.Context, postID int64, ip string) (bool, error)
	InsertPublicRating(ctx context.Context, postID int64, ip string, rating int) error
	GetUserRating(ctx context.Context, postID, userID int64) (int, error)
	GetTotals(ctx context.Context, postID int64) (data.RatingTotals, error)
}

// UserRepository defines the interface for database operations on users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *data.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
	GetUserByUsername(ctx context.Context, username string) (*data.User, error)
	GetUserByID(ctx context.Context, id int64) (*data.User, error)
	SetRole(ctx context.Context, email, role string) error
}

// ContactRepository stores contact form submissions.
type ContactRepository interface {
	SaveMessage(ctx context.Context, m *data.ContactMessage) error
}

// ImageStore validates and stores featured images. *media.Uploader satisfies it.
type ImageStore interface {
	Save(ctx context.Context, h *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, name string) error
	MaxBytes() int64
}

// Notifier delivers contact form submissions to the site owner.
type Notifier interface {
	NotifyContact(ctx context.Context, m *data.ContactMessage) error
}
