//go:build integration

package data

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an isolated in-memory SQLite database with the sqlite3 migrations applied.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	// A second connection would see a different in-memory database.
	db.SetMaxOpenConns(1)

	files, err := filepath.Glob("../../migrations/sqlite3/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		schema, err := os.ReadFile(f)
		require.NoError(t, err)
		db.MustExec(string(schema))
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sqlx.DB, username string) int64 {
	t.Helper()
	id, err := NewUserRepository(db).CreateUser(context.Background(), &User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
	})
	require.NoError(t, err)
	return id
}

func seedPost(t *testing.T, db *sqlx.DB, userID int64, title, category string) int64 {
	t.Helper()
	id, err := NewSQLPostRepository(db).CreatePost(context.Background(), &BlogPost{
		UserID:   userID,
		Title:    title,
		Content:  "<p>Breathe in, breathe out.</p>",
		Category: category,
	})
	require.NoError(t, err)
	return id
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	id := seedUser(t, db, "mira")
	assert.NotZero(t, id)

	byEmail, err := repo.GetUserByEmail(ctx, "mira@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, RoleUser, byEmail.Role)

	_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = repo.CreateUser(ctx, &User{Username: "mira", Email: "other@example.com", Password: "x"})
	assert.True(t, errors.Is(err, ErrDuplicate), "duplicate username should map to ErrDuplicate, got %v", err)

	require.NoError(t, repo.SetRole(ctx, "mira@example.com", RoleAdmin))
	byID, err := repo.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, byID.Role)
}

func TestPostRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLPostRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner")
	other := seedUser(t, db, "other")
	postID := seedPost(t, db, owner, "Morning Yoga", "Yoga Practices")

	post, err := repo.GetPostByID(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "Morning Yoga", post.Title)
	assert.Equal(t, "owner", post.AuthorName)
	assert.Nil(t, post.FeaturedImage)

	image := "uploads/blogs/a.png"
	post.Title = "Evening Yoga"
	post.FeaturedImage = &image
	require.NoError(t, repo.UpdatePost(ctx, post))

	updated, err := repo.GetPostByID(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "Evening Yoga", updated.Title)
	assert.Equal(t, image, updated.ImagePath())

	// Mutations are scoped to the owner.
	updated.UserID = other
	assert.True(t, errors.Is(repo.UpdatePost(ctx, updated), ErrNotFound))
	assert.True(t, errors.Is(repo.DeletePost(ctx, postID, other), ErrNotFound))

	require.NoError(t, repo.DeletePost(ctx, postID, owner))
	_, err = repo.GetPostByID(ctx, postID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostRepository_ListAndCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLPostRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	seedPost(t, db, a, "One", "Meditation")
	seedPost(t, db, a, "Two", "Nutrition")
	seedPost(t, db, b, "Three", "Meditation")

	all, err := repo.ListPosts(ctx, PostFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Three", all[0].Title, "newest post first")

	page, err := repo.ListPosts(ctx, PostFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "One", page[0].Title)

	n, err := repo.CountPosts(ctx, PostFilter{Category: "Meditation"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mine, err := repo.ListPosts(ctx, PostFilter{UserID: a}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	both, err := repo.CountPosts(ctx, PostFilter{UserID: b, Category: "Meditation"})
	require.NoError(t, err)
	assert.Equal(t, 1, both)
}

func TestCommentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	reader := seedUser(t, db, "reader")
	postID := seedPost(t, db, author, "Gratitude", "")

	c, err := repo.CreateComment(ctx, &Comment{BlogPostID: postID, UserID: reader, Comment: "Lovely read"})
	require.NoError(t, err)
	assert.Equal(t, "reader", c.Username)

	_, err = repo.CreateComment(ctx, &Comment{BlogPostID: postID, UserID: author, Comment: "Thanks!"})
	require.NoError(t, err)

	list, err := repo.ListCommentsByPost(ctx, postID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Lovely read", list[0].Comment)

	assert.True(t, errors.Is(repo.DeleteComment(ctx, c.ID, author), ErrNotFound))
	require.NoError(t, repo.DeleteComment(ctx, c.ID, reader))

	_, err = repo.GetCommentByID(ctx, c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRatingRepository_UserUpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "rater")
	postID := seedPost(t, db, u, "Sleep", "")

	require.NoError(t, repo.UpsertUserRating(ctx, postID, u, 2))
	require.NoError(t, repo.UpsertUserRating(ctx, postID, u, 5))

	var rows int
	require.NoError(t, db.Get(&rows, `SELECT COUNT(*) FROM blog_ratings WHERE blog_post_id = ?`, postID))
	assert.Equal(t, 1, rows)

	got, err := repo.GetUserRating(ctx, postID, u)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestRatingRepository_PublicDuplicateRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "writer")
	postID := seedPost(t, db, u, "Breath", "")

	has, err := repo.HasPublicRating(ctx, postID, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.InsertPublicRating(ctx, postID, "10.0.0.1", 4))
	err = repo.InsertPublicRating(ctx, postID, "10.0.0.1", 1)
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

	has, err = repo.HasPublicRating(ctx, postID, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRatingRepository_Totals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "a")
	b := seedUser(t, db, "b")
	postID := seedPost(t, db, a, "Totals", "")

	empty, err := repo.GetTotals(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, RatingTotals{}, empty)

	require.NoError(t, repo.UpsertUserRating(ctx, postID, a, 5))
	require.NoError(t, repo.UpsertUserRating(ctx, postID, b, 3))
	require.NoError(t, repo.InsertPublicRating(ctx, postID, "192.0.2.7", 4))

	totals, err := repo.GetTotals(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, RatingTotals{UserSum: 8, UserCount: 2, PublicSum: 4, PublicCount: 1}, totals)
}

func TestContactRepository_SaveMessage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db)

	msg := &ContactMessage{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
		Subject: "general", Message: "Hello from the contact form", IPAddress: "127.0.0.1",
	}
	require.NoError(t, repo.SaveMessage(context.Background(), msg))
	assert.NotZero(t, msg.ID)
}
