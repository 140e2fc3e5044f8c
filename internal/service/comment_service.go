package service

import (
	"context"
	"errors"
	"strings"

	"soulbalance/internal/data"
)

type commentInput struct {
	Comment string `form:"comment" validate:"required,max=1000"`
}

var commentMessages = messages{
	"comment":     "Comment cannot be empty",
	"comment.max": "Comment too long (max 1000 characters)",
}

// CommentService handles reader comments.
type CommentService struct {
	comments CommentRepository
	posts    PostRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments CommentRepository, posts PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// Add stores a comment by userID on postID and returns it with the author's username.
func (s *CommentService) Add(ctx context.Context, postID, userID int64, text string) (*data.Comment, error) {
	if userID == 0 {
		return nil, errLoginRequired
	}
	text = strings.TrimSpace(text)
	if err := firstInvalid(commentInput{Comment: text}, commentMessages); err != nil {
		return nil, err
	}
	if postID <= 0 {
		return nil, newError(ErrInvalid, "Invalid post ID")
	}
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	return s.comments.CreateComment(ctx, &data.Comment{BlogPostID: postID, UserID: userID, Comment: text})
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, commentID, userID int64) error {
	if userID == 0 {
		return errLoginRequired
	}
	c, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return newError(ErrNotFound, "Comment not found")
		}
		return err
	}
	if c.UserID != userID {
		return newError(ErrForbidden, "You can only delete your own comments")
	}
	if err := s.comments.DeleteComment(ctx, commentID, userID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return newError(ErrNotFound, "Comment not found")
		}
		return err
	}
	return nil
}

// ListForPost returns the comments of a post, oldest first.
func (s *CommentService) ListForPost(ctx context.Context, postID int64) ([]*data.Comment, error) {
	return s.comments.ListCommentsByPost(ctx, postID)
}
