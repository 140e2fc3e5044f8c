package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"soulbalance/internal/data"
	"soulbalance/internal/logger"
	"soulbalance/internal/media"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	previewLength   = 150
	defaultPageSize = 9
)

// PostInput is the user-editable part of a post.
type PostInput struct {
	Title    string                `form:"title" validate:"required,max=255"`
	Content  string                `form:"content" validate:"required,min=10"`
	Category string                `form:"category"`
	Image    *multipart.FileHeader `form:"-" validate:"-"`
}

var postMessages = messages{
	"title":       "Title is required",
	"title.max":   "Title must be 255 characters or less",
	"content":     "Content is required",
	"content.min": "Content must be at least 10 characters",
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts      []*data.BlogPost
	Page       int
	TotalPages int
	Total      int
}

// HasPrev reports whether a previous page exists.
func (p *PostPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p *PostPage) HasNext() bool { return p.Page < p.TotalPages }

// Dashboard summarizes a user's own posts.
type Dashboard struct {
	Posts       []*data.BlogPost
	Total       int
	LastUpdated *time.Time
}

// PostService provides business logic for managing posts.
type PostService struct {
	repo      PostRepository
	images    ImageStore
	log       logger.Logger
	sanitizer *bluemonday.Policy
	stripper  *bluemonday.Policy
	markdown  goldmark.Markdown
	pageSize  int
}

// NewPostService creates a new PostService. A pageSize of zero means 9 posts per page.
func NewPostService(repo PostRepository, images ImageStore, log logger.Logger, pageSize int) *PostService {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &PostService{
		repo:      repo,
		images:    images,
		log:       log,
		sanitizer: bluemonday.UGCPolicy(),
		stripper:  bluemonday.StrictPolicy(),
		// Content is stored as HTML from the editor; raw HTML must survive rendering.
		markdown: goldmark.New(goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe())),
		pageSize: pageSize,
	}
}

func validatePost(in PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	return firstInvalid(in, postMessages)
}

// ImageTooLarge is the error shown when an upload exceeds maxBytes.
func ImageTooLarge(maxBytes int64) *Error {
	return newError(ErrInvalid, "Image size must be less than "+media.FormatSize(maxBytes))
}

func (s *PostService) uploadError(err error) error {
	switch {
	case errors.Is(err, media.ErrInvalidFormat):
		return newError(ErrInvalid, "Invalid image format. Allowed: JPG, PNG, GIF, WEBP")
	case errors.Is(err, media.ErrTooLarge):
		return ImageTooLarge(s.images.MaxBytes())
	default:
		return fmt.Errorf("store image: %w", err)
	}
}

func (s *PostService) saveImage(ctx context.Context, h *multipart.FileHeader) (string, error) {
	if h == nil {
		return "", nil
	}
	path, err := s.images.Save(ctx, h)
	if err != nil {
		return "", s.uploadError(err)
	}
	return path, nil
}

func (s *PostService) removeImage(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.images.Delete(ctx, path); err != nil {
		s.log.Error(err, fmt.Sprintf("Failed to delete image %s", path))
	}
}

// Create validates and stores a new post owned by userID.
func (s *PostService) Create(ctx context.Context, userID int64, in PostInput) (*data.BlogPost, error) {
	if userID == 0 {
		return nil, errLoginRequired
	}
	if err := validatePost(in); err != nil {
		return nil, err
	}
	path, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &data.BlogPost{
		UserID:   userID,
		Title:    strings.TrimSpace(in.Title),
		Content:  s.sanitizer.Sanitize(in.Content),
		Category: strings.TrimSpace(in.Category),
	}
	if path != "" {
		post.FeaturedImage = &path
	}

	id, err := s.repo.CreatePost(ctx, post)
	if err != nil {
		s.removeImage(ctx, path)
		return nil, err
	}
	post.ID = id
	return post, nil
}

// Get loads a post with its rendered content.
func (s *PostService) Get(ctx context.Context, id int64) (*data.BlogPost, error) {
	post, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	post.HTMLContent = s.render(post.Content)
	return post, nil
}

// GetOwned loads a post and checks that userID owns it.
func (s *PostService) GetOwned(ctx context.Context, id, userID int64) (*data.BlogPost, error) {
	if userID == 0 {
		return nil, errLoginRequired
	}
	post, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	if post.UserID != userID {
		return nil, newError(ErrForbidden, "You can only modify your own posts")
	}
	return post, nil
}

// Update replaces a post's fields. A new image replaces the old one, which is
// removed only after the row is saved.
func (s *PostService) Update(ctx context.Context, id, userID int64, in PostInput) (*data.BlogPost, error) {
	post, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := validatePost(in); err != nil {
		return nil, err
	}
	newPath, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	oldPath := post.ImagePath()
	post.Title = strings.TrimSpace(in.Title)
	post.Content = s.sanitizer.Sanitize(in.Content)
	post.Category = strings.TrimSpace(in.Category)
	if newPath != "" {
		post.FeaturedImage = &newPath
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		s.removeImage(ctx, newPath)
		if errors.Is(err, data.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	if newPath != "" {
		s.removeImage(ctx, oldPath)
	}
	return post, nil
}

// Delete removes a post owned by userID, then its image.
func (s *PostService) Delete(ctx context.Context, id, userID int64) error {
	post, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePost(ctx, id, userID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return errPostNotFound
		}
		return err
	}
	s.removeImage(ctx, post.ImagePath())
	return nil
}

// List returns one page of posts, newest first, optionally limited to a category.
func (s *PostService) List(ctx context.Context, category string, page int) (*PostPage, error) {
	f := data.PostFilter{Category: category}
	total, err := s.repo.CountPosts(ctx, f)
	if err != nil {
		return nil, err
	}

	totalPages := (total + s.pageSize - 1) / s.pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	posts, err := s.repo.ListPosts(ctx, f, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return nil, err
	}
	s.addPreviews(posts)
	return &PostPage{Posts: posts, Page: page, TotalPages: totalPages, Total: total}, nil
}

// ListByUser returns every post of a user, or every post when userID is 0.
func (s *PostService) ListByUser(ctx context.Context, userID int64) ([]*data.BlogPost, error) {
	posts, err := s.repo.ListPosts(ctx, data.PostFilter{UserID: userID}, 0, 0)
	if err != nil {
		return nil, err
	}
	s.addPreviews(posts)
	return posts, nil
}

// Dashboard returns a user's posts with their count and most recent update.
func (s *PostService) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	if userID == 0 {
		return nil, errLoginRequired
	}
	posts, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{Posts: posts, Total: len(posts)}
	for _, p := range posts {
		if d.LastUpdated == nil || p.UpdatedAt.After(*d.LastUpdated) {
			t := p.UpdatedAt
			d.LastUpdated = &t
		}
	}
	return d, nil
}

func (s *PostService) addPreviews(posts []*data.BlogPost) {
	for _, p := range posts {
		p.Preview = s.Preview(p.Content)
	}
}

// Preview strips markup and truncates content to 150 characters.
func (s *PostService) Preview(content string) string {
	text := html.UnescapeString(s.stripper.Sanitize(content))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength]) + "..."
}

func (s *PostService) render(content string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(content), &buf); err != nil {
		s.log.Error(err, "Failed to render post content")
		return template.HTML(s.sanitizer.Sanitize(content))
	}
	return template.HTML(s.sanitizer.Sanitize(buf.String()))
}
