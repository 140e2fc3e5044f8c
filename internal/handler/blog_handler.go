package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"soulbalance/internal/data"
	"soulbalance/internal/logger"
	"soulbalance/internal/middleware"
	"soulbalance/internal/service"
	"soulbalance/internal/session"
	"soulbalance/internal/view"

	"github.com/go-chi/chi/v5"
)

// multipartOverhead is the room left for form fields on top of the image limit.
const multipartOverhead = 1 << 20

// BlogHandler serves the HTML pages for reading and managing posts.
type BlogHandler struct {
	posts      *service.PostService
	comments   *service.CommentService
	ratings    *service.RatingService
	view       *view.View
	sm         session.Manager
	log        logger.Logger
	categories []string
	maxUpload  int64
}

// NewBlogHandler creates a new BlogHandler with the given dependencies.
func NewBlogHandler(posts *service.PostService, comments *service.CommentService, ratings *service.RatingService,
	v *view.View, sm session.Manager, log logger.Logger, categories []string, maxUpload int64) *BlogHandler {
	return &BlogHandler{
		posts:      posts,
		comments:   comments,
		ratings:    ratings,
		view:       v,
		sm:         sm,
		log:        log,
		categories: categories,
		maxUpload:  maxUpload,
	}
}

func (h *BlogHandler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
	return renderPage(h.view, w, r, http.StatusOK, name, data)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *BlogHandler) listing(w http.ResponseWriter, r *http.Request, tmpl, title, category string) *middleware.AppError {
	page, err := h.posts.List(r.Context(), category, pageParam(r))
	if err != nil {
		return appError(err, "Failed to load posts")
	}
	return h.render(w, r, tmpl, map[string]interface{}{
		"Title":    title,
		"Listing":  page,
		"Category": category,
	})
}

// handleHome shows the newest posts.
func (h *BlogHandler) handleHome(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.listing(w, r, "index.html", "Home", "")
}

// handleLatest shows every post, newest first.
func (h *BlogHandler) handleLatest(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.listing(w, r, "latest.html", "Latest Blogs", "")
}

// handleCategory shows the posts of one category.
func (h *BlogHandler) handleCategory(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		return &middleware.AppError{Error: err, Message: "Category not found", Code: http.StatusNotFound}
	}
	return h.listing(w, r, "category.html", name, name)
}

// handleView shows a single post with its comments and ratings.
func (h *BlogHandler) handleView(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := parseID(r, "id")
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Post not found", Code: http.StatusNotFound}
	}
	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		return appError(err, "Failed to load post")
	}
	comments, err := h.comments.ListForPost(r.Context(), id)
	if err != nil {
		return appError(err, "Failed to load comments")
	}
	summary, err := h.ratings.Summary(r.Context(), id)
	if err != nil {
		return appError(err, "Failed to load ratings")
	}

	user := middleware.GetUserInfo(r.Context())
	userRating, err := h.ratings.UserRating(r.Context(), id, user.ID)
	if err != nil {
		return appError(err, "Failed to load ratings")
	}
	_, cookieErr := r.Cookie(ratedCookieName(id))

	return h.render(w, r, "view.html", map[string]interface{}{
		"Title":       post.Title,
		"Post":        post,
		"Comments":    comments,
		"Rating":      summary,
		"UserRating":  userRating,
		"PublicRated": cookieErr == nil,
		"IsOwner":     user.IsAuthenticated() && user.ID == post.UserID,
	})
}

func (h *BlogHandler) renderPostForm(w http.ResponseWriter, r *http.Request, code int, post *data.BlogPost, in service.PostInput, msg string) *middleware.AppError {
	formData := map[string]interface{}{
		"Title":      "Create New Post",
		"Action":     "/blogs/new",
		"Categories": h.categories,
		"Input":      in,
		"Error":      msg,
		"MaxUpload":  h.maxUpload,
	}
	if post != nil {
		formData["Title"] = "Edit Post"
		formData["Action"] = fmt.Sprintf("/blog/%d/edit", post.ID)
		formData["Post"] = post
	}
	return renderPage(h.view, w, r, code, "form.html", formData)
}

// readPostForm parses a multipart or urlencoded post form. A body over the
// upload limit is reported as an oversized image.
func (h *BlogHandler) readPostForm(w http.ResponseWriter, r *http.Request) (service.PostInput, error) {
	return readPostInput(w, r, h.maxUpload)
}

func readPostInput(w http.ResponseWriter, r *http.Request, maxUpload int64) (service.PostInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(maxUpload + multipartOverhead); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return service.PostInput{}, service.ImageTooLarge(maxUpload)
		}
		return service.PostInput{}, &service.Error{Kind: service.ErrInvalid, Message: "Invalid form submission"}
	}
	return service.PostInput{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Category: r.FormValue("category"),
		Image:    imageHeader(r),
	}, nil
}

func imageHeader(r *http.Request) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File["featured_image"]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	return files[0]
}

// handleNewForm shows an empty post form.
func (h *BlogHandler) handleNewForm(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.renderPostForm(w, r, http.StatusOK, nil, service.PostInput{}, "")
}

// handleCreate stores a new post and redirects to it.
func (h *BlogHandler) handleCreate(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	user := middleware.GetUserInfo(r.Context())
	in, err := h.readPostForm(w, r)
	if err == nil {
		var post *data.BlogPost
		post, err = h.posts.Create(r.Context(), user.ID, in)
		if err == nil {
			middleware.SetFlash(r.Context(), h.sm, "Post created successfully!")
			http.Redirect(w, r, fmt.Sprintf("/blog/%d", post.ID), http.StatusSeeOther)
			return nil
		}
	}
	if errors.Is(err, service.ErrInvalid) {
		return h.renderPostForm(w, r, http.StatusBadRequest, nil, in, service.UserMessage(err))
	}
	return appError(err, "Failed to create post")
}

// handleEditForm shows the form for a post owned by the caller.
func (h *BlogHandler) handleEditForm(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := parseID(r, "id")
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Post not found", Code: http.StatusNotFound}
	}
	post, err := h.posts.GetOwned(r.Context(), id, middleware.GetUserInfo(r.Context()).ID)
	if err != nil {
		return appError(err, "Failed to load post")
	}
	in := service.PostInput{Title: post.Title, Content: post.Content, Category: post.Category}
	return h.renderPostForm(w, r, http.StatusOK, post, in, "")
}

// handleUpdate saves changes to a post owned by the caller.
func (h *BlogHandler) handleUpdate(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := parseID(r, "id")
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Post not found", Code: http.StatusNotFound}
	}
	userID := middleware.GetUserInfo(r.Context()).ID
	in, err := h.readPostForm(w, r)
	if err == nil {
		_, err = h.posts.Update(r.Context(), id, userID, in)
		if err == nil {
			middleware.SetFlash(r.Context(), h.sm, "Post updated successfully!")
			http.Redirect(w, r, fmt.Sprintf("/blog/%d", id), http.StatusSeeOther)
			return nil
		}
	}
	if errors.Is(err, service.ErrInvalid) {
		post, getErr := h.posts.GetOwned(r.Context(), id, userID)
		if getErr != nil {
			return appError(getErr, "Failed to load post")
		}
		return h.renderPostForm(w, r, http.StatusBadRequest, post, in, service.UserMessage(err))
	}
	return appError(err, "Failed to update post")
}

// handleDelete removes a post owned by the caller.
func (h *BlogHandler) handleDelete(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := parseID(r, "id")
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Post not found", Code: http.StatusNotFound}
	}
	if err := h.posts.Delete(r.Context(), id, middleware.GetUserInfo(r.Context()).ID); err != nil {
		return appError(err, "Failed to delete post")
	}
	middleware.SetFlash(r.Context(), h.sm, "Post deleted successfully.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	return nil
}

// handleDashboard lists the caller's own posts.
func (h *BlogHandler) handleDashboard(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	dash, err := h.posts.Dashboard(r.Context(), middleware.GetUserInfo(r.Context()).ID)
	if err != nil {
		return appError(err, "Failed to load dashboard")
	}
	return h.render(w, r, "dashboard.html", map[string]interface{}{
		"Title":     "Dashboard",
		"Dashboard": dash,
	})
}

func ratedCookieName(postID int64) string {
	return "rated_post_" + strconv.FormatInt(postID, 10)
}
