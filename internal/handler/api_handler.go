package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"soulbalance/internal/logger"
	"soulbalance/internal/middleware"
	"soulbalance/internal/service"
)

// APIHandler serves the JSON blog API.
type APIHandler struct {
	posts     *service.PostService
	log       logger.Logger
	maxUpload int64
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(posts *service.PostService, log logger.Logger, maxUpload int64) *APIHandler {
	return &APIHandler{posts: posts, log: log, maxUpload: maxUpload}
}

// postPayload is the JSON body of create and update requests. ID is optional
// and, when present, must match the URL.
type postPayload struct {
	ID       flexID `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// readInput accepts a JSON body, or a multipart form that may carry an image.
func (h *APIHandler) readInput(w http.ResponseWriter, r *http.Request) (service.PostInput, int64, error) {
	if isJSON(r) {
		var p postPayload
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
			return service.PostInput{}, 0, &service.Error{Kind: service.ErrInvalid, Message: "Invalid request body"}
		}
		return service.PostInput{Title: p.Title, Content: p.Content, Category: p.Category}, int64(p.ID), nil
	}
	in, err := readPostInput(w, r, h.maxUpload)
	return in, formID(r, "id"), err
}

// handleList returns every post, or the posts of ?user_id=.
func (h *APIHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			jsonMessage(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		userID = id
	}
	posts, err := h.posts.ListByUser(r.Context(), userID)
	if err != nil {
		jsonError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(posts), "posts": posts})
}

// handleGet returns one post.
func (h *APIHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		jsonMessage(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		jsonError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"post": post})
}

// handleCreate creates a post owned by the caller.
func (h *APIHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, _, err := h.readInput(w, r)
	if err != nil {
		jsonError(w, h.log, err)
		return
	}
	post, err := h.posts.Create(r.Context(), middleware.GetUserInfo(r.Context()).ID, in)
	if err != nil {
		jsonError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Blog post created successfully", "post": post})
}

// handleUpdate updates a post owned by the caller.
func (h *APIHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		jsonMessage(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	in, bodyID, err := h.readInput(w, r)
	if err != nil {
		jsonError(w, h.log, err)
		return
	}
	if bodyID != 0 && bodyID != id {
		jsonMessage(w, http.StatusBadRequest, "Post ID mismatch")
		return
	}
	post, err := h.posts.Update(r.Context(), id, middleware.GetUserInfo(r.Context()).ID, in)
	if err != nil {
		jsonError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Blog post updated successfully", "post": post})
}

// handleDelete deletes a post owned by the caller.
func (h *APIHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		jsonMessage(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	if err := h.posts.Delete(r.Context(), id, middleware.GetUserInfo(r.Context()).ID); err != nil {
		jsonError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Blog post deleted successfully", "post_id": id})
}
