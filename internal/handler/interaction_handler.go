package handler

import (
	"net/http"
	"strconv"
	"time"

	"soulbalance/internal/logger"
	"soulbalance/internal/middleware"
	"soulbalance/internal/service"
)

// Interaction actions accepted by the interactions endpoint.
const (
	actionAddComment      = "add_comment"
	actionDeleteComment   = "delete_comment"
	actionAddRating       = "add_rating"
	actionAddPublicRating = "add_public_rating"
)

// InteractionHandler serves comment and rating actions as JSON.
type InteractionHandler struct {
	comments *service.CommentService
	ratings  *service.RatingService
	log      logger.Logger
}

// NewInteractionHandler creates a new InteractionHandler.
func NewInteractionHandler(comments *service.CommentService, ratings *service.RatingService, log logger.Logger) *InteractionHandler {
	return &InteractionHandler{comments: comments, ratings: ratings, log: log}
}

// handleInteraction dispatches on the form field "action". Anonymous callers may
// only submit public ratings.
func (h *InteractionHandler) handleInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		jsonMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user := middleware.GetUserInfo(r.Context())
	action := r.FormValue("action")
	if action != actionAddPublicRating && !user.IsAuthenticated() {
		jsonMessage(w, http.StatusUnauthorized, "Please login to interact")
		return
	}

	postID := formID(r, "post_id")
	if postID <= 0 {
		jsonMessage(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	switch action {
	case actionAddComment:
		c, err := h.comments.Add(r.Context(), postID, user.ID, r.FormValue("comment"))
		if err != nil {
			jsonError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Comment added successfully", "comment": c})

	case actionDeleteComment:
		if err := h.comments.Delete(r.Context(), formID(r, "comment_id"), user.ID); err != nil {
			jsonError(w, h.log, err)
			return
		}
		jsonMessage(w, http.StatusOK, "Comment deleted successfully")

	case actionAddRating:
		summary, err := h.ratings.Rate(r.Context(), postID, user.ID, formRating(r))
		if err != nil {
			jsonError(w, h.log, err)
			return
		}
		writeRating(w, summary)

	case actionAddPublicRating:
		summary, err := h.ratings.RatePublic(r.Context(), postID, middleware.ClientIP(r), formRating(r))
		if err != nil {
			jsonError(w, h.log, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     ratedCookieName(postID),
			Value:    "1",
			Path:     "/",
			Expires:  time.Now().AddDate(1, 0, 0),
			SameSite: http.SameSiteLaxMode,
		})
		writeRating(w, summary)

	default:
		jsonMessage(w, http.StatusBadRequest, "Invalid action")
	}
}

func formRating(r *http.Request) int {
	n, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil {
		return 0
	}
	return n
}

func writeRating(w http.ResponseWriter, s service.RatingSummary) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Rating submitted successfully",
		"avg_rating":    s.Average,
		"total_ratings": s.Total,
	})
}
