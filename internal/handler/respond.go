package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"soulbalance/internal/logger"
	"soulbalance/internal/middleware"
	"soulbalance/internal/service"
	"soulbalance/internal/view"

	"github.com/go-chi/chi/v5"
)

var errBadID = errors.New("invalid id")

// parseID reads a positive int64 URL parameter.
func parseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// formID reads a positive int64 form field, returning 0 when absent or malformed.
func formID(r *http.Request, name string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(name)), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// flexID accepts an id encoded either as a JSON number or as a numeric string.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*f = flexID(n)
	return nil
}

// statusFor maps a service error kind to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// appError converts a service error into an AppError for the HTML error page.
func appError(err error, fallback string) *middleware.AppError {
	code := statusFor(err)
	msg := service.UserMessage(err)
	if msg == "" || code == http.StatusInternalServerError {
		msg = fallback
	}
	return &middleware.AppError{Error: err, Message: msg, Code: code}
}

// renderPage renders a page with the given status. The status is written only
// after the template executed, so a failed render leaves the response untouched
// for the error middleware.
func renderPage(v *view.View, w http.ResponseWriter, r *http.Request, code int, name string, data map[string]interface{}) *middleware.AppError {
	if err := v.RenderStatus(w, r, code, name, data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render page", Code: http.StatusInternalServerError}
	}
	return nil
}

// writeJSON writes the {"success": ..., ...} envelope used by every API response.
func writeJSON(w http.ResponseWriter, code int, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	if _, ok := payload["success"]; !ok {
		payload["success"] = code < http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]interface{}{"message": message})
}

// jsonError writes err with its mapped status. Unexpected errors are logged
// and reported with a generic message.
func jsonError(w http.ResponseWriter, log logger.Logger, err error) {
	code := statusFor(err)
	msg := service.UserMessage(err)
	if code == http.StatusInternalServerError || msg == "" {
		log.Error(err, "Request failed")
		code, msg = http.StatusInternalServerError, "An error occurred"
	}
	jsonMessage(w, code, msg)
}

func trimmed(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
