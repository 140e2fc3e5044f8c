package middleware

import (
	"fmt"
	"net/http"

	"soulbalance/internal/logger"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Renderer renders a named page template with a status code, writing nothing
// when rendering fails. *view.View satisfies it.
type Renderer interface {
	RenderStatus(w http.ResponseWriter, r *http.Request, code int, name string, data map[string]interface{}) error
}

// Error is a middleware that converts handler errors into user-friendly error pages.
func Error(log logger.Logger, view Renderer) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					renderError(w, r, log, view, http.StatusInternalServerError, "Internal Server Error")
				}
			}()

			appErr := next(w, r)
			if appErr == nil {
				return
			}
			if appErr.Code >= http.StatusInternalServerError {
				log.Error(appErr.Error, appErr.Message)
			} else {
				log.Debug(fmt.Sprintf("%s %s: %d %s", r.Method, r.URL.Path, appErr.Code, appErr.Message))
			}
			renderError(w, r, log, view, appErr.Code, appErr.Message)
		})
	}
}

func renderError(w http.ResponseWriter, r *http.Request, log logger.Logger, view Renderer, code int, message string) {
	data := map[string]interface{}{
		"Title":      http.StatusText(code),
		"StatusCode": code,
		"StatusText": message,
	}
	if err := view.RenderStatus(w, r, code, "error.html", data); err != nil {
		log.Error(err, "Failed to render error page")
		http.Error(w, message, code)
	}
}
