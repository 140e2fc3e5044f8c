package middleware

import (
	"net/http"
	"time"

	"soulbalance/internal/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger writes one structured access-log entry per request.
// Server errors are logged at warn level.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				entry := log.With(map[string]interface{}{
					"request_id": chimw.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     status,
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
					"remote":     ClientIP(r),
				})
				if status >= http.StatusInternalServerError {
					entry.Warn("request failed")
					return
				}
				entry.Info("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
