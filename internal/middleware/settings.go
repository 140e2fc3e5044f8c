package middleware

import (
	"context"
	"net/http"
	"strings"

	"soulbalance/internal/session"
)

type flashKey string

// FlashKey is the request context key holding the flash message popped for this request.
const FlashKey flashKey = "flash"

// Flash pops the one-shot flash message from the session and makes it available
// to templates for the current request through GetFlash. API requests leave it in place.
func Flash(sm session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}
			msg := sm.PopString(r.Context(), session.KeyFlash)
			ctx := context.WithValue(r.Context(), FlashKey, msg)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetFlash returns the flash message for the current request, if any.
func GetFlash(ctx context.Context) string {
	msg, _ := ctx.Value(FlashKey).(string)
	return msg
}

// SetFlash stores a message to show on the next rendered page.
func SetFlash(ctx context.Context, sm session.Manager, msg string) {
	sm.Put(ctx, session.KeyFlash, msg)
}
