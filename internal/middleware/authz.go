package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"soulbalance/internal/logger"

	"github.com/casbin/casbin/v2"
)

// Authorizer creates a new middleware for authorization.
// It checks the caller's role against the Casbin policies for the request path and method.
// Anonymous callers that are denied are sent to the login page, or get a 401 on /api routes.
func Authorizer(e casbin.IEnforcer, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserInfo(r.Context())

			allowed, err := e.Enforce(user.Role, r.URL.Path, r.Method)
			if err != nil {
				log.Error(err, fmt.Sprintf("Authorization check failed for %s %s", r.Method, r.URL.Path))
				http.Error(w, "Authorization error", http.StatusInternalServerError)
				return
			}
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			api := strings.HasPrefix(r.URL.Path, "/api/")
			switch {
			case !user.IsAuthenticated() && api:
				writeJSONError(w, http.StatusUnauthorized, "Please login to continue")
			case !user.IsAuthenticated():
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			case api:
				writeJSONError(w, http.StatusForbidden, "Forbidden")
			default:
				http.Error(w, "Forbidden", http.StatusForbidden)
			}
		})
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": message})
}
