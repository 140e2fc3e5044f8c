package middleware

import (
	"context"
	"net/http"

	"soulbalance/internal/auth"
	"soulbalance/internal/session"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

// UserInfo is the caller identity for one request. ID is 0 for anonymous visitors.
type UserInfo struct {
	ID       int64
	Username string
	Role     string
}

// IsAuthenticated reports whether the request belongs to a logged-in user.
func (u *UserInfo) IsAuthenticated() bool {
	return u != nil && u.ID > 0
}

var anonymous = &UserInfo{Role: auth.RoleAnonymous}

// GetUserInfo retrieves the user information from the request context.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	// Return an anonymous user if no user info is found in the context.
	return anonymous
}

// SetUserInfo adds the user information to the request context.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}

// Authenticate builds the request's UserInfo from the session once, so handlers
// and the authorizer read a typed identity instead of raw session values.
func Authenticate(sm session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := anonymous
			if id := sm.GetInt64(r.Context(), session.KeyUserID); id > 0 {
				role := sm.GetString(r.Context(), session.KeyRole)
				if role == "" {
					role = auth.RoleUser
				}
				info = &UserInfo{
					ID:       id,
					Username: sm.GetString(r.Context(), session.KeyUsername),
					Role:     role,
				}
			}
			next.ServeHTTP(w, r.WithContext(SetUserInfo(r.Context(), info)))
		})
	}
}
