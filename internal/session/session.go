package session

import (
	"context"
	"net/http"
)

// Session keys shared by the login handlers and the Authenticate middleware.
const (
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyRole     = "role"
	KeyFlash    = "flash"
)

// Manager is an interface that abstracts the session management implementation.
// *scs.SessionManager satisfies it.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetString(ctx context.Context, key string) string
	GetInt64(ctx context.Context, key string) int64
	PopString(ctx context.Context, key string) string
	Exists(ctx context.Context, key string) bool
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
	Remove(ctx context.Context, key string)
}
