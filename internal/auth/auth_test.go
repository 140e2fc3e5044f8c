//go:build unit

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEnforcer_RoutePermissions(t *testing.T) {
	e, err := NewMemoryEnforcer()
	require.NoError(t, err)

	testCases := []struct {
		role, path, method string
		allowed            bool
	}{
		{RoleAnonymous, "/", "GET", true},
		{RoleAnonymous, "/blog/12", "GET", true},
		{RoleAnonymous, "/category/Yoga Practices", "GET", true},
		{RoleAnonymous, "/api/blog-interactions", "POST", true},
		{RoleAnonymous, "/dashboard", "GET", false},
		{RoleAnonymous, "/blogs/new", "GET", false},
		{RoleAnonymous, "/blog/12/edit", "POST", false},
		{RoleAnonymous, "/api/blogs/12", "DELETE", false},
		{RoleUser, "/dashboard", "GET", true},
		{RoleUser, "/blog/12", "GET", true},
		{RoleUser, "/blog/12/delete", "POST", true},
		{RoleUser, "/api/blogs", "POST", true},
		{RoleAdmin, "/blogs/new", "POST", true},
		{RoleAdmin, "/about", "GET", true},
	}

	for _, tc := range testCases {
		t.Run(tc.role+" "+tc.method+" "+tc.path, func(t *testing.T) {
			ok, err := e.Enforce(tc.role, tc.path, tc.method)
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, ok)
		})
	}
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("namaste123")
	require.NoError(t, err)

	assert.NotEqual(t, "namaste123", hash)
	assert.True(t, CheckPassword(hash, "namaste123"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
	assert.False(t, CheckPassword("not-a-hash", "namaste123"))
}
