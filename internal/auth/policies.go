package auth

import (
	"fmt"
	"soulbalance/internal/logger"

	"github.com/casbin/casbin/v2"
)

// Role names used as casbin subjects.
const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
	RoleAdmin     = "admin"
)

// DefaultPolicies are the baseline route permissions.
var DefaultPolicies = [][]string{
	// Anyone can read and use the public forms.
	{RoleAnonymous, "/", "GET"},
	{RoleAnonymous, "/blogs", "GET"},
	{RoleAnonymous, "/categories", "GET"},
	{RoleAnonymous, "/category/:name", "GET"},
	{RoleAnonymous, "/blog/:id", "GET"},
	{RoleAnonymous, "/about", "GET"},
	{RoleAnonymous, "/contact", "GET"},
	{RoleAnonymous, "/contact", "POST"},
	{RoleAnonymous, "/login", "GET"},
	{RoleAnonymous, "/login", "POST"},
	{RoleAnonymous, "/register", "GET"},
	{RoleAnonymous, "/register", "POST"},
	{RoleAnonymous, "/auth/sso/login", "GET"},
	{RoleAnonymous, "/auth/sso/callback", "GET"},
	{RoleAnonymous, "/api/auth/login", "POST"},
	{RoleAnonymous, "/api/auth/register", "POST"},
	{RoleAnonymous, "/api/auth/logout", "POST"},
	{RoleAnonymous, "/api/blogs", "GET"},
	{RoleAnonymous, "/api/blogs/:id", "GET"},
	// Per-action checks happen in the handler; public ratings need no login.
	{RoleAnonymous, "/api/blog-interactions", "*"},

	// Registered users manage their own content.
	{RoleUser, "/dashboard", "GET"},
	{RoleUser, "/logout", "POST"},
	{RoleUser, "/blogs/new", "GET"},
	{RoleUser, "/blogs/new", "POST"},
	{RoleUser, "/blog/:id/edit", "GET"},
	{RoleUser, "/blog/:id/edit", "POST"},
	{RoleUser, "/blog/:id/delete", "POST"},
	{RoleUser, "/api/blogs", "POST"},
	{RoleUser, "/api/blogs/:id", "PUT"},
	{RoleUser, "/api/blogs/:id", "POST"},
	{RoleUser, "/api/blogs/:id", "DELETE"},
}

// DefaultRoles lists role inheritance: the first role gains the second's permissions.
var DefaultRoles = [][2]string{
	{RoleUser, RoleAnonymous},
	{RoleAdmin, RoleUser},
}

// SeedDefaultPolicies ensures that the application has a baseline set of authorization rules.
// It checks if each default policy exists before adding it, making the operation idempotent
// and safe to run on every application start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")
	for _, p := range DefaultPolicies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}
	for _, r := range DefaultRoles {
		if has, _ := e.HasRoleForUser(r[0], r[1]); !has {
			if _, err := e.AddRoleForUser(r[0], r[1]); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add role '%s' -> '%s'", r[0], r[1]))
			}
		}
	}
	log.Info("Policy seeding complete.")
}

func addDefaults(e casbin.IEnforcer) error {
	for _, p := range DefaultPolicies {
		if _, err := e.AddPolicy(p); err != nil {
			return err
		}
	}
	for _, r := range DefaultRoles {
		if _, err := e.AddRoleForUser(r[0], r[1]); err != nil {
			return err
		}
	}
	return nil
}
