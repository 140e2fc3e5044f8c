package view

import (
	"net/http"
	"time"
)

// DefaultsFunc supplies template data shared by every page of a request, such as
// the current user and the flash message. Values set by the handler win.
type DefaultsFunc func(r *http.Request) map[string]interface{}

// Site holds the static settings shown in the layout.
type Site struct {
	Name       string
	Categories []string
}

// SiteDefaults returns a DefaultsFunc exposing site settings plus whatever
// request-scoped values perRequest yields.
func SiteDefaults(site Site, perRequest DefaultsFunc) DefaultsFunc {
	return func(r *http.Request) map[string]interface{} {
		data := map[string]interface{}{
			"Site": site,
			"Year": time.Now().Year(),
			"Path": r.URL.Path,
		}
		if perRequest != nil {
			for k, v := range perRequest(r) {
				data[k] = v
			}
		}
		return data
	}
}
