package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// View represents a collection of parsed HTML templates.
type View struct {
	templates map[string]*template.Template
	defaults  DefaultsFunc
}

// New creates a new View by parsing all templates from the given filesystem.
// Every page is parsed together with the layouts and partials. extra is merged
// into the built-in template functions.
func New(templateFS fs.FS, extra template.FuncMap) (*View, error) {
	v := &View{
		templates: make(map[string]*template.Template),
	}

	funcs := Funcs()
	for k, fn := range extra {
		funcs[k] = fn
	}

	layouts, err := fs.Glob(templateFS, "templates/layouts/*.html")
	if err != nil {
		return nil, err
	}
	partials, err := fs.Glob(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	shared := append(layouts, partials...)
	for _, page := range pages {
		files := append(append([]string{}, shared...), page)
		name := filepath.Base(page)
		ts, err := template.New(name).Funcs(funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		v.templates[name] = ts
	}

	return v, nil
}

// SetDefaults installs the function that supplies per-request template data.
func (v *View) SetDefaults(fn DefaultsFunc) {
	v.defaults = fn
}

// Has reports whether a page template with the given name exists.
func (v *View) Has(name string) bool {
	_, ok := v.templates[name]
	return ok
}

// Render executes the base layout of a page with status 200.
func (v *View) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) error {
	return v.RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus executes the base layout of a page into a buffer and only then
// writes code and the body. On error nothing has been written to w.
func (v *View) RenderStatus(w http.ResponseWriter, r *http.Request, code int, name string, data map[string]interface{}) error {
	ts, ok := v.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	if v.defaults != nil {
		for k, val := range v.defaults(r) {
			if _, set := data[k]; !set {
				data[k] = val
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		return err
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(code)
	_, err := buf.WriteTo(w)
	return err
}

// Funcs returns the helper functions available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"seq": func(from, to int) []int {
			var out []int
			for i := from; i <= to; i++ {
				out = append(out, i)
			}
			return out
		},
		"initial": func(s string) string {
			if s == "" {
				return "?"
			}
			return strings.ToUpper(string([]rune(s)[0]))
		},
		"stars": func(avg float64) []bool {
			out := make([]bool, 5)
			for i := range out {
				out[i] = float64(i+1) <= avg+0.5
			}
			return out
		},
	}
}
