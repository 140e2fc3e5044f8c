// Package web holds the page templates and static assets compiled into the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templates embed.FS

//go:embed all:static
var static embed.FS

// TemplateFS holds templates/layouts, templates/partials and templates/pages.
var TemplateFS fs.FS = templates

// StaticFS holds the css, js and images directories under static/.
// Serve it through fs.Sub(StaticFS, "static").
var StaticFS fs.FS = static
