package site

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// FS returns an http.FileSystem for the embedded static assets.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}

var funcs = template.FuncMap{
	"initial": func(s string) string {
		for _, r := range s {
			return string(r)
		}
		return ""
	},
	"fieldError": func(errs map[string]string, field string) string {
		return errs[field]
	},
	"isoDate": func(t time.Time) string { return t.Format(time.DateOnly) },
	"inline":  inlineHTML,
	"plain":   plainText,
}

func parseTemplates() (*template.Template, error) {
	return template.New("page").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
}
