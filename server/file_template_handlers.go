package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	contentTypeHTML = "text/html; charset=utf-8"
	baseTemplate    = "base.html"
)

var pageNames = []string{
	"login.html",
	"loading.html",
	"app.html",
	"patients.html",
	"appointments.html",
	"clinic.html",
	"staff.html",
	"billing.html",
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page from the embedded filesystem on top of the
// shared base layout.
func ParseTemplate(name string) (*template.Template, error) {
	fsys := TemplateFilesFS()
	base, err := fs.ReadFile(fsys, baseTemplate)
	if err != nil {
		return nil, err
	}
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Parse(string(base))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", baseTemplate, err)
	}
	if _, err := tmpl.Parse(string(content)); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return tmpl, nil
}

type pages struct {
	byName map[string]*template.Template
}

func parsePages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, err
		}
		p.byName[name] = tmpl
	}
	return p, nil
}

func (p *pages) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := p.byName[name]
	if !ok {
		log.Error().Str("template", name).Msg("Unknown template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		log.Err(err).Str("template", name).Msg("Failed to render template")
	}
}
