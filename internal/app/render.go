package app

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"sync"

	"github.com/roach88/driftbench/internal/locator"
	"github.com/roach88/driftbench/internal/mutator"
)

// Renderer executes page templates and applies the active drift.
type Renderer struct {
	fsys   fs.FS
	reload bool
	maps   *locator.RenameMaps

	mu   sync.Mutex
	tmpl *template.Template
}

// NewRenderer parses the templates in fsys. With reload set, templates
// are parsed again on every Render.
func NewRenderer(fsys fs.FS, reload bool, maps *locator.RenameMaps) (*Renderer, error) {
	tmpl, err := parseTemplates(fsys)
	if err != nil {
		return nil, err
	}
	return &Renderer{fsys: fsys, reload: reload, maps: maps, tmpl: tmpl}, nil
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	tmpl, err := template.New("").ParseFS(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

func (r *Renderer) templates() (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reload {
		tmpl, err := parseTemplates(r.fsys)
		if err != nil {
			return nil, err
		}
		r.tmpl = tmpl
	}
	return r.tmpl, nil
}

// Render executes view with data. When page is non-empty and drift holds
// a direction for it, the page's rename map is applied to the output.
//
// Execution flow:
//  1. Obtain templates (re-parsed when reloading)
//  2. Execute view into a buffer
//  3. Apply mutator.Render for the page's direction, if any
func (r *Renderer) Render(view string, page locator.Page, data any, drift locator.DriftState) ([]byte, error) {
	tmpl, err := r.templates()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, view, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", view, err)
	}

	if page == "" {
		return buf.Bytes(), nil
	}
	dir, ok := drift.Direction(page)
	if !ok {
		return buf.Bytes(), nil
	}
	return mutator.Render(buf.Bytes(), r.maps, page, dir)
}
