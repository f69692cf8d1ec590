package app

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/driftbench/internal/locator"
	"github.com/roach88/driftbench/internal/mutator"
)

//go:embed templates/*.html
var embedded embed.FS

// DefaultTemplates returns the embedded page templates.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// PageFiles returns the template files that declare each page's elements.
// Partials are listed with the page that includes them.
func PageFiles() mutator.Manifest {
	return mutator.Manifest{
		locator.PageLogin: {"login.html", "login_form.html"},
		locator.PageCart:  {"cart.html", "cart_items.html", "cart_summary.html"},
	}
}

// ExportTemplates writes the embedded templates to dir so they can be
// served with --templates and mutated in place. Existing files are only
// replaced when overwrite is set.
func ExportTemplates(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create template dir: %w", err)
	}

	src := DefaultTemplates()
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return nil, fmt.Errorf("list embedded templates: %w", err)
	}

	var written []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		dst := filepath.Join(dir, e.Name())
		if !overwrite {
			if _, err := os.Stat(dst); err == nil {
				return written, fmt.Errorf("template %s already exists (use --force to overwrite)", dst)
			}
		}
		data, err := fs.ReadFile(src, e.Name())
		if err != nil {
			return written, fmt.Errorf("read embedded template %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return written, fmt.Errorf("write template %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}
