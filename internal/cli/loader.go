package cli

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/driftbench/internal/app"
	"github.com/roach88/driftbench/internal/config"
	"github.com/roach88/driftbench/internal/harness"
	"github.com/roach88/driftbench/internal/locator"
	"github.com/roach88/driftbench/internal/store"
)

// allPages is the page argument that selects every mapped page.
const allPages = "all"

// loadRenameMaps returns the override maps from cfg.Maps, or the defaults.
func loadRenameMaps(cfg *config.Config) (*locator.RenameMaps, error) {
	if cfg.Maps == "" {
		return locator.DefaultRenameMaps(), nil
	}
	return locator.LoadRenameMaps(cfg.Maps, locator.Default())
}

// parsePages resolves page arguments. "all" expands to every mapped page;
// duplicates are dropped.
func parsePages(args []string, maps *locator.RenameMaps) ([]locator.Page, error) {
	var pages []locator.Page
	seen := make(map[locator.Page]bool)
	add := func(p locator.Page) {
		if !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	for _, arg := range args {
		for _, item := range strings.Split(arg, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if item == allPages {
				for _, p := range maps.Pages() {
					add(p)
				}
				continue
			}
			p, err := locator.ParsePage(item)
			if err != nil {
				return nil, err
			}
			if _, err := maps.Map(p); err != nil {
				return nil, err
			}
			add(p)
		}
	}
	return pages, nil
}

// templateSource returns the template directory of cfg, re-read on every
// render, or the embedded templates.
func templateSource(cfg *config.Config) (fs.FS, bool, error) {
	if cfg.Templates == "" {
		return app.DefaultTemplates(), false, nil
	}
	info, err := os.Stat(cfg.Templates)
	if err != nil {
		return nil, false, fmt.Errorf("template directory: %w", err)
	}
	if !info.IsDir() {
		return nil, false, fmt.Errorf("template directory: %s is not a directory", cfg.Templates)
	}
	return os.DirFS(cfg.Templates), true, nil
}

// newServer builds the demo application described by cfg.
func newServer(cfg *config.Config, maps *locator.RenameMaps, logger *slog.Logger) (*app.Server, error) {
	fsys, reload, err := templateSource(cfg)
	if err != nil {
		return nil, err
	}
	drift, err := cfg.DriftState()
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(logger),
		app.WithRenameMaps(maps),
		app.WithTemplates(fsys, reload),
		app.WithDrift(drift),
	)
}

// loadSuite loads scenarios from dir, or the built-in catalog when dir is
// empty, and keeps those named in run.
func loadSuite(reg *locator.Registry, dir string, run []string) ([]*harness.Scenario, error) {
	var (
		scenarios []*harness.Scenario
		err       error
	)
	if dir == "" {
		scenarios, err = harness.LoadCatalog(reg)
	} else {
		scenarios, err = harness.LoadScenarioDir(dir, reg)
	}
	if err != nil {
		return nil, err
	}
	return harness.Select(scenarios, run)
}

// openLedger opens cfg.DB, or returns nil when no ledger is configured.
func openLedger(cfg *config.Config) (*store.Store, error) {
	if cfg.DB == "" {
		return nil, nil
	}
	return store.Open(cfg.DB)
}
