package mutator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/driftbench/internal/locator"
)

// Manifest lists, per page, the files that declare the page's elements.
// Paths are relative to the mutator's directory.
type Manifest map[locator.Page][]string

// Recorder receives every completed mutation, e.g. to persist it.
type Recorder interface {
	RecordMutation(ctx context.Context, result *MutationResult) error
}

// FileChange summarises the effect of a mutation on one file.
type FileChange struct {
	Path          string `json:"path"`
	Substitutions int    `json:"substitutions"`
	Changed       bool   `json:"changed"`
}

// MutationResult is the outcome of Mutate or Restore.
type MutationResult struct {
	Page      locator.Page      `json:"page"`
	Direction locator.Direction `json:"direction"`
	Files     []FileChange      `json:"files"`

	// Substitutions is the total number of attribute values rewritten.
	Substitutions int `json:"substitutions"`

	// AlreadyApplied lists pairs whose target name was already in place.
	AlreadyApplied []locator.Pair `json:"already_applied,omitempty"`

	// Warnings lists pairs with no substitution site at all.
	Warnings []PartialMutationWarning `json:"warnings,omitempty"`
}

// Changed reports whether any file was rewritten.
func (r *MutationResult) Changed() bool {
	return r.Substitutions > 0
}

// Mutator rewrites the template files of a page in place.
//
// It assumes a single writer: running Mutate concurrently against the same
// page from two processes races on the files.
type Mutator struct {
	dir      string
	manifest Manifest
	maps     *locator.RenameMaps
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mutator) { m.logger = l }
}

// WithRecorder sets a recorder notified after each successful mutation.
func WithRecorder(r Recorder) Option {
	return func(m *Mutator) { m.recorder = r }
}

// New creates a Mutator over the files in dir.
func New(dir string, manifest Manifest, maps *locator.RenameMaps, opts ...Option) *Mutator {
	m := &Mutator{
		dir:      dir,
		manifest: manifest,
		maps:     maps,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore rewrites page back to its canonical names.
// It is Mutate(ctx, page, locator.ToCanonical).
func (m *Mutator) Restore(ctx context.Context, page locator.Page) (*MutationResult, error) {
	return m.Mutate(ctx, page, locator.ToCanonical)
}

// Mutate applies the page's rename map in dir to every file of the page.
//
// Execution flow:
//  1. Resolve pairs and files; unknown pages fail with a ConfigurationError
//     before any file is touched
//  2. Read every file; any read failure aborts with an IOError
//  3. Rewrite in memory and classify each pair (replaced, already applied,
//     or missing; missing pairs become PartialMutationWarnings)
//  4. Write changed files, each atomically via temp file and rename
//
// Calling Mutate twice with the same direction is a no-op the second time.
func (m *Mutator) Mutate(ctx context.Context, page locator.Page, dir locator.Direction) (*MutationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs, err := m.maps.Pairs(page, dir)
	if err != nil {
		return nil, err
	}
	files, ok := m.manifest[page]
	if !ok || len(files) == 0 {
		return nil, &locator.ConfigurationError{Page: page, Reason: "no source files declared for page"}
	}

	type source struct {
		path string
		perm os.FileMode
		data []byte
	}
	sources := make([]source, 0, len(files))
	for _, f := range files {
		path := filepath.Join(m.dir, f)
		info, err := os.Stat(path)
		if err != nil {
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}
		sources = append(sources, source{path: path, perm: info.Mode().Perm(), data: data})
	}

	result := &MutationResult{Page: page, Direction: dir}
	total := newStats()
	outputs := make([][]byte, len(sources))
	for i, src := range sources {
		out, stats, err := Rewrite(src.data, pairs)
		if err != nil {
			return nil, fmt.Errorf("rewrite %s: %w", src.path, err)
		}
		outputs[i] = out
		total.merge(stats)
		result.Files = append(result.Files, FileChange{
			Path:          src.path,
			Substitutions: stats.Total(),
			Changed:       stats.Total() > 0,
		})
	}
	result.Substitutions = total.Total()

	for _, p := range pairs {
		switch {
		case total.Replaced[p.From] > 0:
		case total.Targets[p.To] > 0:
			result.AlreadyApplied = append(result.AlreadyApplied, p)
		default:
			w := PartialMutationWarning{Page: page, Direction: dir, Pair: p}
			result.Warnings = append(result.Warnings, w)
			m.logger.Warn("substitution site absent",
				"page", page,
				"direction", dir,
				"from", p.From,
				"to", p.To,
			)
		}
	}

	for i, src := range sources {
		if !result.Files[i].Changed {
			continue
		}
		if err := writeFileAtomic(src.path, outputs[i], src.perm); err != nil {
			return nil, &IOError{Op: "write", Path: src.path, Err: err}
		}
	}

	m.logger.Info("mutation applied",
		"page", page,
		"direction", dir,
		"substitutions", result.Substitutions,
		"already_applied", len(result.AlreadyApplied),
		"warnings", len(result.Warnings),
	)

	if m.recorder != nil {
		if err := m.recorder.RecordMutation(ctx, result); err != nil {
			return result, fmt.Errorf("record mutation: %w", err)
		}
	}

	return result, nil
}

// writeFileAtomic replaces path with data so readers never see a partial
// file: write to a sibling temp file, sync, then rename over the original.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
