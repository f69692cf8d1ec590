package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/driftbench/internal/app"
	"github.com/roach88/driftbench/internal/locator"
	"github.com/roach88/driftbench/internal/mutator"
)

// MutateOptions holds flags for the mutate and restore commands.
type MutateOptions struct {
	*RootOptions
	Direction string
	Templates string
	Maps      string
	DB        string
	DryRun    bool
}

// MutateResult is the JSON payload of mutate and restore.
type MutateResult struct {
	DryRun    bool                      `json:"dry_run,omitempty"`
	Plans     []string                  `json:"plans,omitempty"`
	Mutations []*mutator.MutationResult `json:"mutations,omitempty"`
}

// NewMutateCommand creates the mutate command.
func NewMutateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MutateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mutate <page>...",
		Short: "Rename a page's locators in the template files",
		Long: `Apply the rename map of each page to its template files in place.

Only exact data-testid attribute values are rewritten. Running mutate twice
in the same direction changes nothing the second time. Pages are login,
cart, or all.

Examples:
  driftbench mutate login --templates ./web
  driftbench mutate all --templates ./web --direction canonical
  driftbench mutate cart --templates ./web --dry-run`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := locator.ParseDirection(opts.Direction)
			if err != nil {
				return opts.formatter(cmd).Fail(ErrCodeConfig, "invalid --direction", err)
			}
			return runMutate(opts, args, dir, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", "drifted", "target names (drifted|canonical)")
	addMutateFlags(cmd, opts)

	return cmd
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MutateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore <page>...",
		Short: "Restore a page's canonical locators",
		Long: `Rewrite each page's template files back to canonical names.

Equivalent to mutate --direction canonical.

Example:
  driftbench restore all --templates ./web`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutate(opts, args, locator.ToCanonical, cmd)
		},
	}

	addMutateFlags(cmd, opts)

	return cmd
}

func addMutateFlags(cmd *cobra.Command, opts *MutateOptions) {
	cmd.Flags().StringVar(&opts.Templates, "templates", "", "template directory to rewrite")
	cmd.Flags().StringVar(&opts.Maps, "maps", "", "rename map override file (yaml)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "run ledger to record mutations in")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the rename plan without touching files")
}

func runMutate(opts *MutateOptions, args []string, dir locator.Direction, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(cmd, map[string]string{
		"templates": "templates",
		"maps":      "maps",
		"db":        "db",
	})
	if err != nil {
		return formatter.Fail(ErrorCode(err), "load config", err)
	}
	logger := opts.logger(cmd, cfg)

	maps, err := loadRenameMaps(cfg)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "load rename maps", err)
	}
	pages, err := parsePages(args, maps)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "invalid page", err)
	}

	if opts.DryRun {
		result := MutateResult{DryRun: true}
		for _, p := range pages {
			plan, err := maps.Plan(p, dir)
			if err != nil {
				return formatter.Fail(ErrCodeConfig, "plan", err)
			}
			result.Plans = append(result.Plans, plan)
		}
		return formatter.Emit(result, func(w io.Writer) error {
			for _, plan := range result.Plans {
				fmt.Fprint(w, plan)
			}
			return nil
		})
	}

	if cfg.Templates == "" {
		return formatter.Fail(ErrCodeConfig, "no template directory: pass --templates or set templates in the config file", nil)
	}

	var mopts []mutator.Option
	mopts = append(mopts, mutator.WithLogger(logger))
	ledger, err := openLedger(cfg)
	if err != nil {
		return formatter.Fail(ErrCodeLedger, "open ledger", err)
	}
	if ledger != nil {
		defer func() {
			if closeErr := ledger.Close(); closeErr != nil {
				logger.Error("error closing ledger", "error", closeErr)
			}
		}()
		mopts = append(mopts, mutator.WithRecorder(ledger))
	}

	m := mutator.New(cfg.Templates, app.PageFiles(), maps, mopts...)
	result := MutateResult{}
	for _, p := range pages {
		formatter.VerboseLog("Mutating %s (%s)", p, dir)
		res, err := m.Mutate(cmd.Context(), p, dir)
		if err != nil {
			return formatter.Fail(ErrorCode(err), fmt.Sprintf("mutate %s", p), err)
		}
		result.Mutations = append(result.Mutations, res)
	}

	return formatter.Emit(result, func(w io.Writer) error {
		for _, res := range result.Mutations {
			writeMutation(w, res)
		}
		return nil
	})
}

func writeMutation(w io.Writer, res *mutator.MutationResult) {
	mark := "✓"
	if len(res.Warnings) > 0 {
		mark = "⚠"
	}
	fmt.Fprintf(w, "%s %s -> %s: %d substitution(s)", mark, res.Page, res.Direction, res.Substitutions)
	if n := len(res.AlreadyApplied); n > 0 {
		fmt.Fprintf(w, ", %d already applied", n)
	}
	fmt.Fprintln(w)
	for _, f := range res.Files {
		if f.Changed {
			fmt.Fprintf(w, "  %s: %d\n", filepath.Base(f.Path), f.Substitutions)
		}
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}
