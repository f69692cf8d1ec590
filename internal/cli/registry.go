package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/driftbench/internal/locator"
)

// RegistryOptions holds flags for the registry command.
type RegistryOptions struct {
	*RootOptions
	Maps string
	Plan bool
}

// RegistryRow describes one locator.
type RegistryRow struct {
	Page    locator.Page `json:"page"`
	Name    locator.Name `json:"name"`
	Role    locator.Role `json:"role"`
	Drifted locator.Name `json:"drifted,omitempty"`
}

// NewRegistryCommand creates the registry command.
func NewRegistryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegistryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "registry [page]...",
		Short: "List locator names and their drifted replacements",
		Long: `List every canonical locator name with its page, role, and the name the
rename map drifts it to. --plan prints the substitutions mutate would make.

Examples:
  driftbench registry
  driftbench registry login --plan
  driftbench registry --maps ./maps.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegistry(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Maps, "maps", "", "rename map override file (yaml)")
	cmd.Flags().BoolVar(&opts.Plan, "plan", false, "print rename plans instead of the name table")

	return cmd
}

func runRegistry(opts *RegistryOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(cmd, map[string]string{"maps": "maps"})
	if err != nil {
		return formatter.Fail(ErrorCode(err), "load config", err)
	}
	maps, err := loadRenameMaps(cfg)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "load rename maps", err)
	}
	reg := maps.Registry()

	pages := reg.Pages()
	if len(args) > 0 {
		pages = nil
		for _, arg := range args {
			p, err := locator.ParsePage(arg)
			if err != nil {
				return formatter.Fail(ErrCodeConfig, "invalid page", err)
			}
			pages = append(pages, p)
		}
	}

	if opts.Plan {
		var plans []string
		for _, p := range pages {
			plan, err := maps.Plan(p, locator.ToDrifted)
			if err != nil {
				return formatter.Fail(ErrCodeConfig, "plan", err)
			}
			plans = append(plans, plan)
		}
		return formatter.Emit(plans, func(w io.Writer) error {
			for _, plan := range plans {
				fmt.Fprint(w, plan)
			}
			return nil
		})
	}

	rows := []RegistryRow{}
	for _, p := range pages {
		for _, e := range reg.Entries(p) {
			row := RegistryRow{Page: e.Page, Name: e.Name, Role: e.Role}
			if to, ok := maps.Translate(p, e.Name, locator.ToDrifted); ok {
				row.Drifted = to
			}
			rows = append(rows, row)
		}
	}

	return formatter.Emit(rows, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PAGE\tNAME\tROLE\tDRIFTED")
		for _, r := range rows {
			drifted := string(r.Drifted)
			if drifted == "" {
				drifted = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Page, r.Name, r.Role, drifted)
		}
		return tw.Flush()
	})
}
