package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/driftbench/internal/app"
)

// TemplatesOptions holds flags for the templates export command.
type TemplatesOptions struct {
	*RootOptions
	Force bool
}

// ExportResult is the JSON payload of templates export.
type ExportResult struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// NewTemplatesCommand creates the templates command group.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage the shop's page templates",
	}
	cmd.AddCommand(newTemplatesExportCommand(rootOpts))
	return cmd
}

func newTemplatesExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TemplatesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the built-in templates to a directory",
		Long: `Write the built-in page templates to dir, so they can be served with
--templates and rewritten in place by mutate.

Example:
  driftbench templates export ./web
  driftbench mutate login --templates ./web`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			files, err := app.ExportTemplates(args[0], opts.Force)
			if err != nil {
				return formatter.Fail(ErrCodeWriteFailed, "export templates", err)
			}
			result := ExportResult{Dir: args[0], Files: files}
			return formatter.Emit(result, func(w io.Writer) error {
				fmt.Fprintf(w, "✓ Wrote %d template(s) to %s\n", len(files), args[0])
				for _, f := range files {
					formatter.VerboseLog("  %s", f)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite existing files")

	return cmd
}
