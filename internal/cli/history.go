package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/driftbench/internal/harness"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB        string
	Limit     int
	Mutations bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id|latest]",
		Short: "Show recorded runs and mutations",
		Long: `Show the run ledger. Without arguments, list recent runs. With a run ID,
or "latest", print that run's summary. --mutations lists recorded
template mutations instead.

Examples:
  driftbench history --db ./driftbench.db
  driftbench history latest --db ./driftbench.db
  driftbench history --mutations --db ./driftbench.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "run ledger path")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum rows to list (0 = all)")
	cmd.Flags().BoolVar(&opts.Mutations, "mutations", false, "list mutations instead of runs")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(cmd, map[string]string{"db": "db"})
	if err != nil {
		return formatter.Fail(ErrorCode(err), "load config", err)
	}
	if cfg.DB == "" {
		return formatter.Fail(ErrCodeConfig, "no ledger: pass --db or set db in the config file", nil)
	}
	ledger, err := openLedger(cfg)
	if err != nil {
		return formatter.Fail(ErrCodeLedger, "open ledger", err)
	}
	defer ledger.Close()

	ctx := cmd.Context()

	if len(args) == 1 {
		var report *harness.Report
		if args[0] == "latest" {
			report, err = ledger.LatestRun(ctx)
		} else {
			report, err = ledger.ReadRun(ctx, args[0])
		}
		if err != nil {
			return formatter.Fail(ErrorCode(err), "read run", err)
		}
		return formatter.Emit(report, func(w io.Writer) error {
			fmt.Fprintf(w, "run %s (%s, %s)\n", report.RunID, report.Driver, report.StartedAt.Format(time.RFC3339))
			return harness.WriteSummary(w, report, true)
		})
	}

	if opts.Mutations {
		records, err := ledger.ListMutations(ctx, opts.Limit)
		if err != nil {
			return formatter.Fail(ErrCodeLedger, "list mutations", err)
		}
		return formatter.Emit(records, func(w io.Writer) error {
			if len(records) == 0 {
				_, err := fmt.Fprintln(w, "No mutations recorded.")
				return err
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tPAGE\tDIRECTION\tSUBSTITUTIONS\tALREADY\tWARNINGS\tRECORDED")
			for _, m := range records {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
					m.Seq, m.Page, m.Direction, m.Substitutions, m.AlreadyApplied, len(m.Warnings),
					m.RecordedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		})
	}

	runs, err := ledger.ListRuns(ctx, opts.Limit)
	if err != nil {
		return formatter.Fail(ErrCodeLedger, "list runs", err)
	}
	return formatter.Emit(runs, func(w io.Writer) error {
		if len(runs) == 0 {
			_, err := fmt.Fprintln(w, "No runs recorded.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tRUN\tDRIVER\tDRIFT\tPASSED\tFAILED\tSTARTED")
		for _, r := range runs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
				r.Seq, r.ID, r.Driver, r.Drift, r.Passed, r.Failed, r.StartedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	})
}
