package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/driftbench/internal/config"
	"github.com/roach88/driftbench/internal/harness"
	"github.com/roach88/driftbench/internal/locator"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	BaseURL   string
	Templates string
	Maps      string
	Drift     []string
	Scenarios string   // scenario directory (default: built-in catalog)
	Run       []string // scenario names to run
	Heal      []string // pages whose locators are healed before running
	Browser   bool
	RemoteURL string
	Workers   int
	DB        string
	Details   bool
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the end-to-end suite",
		Long: `Run the end-to-end scenarios against the demo shop.

Without --base-url the shop is started in-process on a loopback port, with
--templates and --drift applied. Each scenario runs in a fresh session.
--heal rewrites the scenarios to the drifted names of the given pages, the
way a healing tool would, so a drifted run can be shown to pass again.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid config, unknown scenario, etc.)

Examples:
  driftbench test
  driftbench test --drift login
  driftbench test --drift login --heal login
  driftbench test --base-url http://127.0.0.1:8080 --run login_success
  driftbench test --browser --db ./driftbench.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "run against an already running shop")
	cmd.Flags().StringVar(&opts.Templates, "templates", "", "template directory for the in-process shop")
	cmd.Flags().StringVar(&opts.Maps, "maps", "", "rename map override file (yaml)")
	cmd.Flags().StringSliceVar(&opts.Drift, "drift", nil, "render-time drift for the in-process shop")
	cmd.Flags().StringVar(&opts.Scenarios, "scenarios", "", "scenario directory (default: built-in catalog)")
	cmd.Flags().StringSliceVar(&opts.Run, "run", nil, "only run the named scenarios")
	cmd.Flags().StringSliceVar(&opts.Heal, "heal", nil, "heal locators of these pages (login, cart, all)")
	cmd.Flags().BoolVar(&opts.Browser, "browser", false, "drive a real Chrome instead of the HTTP driver")
	cmd.Flags().StringVar(&opts.RemoteURL, "remote-url", "", "DevTools URL of a running Chrome")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "scenarios run in parallel (default 4)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "run ledger to record the report in")
	cmd.Flags().BoolVar(&opts.Details, "details", true, "include failure messages in the summary")

	return cmd
}

// runTests executes the suite and reports the result.
//
// Execution flow:
//  1. Resolve config, rename maps, and the scenario list (healed if asked)
//  2. Start the shop in-process unless base_url points at a running one
//  3. Build the driver factory (HTTP, or Chrome via rod)
//  4. Run, record the report in the ledger, and print the summary
func runTests(opts *TestOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(cmd, map[string]string{
		"base_url":           "base-url",
		"templates":          "templates",
		"maps":               "maps",
		"drift":              "drift",
		"workers":            "workers",
		"db":                 "db",
		"browser.enabled":    "browser",
		"browser.remote_url": "remote-url",
	})
	if err != nil {
		return formatter.Fail(ErrorCode(err), "load config", err)
	}
	logger := opts.logger(cmd, cfg)

	maps, err := loadRenameMaps(cfg)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "load rename maps", err)
	}
	scenarios, err := loadSuite(maps.Registry(), opts.Scenarios, opts.Run)
	if err != nil {
		return formatter.Fail(ErrorCode(err), "load scenarios", err)
	}
	if len(opts.Heal) > 0 {
		pages, err := parsePages(opts.Heal, maps)
		if err != nil {
			return formatter.Fail(ErrCodeConfig, "invalid --heal page", err)
		}
		scenarios = harness.HealAll(scenarios, maps, pages...)
		formatter.VerboseLog("Healed %d scenario(s) for %v", len(scenarios), pages)
	}
	if len(scenarios) == 0 {
		return formatter.Emit(&harness.Report{Results: []harness.Result{}}, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, "No scenarios found.")
			return err
		})
	}

	drift, err := cfg.DriftState()
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "invalid drift", err)
	}
	if cfg.BaseURL != "" && len(drift.Pages()) > 0 {
		return formatter.Fail(ErrCodeConfig, "drift needs the in-process shop; unset base_url", nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL := cfg.BaseURL
	if baseURL == "" {
		url, shutdown, err := startInProcess(ctx, cfg, maps, logger)
		if err != nil {
			return formatter.Fail(ErrorCode(err), "start shop", err)
		}
		defer shutdown()
		baseURL = url
	}
	formatter.VerboseLog("Testing %s", baseURL)

	factory := harness.HTTPDriverFactory(baseURL, nil)
	driverName := "http"
	if cfg.Browser.Enabled {
		b, err := harness.LaunchBrowser(ctx, harness.BrowserConfig{
			RemoteURL: cfg.Browser.RemoteURL,
			Timeout:   cfg.Browser.Timeout,
		})
		if err != nil {
			return formatter.Fail(ErrCodeBrowser, "launch browser", err)
		}
		defer func() {
			if closeErr := b.Close(); closeErr != nil {
				logger.Error("error closing browser", "error", closeErr)
			}
		}()
		factory = b.Factory(baseURL)
		driverName = "rod"
	}

	label := drift.String()
	if label == "" {
		label = "as-authored"
	}
	runnerOpts := []harness.RunnerOption{
		harness.WithWorkers(cfg.Workers),
		harness.WithLogger(logger),
		harness.WithLabels(driverName, label),
	}
	if opts.RunIDs != nil {
		runnerOpts = append(runnerOpts, harness.WithIDGenerator(opts.RunIDs))
	}
	if opts.Now != nil {
		runnerOpts = append(runnerOpts, harness.WithNow(opts.Now))
	}

	report, runErr := harness.NewRunner(factory, runnerOpts...).Run(ctx, scenarios)

	if err := recordReport(ctx, cfg, report, logger); err != nil {
		return formatter.Fail(ErrCodeLedger, "record run", err)
	}

	if err := formatter.Emit(report, func(w io.Writer) error {
		return harness.WriteSummary(w, report, opts.Details)
	}); err != nil {
		return err
	}

	if runErr != nil {
		return WrapExitError(ExitCommandError, "run interrupted", runErr)
	}
	if !report.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed()))
	}
	return nil
}

// startInProcess serves the shop on a loopback port until shutdown is
// called.
func startInProcess(ctx context.Context, cfg *config.Config, maps *locator.RenameMaps, logger *slog.Logger) (string, func(), error) {
	srv, err := newServer(cfg, maps, logger)
	if err != nil {
		return "", nil, err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listen: %w", err)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(serveCtx, ln)
	}()

	shutdown := func() {
		cancel()
		if err := <-done; err != nil {
			logger.Error("error stopping shop", "error", err)
		}
	}
	return "http://" + ln.Addr().String(), shutdown, nil
}

// recordReport writes report to the ledger when one is configured. The
// ledger write is not cancelled with the run.
func recordReport(ctx context.Context, cfg *config.Config, report *harness.Report, logger *slog.Logger) error {
	ledger, err := openLedger(cfg)
	if err != nil || ledger == nil {
		return err
	}
	defer func() {
		if closeErr := ledger.Close(); closeErr != nil {
			logger.Error("error closing ledger", "error", closeErr)
		}
	}()

	seq, err := ledger.WriteRun(context.WithoutCancel(ctx), report)
	if err != nil {
		return err
	}
	logger.Info("run recorded", "run_id", report.RunID, "seq", seq, "db", cfg.DB)
	return nil
}
