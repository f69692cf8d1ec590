package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr      string
	Templates string
	Maps      string
	Drift     []string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo shop",
		Long: `Serve the demo shop until interrupted.

With --templates the pages are read from disk on every request, so a
concurrent "driftbench mutate" is visible on the next page load. --drift
renames locators at render time without touching any file.

Examples:
  driftbench serve
  driftbench serve --addr 127.0.0.1:9000 --drift login
  driftbench serve --templates ./web`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default 127.0.0.1:8080)")
	cmd.Flags().StringVar(&opts.Templates, "templates", "", "template directory (default: embedded templates)")
	cmd.Flags().StringVar(&opts.Maps, "maps", "", "rename map override file (yaml)")
	cmd.Flags().StringSliceVar(&opts.Drift, "drift", nil, "render-time drift, e.g. login or cart=canonical")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(cmd, map[string]string{
		"addr":      "addr",
		"templates": "templates",
		"maps":      "maps",
		"drift":     "drift",
	})
	if err != nil {
		return formatter.Fail(ErrorCode(err), "load config", err)
	}
	logger := opts.logger(cmd, cfg)

	maps, err := loadRenameMaps(cfg)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "load rename maps", err)
	}
	srv, err := newServer(cfg, maps, logger)
	if err != nil {
		return formatter.Fail(ErrorCode(err), "build application", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	drift := srv.Drift().String()
	if drift == "" {
		drift = "none"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (drift: %s)\n", cfg.Addr, drift)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil && !errors.Is(err, context.Canceled) {
		return formatter.Fail(ErrCodeServe, "serve", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
