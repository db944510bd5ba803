package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "hordewatch: %v\n", err)
		return 1
	}
	return 0
}

// Build-time variables populated via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "hordewatch",
		Short: "Terminal dashboard for a Horde build server",
		Long: `hordewatch polls a Horde server for agent leases, audit logs, device pools
and jobs, and keeps each view up to date while you watch.

Run without arguments to start the interactive dashboard.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/hordewatch/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/hordewatch/prefs.toml)")
	pf.StringVar(&flags.server, "server", "", "Horde server URL, overrides the config file")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newAgentCmd(&flags),
		newAuditCmd(&flags),
		newPoolsCmd(&flags),
		newJobsCmd(&flags),
	)
	return root
}
