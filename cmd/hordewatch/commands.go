package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hordewatch/hordewatch/internal/app"
	"github.com/hordewatch/hordewatch/internal/dashboard"
)

type globalFlags struct {
	configPath string
	prefsPath  string
	server     string
	logLevel   string
}

func (f globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: f.configPath,
		PrefsPath:  f.prefsPath,
		ServerURL:  f.server,
		LogLevel:   f.logLevel,
	}
}

// outputFlags are shared by the print commands.
type outputFlags struct {
	watch  bool
	output string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "keep printing on every update")
	cmd.Flags().StringVarP(&o.output, "output", "o", "table", "output format (table or json)")
}

func runDashboard(ctx context.Context, flags globalFlags) error {
	return app.Run(ctx, flags.options())
}

// withSession opens a session, runs fn and closes the session.
func withSession(flags globalFlags, out outputFlags, fn func(s *app.Session, f app.Format) error) error {
	format, err := app.ParseFormat(out.output)
	if err != nil {
		return err
	}
	s, err := app.Open(flags.options())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s, format)
}

func newAgentCmd(flags *globalFlags) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "agent <agent-id>",
		Short: "Print the lease history of an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(*flags, out, func(s *app.Session, f app.Format) error {
				h := s.Dashboard.AgentHistory
				h.Set(ctx, args[0])
				return app.Show(ctx, h, app.LeasePrinter(os.Stdout, f), out.watch)
			})
		},
	}
	out.register(cmd)
	return cmd
}

func newAuditCmd(flags *globalFlags) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:       "audit <agent|issue> <id>",
		Short:     "Print the audit log of an agent or an issue",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"agent", "issue"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			switch strings.ToLower(args[0]) {
			case "agent":
				target = dashboard.AgentTarget(args[1])
			case "issue":
				target = dashboard.IssueTarget(args[1])
			default:
				return fmt.Errorf("audit %q: want agent or issue", args[0])
			}
			ctx := cmd.Context()
			return withSession(*flags, out, func(s *app.Session, f app.Format) error {
				h := s.Dashboard.AuditLog
				h.Set(ctx, target)
				return app.Show(ctx, h, app.AuditPrinter(os.Stdout, f), out.watch)
			})
		},
	}
	out.register(cmd)
	return cmd
}

func newPoolsCmd(flags *globalFlags) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Print the device pools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withSession(*flags, out, func(s *app.Session, f app.Format) error {
				h := s.Dashboard.Pools
				h.Start(ctx)
				return app.Show(ctx, h, app.PoolPrinter(os.Stdout, f), out.watch)
			})
		},
	}
	out.register(cmd)
	return cmd
}

func newJobsCmd(flags *globalFlags) *cobra.Command {
	var out outputFlags
	var pages int
	cmd := &cobra.Command{
		Use:   "jobs <user-id>",
		Short: "Print the jobs started by a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(*flags, out, func(s *app.Session, f app.Format) error {
				h := s.Dashboard.UserJobs
				h.Set(ctx, args[0])
				for i := 1; i < pages; i++ {
					h.LoadMore(ctx)
				}
				return app.Show(ctx, h, app.JobPrinter(os.Stdout, f), out.watch)
			})
		},
	}
	out.register(cmd)
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}
