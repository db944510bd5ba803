package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hordewatch/hordewatch/internal/config"
	"github.com/hordewatch/hordewatch/internal/dashboard"
	"github.com/hordewatch/hordewatch/internal/horde"
	"github.com/hordewatch/hordewatch/internal/poll"
	"github.com/hordewatch/hordewatch/internal/prefs"
	"github.com/hordewatch/hordewatch/internal/ui"
)

// Options configure the hordewatch application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/hordewatch/prefs.toml
	ServerURL  string // overrides the config file
	LogLevel   string // overrides the config file
}

// Session is one running dashboard with its logger, metrics and client.
type Session struct {
	Config    config.Config
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Dashboard *dashboard.Dashboard

	closers []func()
}

// Open loads the configuration and builds an idle dashboard. The caller owns
// the session and must Close it.
func Open(opts Options) (*Session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	logger, err := NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client, err := horde.NewClient(cfg.ServerURL, cfg.Token)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init horde client: %w", err)
	}
	return newSession(cfg, logger, client)
}

func newSession(cfg config.Config, logger *zap.Logger, client horde.Fetcher) (*Session, error) {
	s := &Session{
		Config:   cfg,
		Logger:   logger,
		Registry: NewRegistry(),
	}

	if cfg.MetricsAddr != "" {
		addr, stop, err := serveMetrics(logger, s.Registry, cfg.MetricsAddr)
		if err != nil {
			return nil, fmt.Errorf("serve metrics: %w", err)
		}
		logger.Info("metrics enabled", zap.Stringer("addr", addr))
		s.closers = append(s.closers, stop)
	}

	s.Dashboard = dashboard.New(dashboard.Config{
		Client:    client,
		Logger:    logger,
		Metrics:   poll.NewMetrics(s.Registry),
		BatchSize: cfg.BatchSize,
		Lookback:  cfg.Lookback,
		Intervals: dashboard.Intervals{
			AuditLog:      cfg.Poll.AuditLog,
			AgentHistory:  cfg.Poll.AgentHistory,
			UserJobs:      cfg.Poll.UserJobs,
			Pools:         cfg.Poll.Pools,
			PoolTelemetry: cfg.Poll.PoolTelemetry,
		},
	})
	logger.Info("session opened", zap.String("server", cfg.ServerURL))
	return s, nil
}

// Close stops all polling and releases the session's resources.
func (s *Session) Close() {
	s.Dashboard.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	_ = s.Logger.Sync()
}

// Run boots the TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	s, err := Open(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Dashboard: s.Dashboard,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Logger:    s.Logger,
	})
}
