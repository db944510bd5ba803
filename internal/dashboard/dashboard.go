package dashboard

import (
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/hordewatch/hordewatch/internal/horde"
	"github.com/hordewatch/hordewatch/internal/poll"
)

// Intervals are the refresh cadences of the individual handlers.
type Intervals struct {
	AuditLog      time.Duration
	AgentHistory  time.Duration
	UserJobs      time.Duration
	Pools         time.Duration
	PoolTelemetry time.Duration
}

// DefaultIntervals returns the cadences used when nothing is configured.
func DefaultIntervals() Intervals {
	return Intervals{
		AuditLog:      5 * time.Second,
		AgentHistory:  10 * time.Second,
		UserJobs:      15 * time.Second,
		Pools:         30 * time.Second,
		PoolTelemetry: 30 * time.Second,
	}
}

// Config is shared by every handler of a dashboard.
type Config struct {
	Client    horde.Fetcher
	Clock     quartz.Clock
	Logger    *zap.Logger
	Metrics   *poll.Metrics
	Intervals Intervals
	BatchSize int
	// Lookback bounds telemetry history while tailing.
	Lookback time.Duration
}

const defaultLookback = 6 * time.Hour

func (c Config) withDefaults() Config {
	def := DefaultIntervals()
	if c.Intervals.AuditLog <= 0 {
		c.Intervals.AuditLog = def.AuditLog
	}
	if c.Intervals.AgentHistory <= 0 {
		c.Intervals.AgentHistory = def.AgentHistory
	}
	if c.Intervals.UserJobs <= 0 {
		c.Intervals.UserJobs = def.UserJobs
	}
	if c.Intervals.Pools <= 0 {
		c.Intervals.Pools = def.Pools
	}
	if c.Intervals.PoolTelemetry <= 0 {
		c.Intervals.PoolTelemetry = def.PoolTelemetry
	}
	if c.BatchSize <= 0 {
		c.BatchSize = poll.DefaultBatchSize
	}
	if c.Lookback <= 0 {
		c.Lookback = defaultLookback
	}
	if c.Clock == nil {
		c.Clock = quartz.NewReal()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Dashboard owns one instance of every handler for a session. Views share
// these instances instead of creating their own.
type Dashboard struct {
	AgentHistory    *AgentHistoryHandler
	AuditLog        *AuditLogHandler
	Pools           *PoolHandler
	PoolTelemetry   *PoolTelemetryHandler
	DeviceTelemetry *DeviceTelemetryHandler
	UserJobs        *UserJobsHandler
}

// New builds an idle dashboard. Nothing is fetched until a handler is Set or
// Started.
func New(cfg Config) *Dashboard {
	cfg = cfg.withDefaults()
	return &Dashboard{
		AgentHistory:    NewAgentHistoryHandler(cfg),
		AuditLog:        NewAuditLogHandler(cfg),
		Pools:           NewPoolHandler(cfg),
		PoolTelemetry:   NewPoolTelemetryHandler(cfg),
		DeviceTelemetry: NewDeviceTelemetryHandler(cfg),
		UserJobs:        NewUserJobsHandler(cfg),
	}
}

// Close clears every handler, stopping all polling.
func (d *Dashboard) Close() {
	d.AgentHistory.Clear()
	d.AuditLog.Clear()
	d.Pools.Clear()
	d.PoolTelemetry.Clear()
	d.DeviceTelemetry.Clear()
	d.UserJobs.Clear()
}

func historyQuery[K comparable](q poll.Query[K]) horde.HistoryQuery {
	return horde.HistoryQuery{
		MinTime: q.Window.MinTime,
		MaxTime: q.Window.MaxTime,
		Index:   q.Index,
		Count:   q.Count,
	}
}

// lookbackQuery narrows a live query to the lookback period ending at its
// upper bound.
func lookbackQuery[K comparable](q poll.Query[K], lookback time.Duration) horde.HistoryQuery {
	hq := historyQuery(q)
	if hq.MinTime.IsZero() && !hq.MaxTime.IsZero() {
		hq.MinTime = hq.MaxTime.Add(-lookback)
	}
	return hq
}

func withinLookback[K comparable](t time.Time, q poll.Query[K], lookback time.Duration) bool {
	return !t.Before(lookbackQuery(q, lookback).MinTime)
}
