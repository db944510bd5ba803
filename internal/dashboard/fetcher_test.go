package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/coder/quartz"
	"go.uber.org/zap/zaptest"

	"github.com/hordewatch/hordewatch/internal/horde"
)

var errNotStubbed = errors.New("not stubbed")

// fakeFetcher routes every call to an optional stub and records the calls.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []string

	agentHistory    func(agentID string, q horde.HistoryQuery) ([]horde.Lease, error)
	agentAuditLog   func(agentID string, q horde.HistoryQuery) ([]horde.AuditLogEntry, error)
	issueAuditLog   func(issueID string, q horde.HistoryQuery) ([]horde.AuditLogEntry, error)
	pools           func() ([]horde.DevicePool, error)
	poolTelemetry   func(q horde.HistoryQuery) ([]horde.PoolTelemetry, error)
	deviceTelemetry func(deviceID string, q horde.HistoryQuery) ([]horde.DeviceTelemetry, error)
	jobs            func(q horde.JobsQuery) ([]horde.JobSummary, error)
	jobsByID        func(ids []string) ([]horde.JobSummary, error)
}

var _ horde.Fetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeFetcher) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFetcher) AgentHistory(_ context.Context, agentID string, q horde.HistoryQuery) ([]horde.Lease, error) {
	f.record("AgentHistory " + agentID)
	if f.agentHistory == nil {
		return nil, errNotStubbed
	}
	return f.agentHistory(agentID, q)
}

func (f *fakeFetcher) AgentAuditLog(_ context.Context, agentID string, q horde.HistoryQuery) ([]horde.AuditLogEntry, error) {
	f.record("AgentAuditLog " + agentID)
	if f.agentAuditLog == nil {
		return nil, errNotStubbed
	}
	return f.agentAuditLog(agentID, q)
}

func (f *fakeFetcher) IssueAuditLog(_ context.Context, issueID string, q horde.HistoryQuery) ([]horde.AuditLogEntry, error) {
	f.record("IssueAuditLog " + issueID)
	if f.issueAuditLog == nil {
		return nil, errNotStubbed
	}
	return f.issueAuditLog(issueID, q)
}

func (f *fakeFetcher) Pools(context.Context) ([]horde.DevicePool, error) {
	f.record("Pools")
	if f.pools == nil {
		return nil, errNotStubbed
	}
	return f.pools()
}

func (f *fakeFetcher) PoolTelemetry(_ context.Context, q horde.HistoryQuery) ([]horde.PoolTelemetry, error) {
	f.record("PoolTelemetry")
	if f.poolTelemetry == nil {
		return nil, errNotStubbed
	}
	return f.poolTelemetry(q)
}

func (f *fakeFetcher) DeviceTelemetry(_ context.Context, deviceID string, q horde.HistoryQuery) ([]horde.DeviceTelemetry, error) {
	f.record("DeviceTelemetry " + deviceID)
	if f.deviceTelemetry == nil {
		return nil, errNotStubbed
	}
	return f.deviceTelemetry(deviceID, q)
}

func (f *fakeFetcher) Jobs(_ context.Context, q horde.JobsQuery) ([]horde.JobSummary, error) {
	f.record("Jobs " + q.UserID)
	if f.jobs == nil {
		return nil, errNotStubbed
	}
	return f.jobs(q)
}

func (f *fakeFetcher) JobsByID(_ context.Context, ids []string) ([]horde.JobSummary, error) {
	f.record("JobsByID")
	if f.jobsByID == nil {
		return nil, errNotStubbed
	}
	return f.jobsByID(ids)
}

// testConfig wires f into a config driven by a mock clock, so no real
// tickers are started.
func testConfig(t *testing.T, f *fakeFetcher) (Config, *quartz.Mock) {
	t.Helper()
	mClock := quartz.NewMock(t)
	return Config{
		Client: f,
		Clock:  mClock,
		Logger: zaptest.NewLogger(t),
	}, mClock
}
