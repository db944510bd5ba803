package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/hordewatch/hordewatch/internal/horde"
	"github.com/hordewatch/hordewatch/internal/poll"
)

const (
	agentPrefix = "agent:"
	issuePrefix = "issue:"
)

// AgentTarget addresses an agent's audit log.
func AgentTarget(agentID string) string { return agentPrefix + agentID }

// IssueTarget addresses an issue's audit log.
func IssueTarget(issueID string) string { return issuePrefix + issueID }

// auditKey identifies an audit entry. The log has no ids, so time plus a hash
// of the line stands in for one.
type auditKey struct {
	unixNano int64
	line     uint64
}

func auditEntryKey(e horde.AuditLogEntry) auditKey {
	return auditKey{
		unixNano: e.Time.UnixNano(),
		line:     xxhash.Sum64String(e.Level + "\x00" + e.Message),
	}
}

// AuditLogHandler tracks the audit log of an agent or an issue.
type AuditLogHandler struct {
	*poll.Handler[auditKey, horde.AuditLogEntry]
}

// NewAuditLogHandler builds an idle handler; Set with AgentTarget or
// IssueTarget selects the log.
func NewAuditLogHandler(cfg Config) *AuditLogHandler {
	cfg = cfg.withDefaults()
	client := cfg.Client
	return &AuditLogHandler{
		Handler: poll.NewHandler(poll.Options[auditKey, horde.AuditLogEntry]{
			Name: "audit_log",
			Fetch: func(ctx context.Context, q poll.Query[auditKey]) ([]horde.AuditLogEntry, error) {
				hq := historyQuery(q)
				switch {
				case strings.HasPrefix(q.Target, agentPrefix):
					return client.AgentAuditLog(ctx, strings.TrimPrefix(q.Target, agentPrefix), hq)
				case strings.HasPrefix(q.Target, issuePrefix):
					return client.IssueAuditLog(ctx, strings.TrimPrefix(q.Target, issuePrefix), hq)
				default:
					return nil, fmt.Errorf("audit log target %q: want agent:<id> or issue:<id>", q.Target)
				}
			},
			Key: auditEntryKey,
			Less: func(a, b horde.AuditLogEntry) bool {
				return a.Time.After(b.Time)
			},
			Interval:    cfg.Intervals.AuditLog,
			Count:       horde.AuditLogCount,
			PageSize:    horde.AuditLogCount,
			Clock:       cfg.Clock,
			Logger:      cfg.Logger,
			Metrics:     cfg.Metrics,
			NeedsTarget: true,
		}),
	}
}
