package dashboard

import (
	"context"

	"github.com/hordewatch/hordewatch/internal/horde"
	"github.com/hordewatch/hordewatch/internal/poll"
)

// AgentHistoryHandler tracks the leases of one agent.
type AgentHistoryHandler struct {
	*poll.Handler[string, horde.Lease]
}

// NewAgentHistoryHandler builds an idle handler; Set selects the agent.
func NewAgentHistoryHandler(cfg Config) *AgentHistoryHandler {
	cfg = cfg.withDefaults()
	client := cfg.Client
	return &AgentHistoryHandler{
		Handler: poll.NewHandler(poll.Options[string, horde.Lease]{
			Name: "agent_history",
			Fetch: func(ctx context.Context, q poll.Query[string]) ([]horde.Lease, error) {
				return client.AgentHistory(ctx, q.Target, historyQuery(q))
			},
			Key:         func(l horde.Lease) string { return l.ID },
			Less:        leaseNewestFirst,
			Interval:    cfg.Intervals.AgentHistory,
			Count:       horde.HistoryCount,
			PageSize:    100,
			Clock:       cfg.Clock,
			Logger:      cfg.Logger,
			Metrics:     cfg.Metrics,
			NeedsTarget: true,
		}),
	}
}

// leaseNewestFirst orders by start time, then finish time, newest first.
// Running leases sort ahead of finished ones that started at the same time.
func leaseNewestFirst(a, b horde.Lease) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.After(b.StartTime)
	}
	switch {
	case a.FinishTime == nil && b.FinishTime == nil:
		return false
	case a.FinishTime == nil:
		return true
	case b.FinishTime == nil:
		return false
	}
	return a.FinishTime.After(*b.FinishTime)
}
