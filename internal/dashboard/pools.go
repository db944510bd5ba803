package dashboard

import (
	"context"
	"strings"

	"github.com/hordewatch/hordewatch/internal/horde"
	"github.com/hordewatch/hordewatch/internal/poll"
)

// PoolHandler tracks the device pool list.
type PoolHandler struct {
	*poll.Handler[string, horde.DevicePool]
}

// NewPoolHandler builds an idle handler; Start begins polling.
func NewPoolHandler(cfg Config) *PoolHandler {
	cfg = cfg.withDefaults()
	client := cfg.Client
	return &PoolHandler{
		Handler: poll.NewHandler(poll.Options[string, horde.DevicePool]{
			Name: "pools",
			Fetch: func(ctx context.Context, _ poll.Query[string]) ([]horde.DevicePool, error) {
				return client.Pools(ctx)
			},
			Key: func(p horde.DevicePool) string { return p.ID },
			Less: func(a, b horde.DevicePool) bool {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			},
			Interval: cfg.Intervals.Pools,
			Clock:    cfg.Clock,
			Logger:   cfg.Logger,
			Metrics:  cfg.Metrics,
		}),
	}
}

// Names maps pool ids to display names.
func (h *PoolHandler) Names() map[string]string {
	pools := h.Snapshot().Items
	names := make(map[string]string, len(pools))
	for _, p := range pools {
		names[p.ID] = p.Name
	}
	return names
}
