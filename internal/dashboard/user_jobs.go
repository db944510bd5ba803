package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/hordewatch/hordewatch/internal/horde"
	"github.com/hordewatch/hordewatch/internal/poll"
)

const (
	jobsPageSize = 50
	// jobsLookupChunk is how many ids go into one JobsByID request.
	jobsLookupChunk = 20
)

// UserJobsHandler tracks the jobs started by one user, newest change first.
// Each poll re-reads the first page and, separately, every job already on
// screen that has not finished, so jobs that scrolled off the first page keep
// updating.
type UserJobsHandler struct {
	*poll.Handler[string, horde.JobSummary]
}

// NewUserJobsHandler builds an idle handler; Set selects the user.
func NewUserJobsHandler(cfg Config) *UserJobsHandler {
	cfg = cfg.withDefaults()
	client := cfg.Client
	logger := cfg.Logger
	batchSize := cfg.BatchSize

	h := &UserJobsHandler{}
	h.Handler = poll.NewHandler(poll.Options[string, horde.JobSummary]{
		Name: "user_jobs",
		Fetch: func(ctx context.Context, q poll.Query[string]) ([]horde.JobSummary, error) {
			jobs, err := client.Jobs(ctx, horde.JobsQuery{
				UserID:           q.Target,
				IncludePreflight: true,
				Index:            q.Index,
				Count:            q.Count,
			})
			if err != nil || q.Index > 0 {
				return jobs, err
			}

			stale := h.unfinishedOutside(jobs)
			if len(stale) == 0 {
				return jobs, nil
			}
			refreshed, err := poll.Batched(ctx, chunk(stale, jobsLookupChunk), batchSize,
				func(ctx context.Context, ids []string) ([]horde.JobSummary, error) {
					return client.JobsByID(ctx, ids)
				})
			if err != nil {
				logger.Warn("refresh unfinished jobs",
					zap.String("user", q.Target),
					zap.Int("jobs", len(stale)),
					zap.Error(err))
			}
			return append(jobs, refreshed...), nil
		},
		Key:         func(j horde.JobSummary) string { return j.ID },
		Less:        jobsNewestFirst,
		Interval:    cfg.Intervals.UserJobs,
		Count:       jobsPageSize,
		PageSize:    jobsPageSize,
		Clock:       cfg.Clock,
		Logger:      logger,
		Metrics:     cfg.Metrics,
		NeedsTarget: true,
	})
	return h
}

// unfinishedOutside lists the accumulated jobs that have not finished and are
// not part of page.
func (h *UserJobsHandler) unfinishedOutside(page []horde.JobSummary) []string {
	onPage := make(map[string]struct{}, len(page))
	for _, j := range page {
		onPage[j.ID] = struct{}{}
	}
	var ids []string
	for _, j := range h.Snapshot().Items {
		if _, ok := onPage[j.ID]; ok || j.Finished() {
			continue
		}
		ids = append(ids, j.ID)
	}
	return ids
}

// JobGroup is the jobs of one stream.
type JobGroup struct {
	StreamID string
	Jobs     []horde.JobSummary
}

// ByStream groups the accumulated jobs by stream. Groups are ordered by
// their newest job, jobs keep the handler's order.
func (h *UserJobsHandler) ByStream() []JobGroup {
	return GroupByStream(h.Snapshot().Items)
}

// GroupByStream groups jobs by stream, keeping the input order inside each
// group and ordering groups by first appearance.
func GroupByStream(jobs []horde.JobSummary) []JobGroup {
	index := map[string]int{}
	var groups []JobGroup
	for _, j := range jobs {
		i, ok := index[j.StreamID]
		if !ok {
			i = len(groups)
			index[j.StreamID] = i
			groups = append(groups, JobGroup{StreamID: j.StreamID})
		}
		groups[i].Jobs = append(groups[i].Jobs, j)
	}
	return groups
}

func jobsNewestFirst(a, b horde.JobSummary) bool {
	if ac, bc := a.EffectiveChange(), b.EffectiveChange(); ac != bc {
		return ac > bc
	}
	return a.CreateTime.After(b.CreateTime)
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

