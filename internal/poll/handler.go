package poll

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/hordewatch/hordewatch/internal/state"
)

// DefaultInterval is used when a handler is configured without an interval.
const DefaultInterval = 10 * time.Second

// Query describes one fetch issued by a Handler.
type Query[K comparable] struct {
	Target string
	Window Window // already resolved with Window.Effective
	Index  int
	Count  int
	Known  []K // identities accumulated so far
}

// FetchFunc loads entries for a query.
type FetchFunc[K comparable, T any] func(ctx context.Context, q Query[K]) ([]T, error)

// Options configure a Handler.
type Options[K comparable, T any] struct {
	Name     string
	Fetch    FetchFunc[K, T]
	Key      func(T) K
	Less     func(a, b T) bool
	Interval time.Duration
	Count    int // cap sent with every poll
	PageSize int // page size for LoadMore; zero uses Count
	MaxItems int // zero keeps everything
	Clock    quartz.Clock
	Logger   *zap.Logger
	Metrics  *Metrics

	// NeedsTarget skips fetches until Set names a target.
	NeedsTarget bool
	// Keep, when set, drops merged entries it rejects, e.g. samples that
	// scrolled out of a lookback window.
	Keep func(item T, q Query[K]) bool
}

// Handler owns the fetched state of one view: a target, a time window, the
// accumulated result set and the refresh schedule.
//
// Subscribe callbacks run while the handler commits; they must not call Set,
// SetWindow, Clear or Stop.
type Handler[K comparable, T any] struct {
	opts   Options[K, T]
	clock  quartz.Clock
	logger *zap.Logger

	gens  Generations
	store state.Store[T]
	sched Scheduler

	mu     sync.Mutex
	target string
	window Window

	loadMu   sync.Mutex
	inflight int
}

// NewHandler builds an idle handler. Fetch and Key are required.
func NewHandler[K comparable, T any](opts Options[K, T]) *Handler[K, T] {
	if opts.Fetch == nil || opts.Key == nil {
		panic("poll: handler " + opts.Name + " needs Fetch and Key")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.PageSize <= 0 {
		opts.PageSize = opts.Count
	}
	clock := opts.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("handler", opts.Name))

	h := &Handler[K, T]{
		opts:   opts,
		clock:  clock,
		logger: logger,
	}
	h.sched = Scheduler{
		Name:     opts.Name,
		Interval: opts.Interval,
		Clock:    clock,
		Logger:   logger,
		Tick: func(ctx context.Context) error {
			h.Update(ctx)
			return nil
		},
	}
	return h
}

// Name returns the handler's name.
func (h *Handler[K, T]) Name() string {
	return h.opts.Name
}

// Set switches to a new target: pending fetches are canceled, accumulated
// entries dropped, and a first fetch runs before Set returns. A live window
// keeps polling afterwards on ctx.
func (h *Handler[K, T]) Set(ctx context.Context, target string) {
	h.mu.Lock()
	h.gens.CancelAllPending()
	h.target = target
	h.store.Empty()
	live := h.window.Live()
	h.mu.Unlock()

	h.logger.Debug("target set", zap.String("target", target))
	h.Update(ctx)
	h.schedule(ctx, live)
}

// SetWindow switches the time window with the same invalidation as Set. Only
// a live window keeps polling.
func (h *Handler[K, T]) SetWindow(ctx context.Context, w Window) {
	h.mu.Lock()
	h.gens.CancelAllPending()
	h.window = w
	h.store.Empty()
	h.mu.Unlock()

	h.logger.Debug("window set",
		zap.Time("min_time", w.MinTime),
		zap.Time("max_time", w.MaxTime),
		zap.Bool("live", w.Live()))
	h.Update(ctx)
	h.schedule(ctx, w.Live())
}

// Start fetches immediately and then keeps polling on ctx.
func (h *Handler[K, T]) Start(ctx context.Context) {
	h.Update(ctx)
	h.sched.Start(ctx)
}

// Stop halts polling and keeps the accumulated state.
func (h *Handler[K, T]) Stop() {
	h.sched.Stop()
}

// Update runs one fetch/merge cycle. Failures are logged and recorded in the
// snapshot; they never reach the caller.
func (h *Handler[K, T]) Update(ctx context.Context) {
	_ = h.refresh(ctx, false)
}

// LoadMore fetches the page after the entries accumulated so far and merges
// it in.
func (h *Handler[K, T]) LoadMore(ctx context.Context) {
	_ = h.refresh(ctx, true)
}

// Clear cancels outstanding fetches, stops polling and empties the handler,
// version included. Clearing an idle or already cleared handler is a no-op.
func (h *Handler[K, T]) Clear() {
	h.sched.Stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.gens.CancelAllPending()
	h.target = ""
	h.window = Window{}
	h.store.Reset()
	h.metrics().setVersion(h.opts.Name, 0)
}

// Snapshot returns a copy of the accumulated state.
func (h *Handler[K, T]) Snapshot() state.Snapshot[T] {
	return h.store.Snapshot()
}

// Version returns the update counter.
func (h *Handler[K, T]) Version() uint64 {
	return h.store.Version()
}

// Subscribe registers fn for every version change. See state.Store.Subscribe.
func (h *Handler[K, T]) Subscribe(fn func(version uint64)) func() {
	return h.store.Subscribe(fn)
}

// Target returns the current target.
func (h *Handler[K, T]) Target() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target
}

// Window returns the current window.
func (h *Handler[K, T]) Window() Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.window
}

// State reports whether the handler is polling.
func (h *Handler[K, T]) State() SchedulerState {
	return h.sched.State()
}

func (h *Handler[K, T]) schedule(ctx context.Context, live bool) {
	if live {
		h.sched.Start(ctx)
		return
	}
	h.sched.Stop()
}

func (h *Handler[K, T]) refresh(ctx context.Context, nextPage bool) error {
	h.mu.Lock()
	gen := h.gens.Begin()
	existing := h.store.Items()
	q := Query[K]{
		Target: h.target,
		Window: h.window.Effective(h.clock.Now()),
		Count:  h.opts.Count,
		Known:  Keys(existing, h.opts.Key),
	}
	if nextPage {
		q.Index = len(existing)
		q.Count = h.opts.PageSize
	}
	h.mu.Unlock()

	if h.opts.NeedsTarget && q.Target == "" {
		return nil
	}

	h.beginLoading()
	defer h.endLoading()

	start := h.clock.Now()
	fresh, err := h.opts.Fetch(ctx, q)
	took := h.clock.Since(start)

	h.mu.Lock()
	defer h.mu.Unlock()

	// Stale checks and store writes happen under mu so they cannot interleave
	// with Set, SetWindow or Clear.
	var stale bool
	if nextPage {
		stale = h.gens.IsCanceled(gen)
	} else {
		stale = h.gens.Superseded(gen)
	}
	if err != nil {
		if stale {
			h.metrics().observe(h.opts.Name, resultStale, took)
			h.logger.Debug("dropping failure of stale fetch",
				zap.String("target", q.Target),
				zap.Uint64("generation", gen),
				zap.Error(err))
			return nil
		}
		h.metrics().observe(h.opts.Name, resultError, took)
		h.logger.Warn("fetch failed",
			zap.String("target", q.Target),
			zap.Uint64("generation", gen),
			zap.Error(err))
		h.store.Fail(err)
		return err
	}

	var applied bool
	if nextPage {
		applied = h.gens.CommitPage(gen)
	} else {
		applied = h.gens.Commit(gen)
	}
	if !applied {
		h.metrics().observe(h.opts.Name, resultStale, took)
		h.logger.Debug("discarding stale fetch",
			zap.String("target", q.Target),
			zap.Uint64("generation", gen))
		return nil
	}

	merged := Merge(h.store.Items(), fresh, h.opts.Key, h.opts.Less)
	if h.opts.Keep != nil {
		kept := merged[:0]
		for _, item := range merged {
			if h.opts.Keep(item, q) {
				kept = append(kept, item)
			}
		}
		merged = kept
	}
	if h.opts.MaxItems > 0 && len(merged) > h.opts.MaxItems {
		merged = merged[:h.opts.MaxItems]
	}
	version := h.store.Commit(merged)
	h.metrics().observe(h.opts.Name, resultOK, took)
	h.metrics().setVersion(h.opts.Name, version)
	h.logger.Debug("fetch applied",
		zap.String("target", q.Target),
		zap.Int("fetched", len(fresh)),
		zap.Int("total", len(merged)),
		zap.Uint64("version", version))
	return nil
}

func (h *Handler[K, T]) metrics() *Metrics {
	return h.opts.Metrics
}

func (h *Handler[K, T]) beginLoading() {
	h.loadMu.Lock()
	defer h.loadMu.Unlock()
	h.inflight++
	h.store.SetLoading(true)
}

func (h *Handler[K, T]) endLoading() {
	h.loadMu.Lock()
	defer h.loadMu.Unlock()
	h.inflight--
	h.store.SetLoading(h.inflight > 0)
}
