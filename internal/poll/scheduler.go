package poll

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"
)

// SchedulerState is the lifecycle state of a Scheduler.
type SchedulerState int

const (
	Idle SchedulerState = iota
	Polling
)

func (s SchedulerState) String() string {
	switch s {
	case Polling:
		return "polling"
	default:
		return "idle"
	}
}

// TickerTag is the quartz trap tag for the scheduler's ticker.
const TickerTag = "poll"

// Scheduler calls Tick every Interval until stopped. A failing tick is logged
// and the schedule continues. A stopped scheduler can be started again.
type Scheduler struct {
	Name     string
	Interval time.Duration
	Clock    quartz.Clock
	Logger   *zap.Logger
	Tick     func(ctx context.Context) error

	mu     sync.Mutex
	cancel context.CancelFunc
	waiter quartz.Waiter
}

// Start arms the ticker. The first tick fires one Interval later; callers that
// want an immediate fetch run it themselves. Starting a running scheduler is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	clock := s.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.waiter = clock.TickerFunc(loopCtx, interval, func() error {
		if s.Tick == nil {
			return nil
		}
		if err := s.Tick(loopCtx); err != nil {
			logger.Warn("poll tick failed", zap.String("handler", s.Name), zap.Error(err))
		}
		return nil
	}, TickerTag, s.Name)
}

// Stop halts the ticker and waits for an in-flight tick to return. It is safe
// to call on a scheduler that was never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, waiter := s.cancel, s.waiter
	s.cancel, s.waiter = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	_ = waiter.Wait()
}

// State reports whether the scheduler is currently armed.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return Polling
	}
	return Idle
}
