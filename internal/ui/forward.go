package ui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hordewatch/hordewatch/internal/dashboard"
	"github.com/hordewatch/hordewatch/internal/state"
)

// subscriber is the part of a handler the forwarder needs.
type subscriber interface {
	Subscribe(fn func(version uint64)) func()
}

// forward relays every handler notification (commits and failures) into the program as
// updatedMsg. Handlers notify while holding their own lock, so the callback
// only queues the change; a separate goroutine delivers it. The returned
// function unsubscribes and waits for that goroutine.
func forward(ctx context.Context, d *dashboard.Dashboard, send func(tea.Msg)) func() {
	ctx, cancel := context.WithCancel(ctx)
	queue := make(chan updatedMsg, 64)

	sources := map[View][]subscriber{
		ViewAgent: {d.AgentHistory},
		ViewAudit: {d.AuditLog},
		ViewPools: {d.Pools, d.PoolTelemetry},
		ViewJobs:  {d.UserJobs},
	}
	var unsubs []func()
	for view, subs := range sources {
		for _, s := range subs {
			unsubs = append(unsubs, s.Subscribe(func(version uint64) {
				select {
				case queue <- updatedMsg{view: view, version: version}:
				default:
					// Full: a pending message already triggers a redraw.
				}
			}))
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-queue:
				send(msg)
			}
		}
	}()

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
		cancel()
		wg.Wait()
	}
}

// viewStatus is the part of a snapshot the status bar shows.
type viewStatus struct {
	Loading     bool
	Offline     bool
	Count       int
	Version     uint64
	LastUpdated time.Time
	Err         error
}

func statusOf[T any](s state.Snapshot[T]) viewStatus {
	return viewStatus{
		Loading:     s.Loading,
		Offline:     s.IsOffline(),
		Count:       len(s.Items),
		Version:     s.Version,
		LastUpdated: s.LastUpdated,
		Err:         s.LastError,
	}
}
