package state

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Snapshot represents the latest data available to a consumer.
type Snapshot[T any] struct {
	Items               []T
	Version             uint64
	Loading             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive fetch failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store holds the accumulated result set of one handler and notifies
// subscribers whenever a new version is committed.
//
// The zero value is ready to use.
type Store[T any] struct {
	mu       sync.RWMutex
	snapshot Snapshot[T]

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(version uint64)
}

// Commit replaces the accumulated items and bumps the version exactly once.
func (s *Store[T]) Commit(items []T) uint64 {
	s.mu.Lock()
	s.snapshot.Items = cloneItems(items)
	s.snapshot.Version++
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
	version := s.snapshot.Version
	s.mu.Unlock()

	s.notify(version)
	return version
}

// Empty drops the accumulated items when the handler switches subject. It is
// a visible change, so the version is bumped once; it is not a reset.
func (s *Store[T]) Empty() uint64 {
	s.mu.Lock()
	s.snapshot.Items = nil
	s.snapshot.Version++
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Time{}
	s.snapshot.ConsecutiveFailures = 0
	version := s.snapshot.Version
	s.mu.Unlock()

	s.notify(version)
	return version
}

// Fail records a fetch failure. Previous items and the version are kept;
// subscribers are notified with the unchanged version so they can show the
// error.
func (s *Store[T]) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures++
	version := s.snapshot.Version
	s.mu.Unlock()

	s.notify(version)
}

// SetLoading flips the loading flag without touching the version.
func (s *Store[T]) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Loading = loading
}

// Reset empties the store and returns the version to zero. Subscribers are
// told about the reset with version 0.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	wasEmpty := s.snapshot.Version == 0 && len(s.snapshot.Items) == 0
	s.snapshot = Snapshot[T]{}
	s.mu.Unlock()

	if !wasEmpty {
		s.notify(0)
	}
}

// Items returns a copy of the accumulated items.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.snapshot.Items)
}

// Version returns the current update counter.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Version
}

// Snapshot returns a copy of the current snapshot.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Items = cloneItems(s.snapshot.Items)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// Subscribe registers fn to be called with the current version after every
// commit, failure or reset. The returned function unsubscribes; calling it more than once is
// harmless. Callbacks run on the committing goroutine, outside the store lock.
func (s *Store[T]) Subscribe(fn func(version uint64)) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]func(uint64))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
		})
	}
}

func (s *Store[T]) notify(version uint64) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(uint64), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(version)
	}
}

func cloneItems[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
