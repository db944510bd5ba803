package poll

import "sync"

// Generations issues fetch generation ids and decides which results may still
// be applied. Ids below the cancel floor are canceled; among the rest only a
// result newer than the last committed one is accepted, so the winner is the
// most recently issued fetch rather than the most recently resolved one.
type Generations struct {
	mu        sync.Mutex
	next      uint64
	floor     uint64
	committed uint64
}

// Begin allocates the next generation id. Ids start at 1.
func (g *Generations) Begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}

// CancelAllPending cancels every id issued so far.
func (g *Generations) CancelAllPending() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.floor = g.next + 1
}

// IsCanceled reports whether id was issued before the last CancelAllPending.
func (g *Generations) IsCanceled(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return id < g.floor
}

// Commit reports whether a poll result for id may be applied and, if so,
// records it as the latest applied poll.
func (g *Generations) Commit(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.superseded(id) {
		return false
	}
	g.committed = id
	return true
}

// CommitPage reports whether an appended page for id may be applied. Pages
// only lose to CancelAllPending: a later poll of the same target and window
// does not cover the rows a page adds. Committing a page leaves the poll
// ordering untouched.
func (g *Generations) CommitPage(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return id >= g.floor && id <= g.next
}

// Superseded reports whether a poll result for id can no longer be applied,
// either because it was canceled or because a newer poll has been committed.
func (g *Generations) Superseded(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.superseded(id)
}

func (g *Generations) superseded(id uint64) bool {
	return id < g.floor || id <= g.committed || id > g.next
}
