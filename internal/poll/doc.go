// Package poll implements the refresh machinery shared by every dashboard
// handler: fetch generations, a ticker-driven scheduler, keyed merging and
// bounded batch fan-out.
//
// # Lifecycle
//
//	NewHandler      idle, empty
//	Set(target)     cancel pending, drop items, fetch, poll while live
//	Update()        one fetch/merge cycle (what every tick runs)
//	SetWindow(w)    like Set; a bounded window fetches once and stops
//	Clear()         cancel pending, stop, reset version to zero
//
// # Staleness
//
// Every fetch takes a generation id from Generations before it leaves. Set,
// SetWindow and Clear cancel all ids issued so far. When a response arrives
// the handler commits a poll only if its generation is neither canceled nor
// older than the last applied poll. A LoadMore page is only dropped when it
// was canceled, since a newer poll does not cover the rows it appends. A stale
// fetch that fails leaves no trace in the snapshot. In-flight requests are not
// aborted; their results are dropped at commit time.
//
// # Failures
//
// A failed fetch is logged, counted in the snapshot and otherwise ignored. The
// scheduler keeps ticking, so the next poll retries.
package poll
