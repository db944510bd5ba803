// Package state provides the thread-safe accumulated result set shared by a
// polling handler and its consumers.
//
// # Overview
//
// A Store holds the items a handler has fetched so far together with an
// update counter. The handler is the only writer; any number of views read
// snapshots and subscribe to version changes.
//
//	Producer (handler):            Consumer (view):
//	┌────────────────┐            ┌──────────────────┐
//	│ fetch + merge  │            │ Subscribe(fn)    │
//	│      ↓         │            │      ↓           │
//	│ store.Commit() │───────────→│ fn(version)      │
//	│      ↓         │  (mutex)   │ store.Snapshot() │
//	│  next tick...  │            │ render           │
//	└────────────────┘            └──────────────────┘
//
// # Update Semantics
//
//	// Success: replace items, bump version once, clear error
//	store.Commit(items)
//
//	// Failure: keep items and version, record error, notify
//	store.Fail(err)
//
//	// Clear: empty items, version back to zero
//	store.Reset()
//
// The version only increases between resets. A failure notifies with the
// version unchanged, so a consumer that skips redundant work compares the
// failure count as well as the version.
//
// # Subscriptions
//
// Subscribe replaces the observe-by-reading idiom with an explicit callback.
// Callbacks run on the committing goroutine after the lock is released, so a
// callback may call Snapshot. Callbacks should not block; the UI forwards
// them into its event loop and returns.
//
// # Defensive Copying
//
// Commit and Snapshot clone the item slice and Snapshot wraps the stored
// error, so consumers never share backing arrays with the handler.
package state
