// Package ui provides the Bubble Tea terminal dashboard.
//
// # Views
//
//   - Agent leases: lease history of the selected agent
//   - Audit log: audit entries of the selected agent or issue
//   - Device pools: pool list joined with the newest telemetry bucket
//   - User jobs: jobs started by the selected user, newest change first
//
// # Event Flow
//
//  1. Run builds the Model and subscribes to every dashboard handler
//  2. Handlers poll on their own schedule and commit new versions
//  3. Each commit is queued and delivered to the program as updatedMsg
//  4. The model rebuilds the table of the current view from a snapshot
//
// Handler calls that fetch (Set, SetWindow, LoadMore, Update) always run in
// a tea.Cmd so the event loop never waits on the network.
//
// # Key Bindings
//
//   - 1-4 or tab/shift+tab: switch views
//   - /: choose the agent, issue or user of the current view
//   - f: toggle between following the live edge and a frozen window
//   - m: load the next page
//   - r: refresh now
//   - h or ?: help
//   - q or ctrl+c: quit
//
// The current view, selected ids and follow mode are saved to prefs.toml
// and restored on the next start.
package ui
