// Package app provides the orchestration layer for hordewatch.
//
// # Overview
//
// This package wires together configuration, logging, metrics, the Horde
// client and the dashboard handlers. It serves as the composition root for
// both the TUI and the one-shot CLI commands.
//
// # Architecture
//
//	┌──────────────┐
//	│   Open()     │ Build a session
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read ~/.config/hordewatch/config.toml
//	       ├─────> NewLogger()          JSON log file, never the terminal
//	       ├─────> horde.NewClient()    HTTP client
//	       ├─────> serveMetrics()       /metrics when metrics_addr is set
//	       └─────> dashboard.New()      One handler per view
//
//	Run():  Open → ui.Run (blocks) → Close
//	Show(): handler.Set → Once or Watch → Close
//
// # Error Handling
//
// Fatal errors (returned from Open and Run):
//   - Configuration file unreadable or invalid
//   - Log file or metrics listener cannot be opened
//   - Invalid server URL
//
// Fetch failures are never fatal. Handlers log them, keep their previous
// data and report them in their snapshot; the TUI and printers show them.
//
// # Output
//
// Printers render snapshots as a table (lipgloss/table) or as JSON, one
// document per version in watch mode.
package app
