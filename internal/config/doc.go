// Package config loads the hordewatch configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/hordewatch/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// The HORDEWATCH_TOKEN environment variable takes precedence over the token
// stored in the file.
//
// # TOML Format
//
//	server_url = "https://horde.example.com"
//	token = "..."
//	log_file = "~/.local/state/hordewatch/hordewatch.log"
//	log_level = "info"
//	metrics_addr = "127.0.0.1:9108"
//	batch_size = 5
//	lookback_hours = 6
//
//	audit_log_poll_seconds = 5
//	agent_history_poll_seconds = 10
//	user_jobs_poll_seconds = 15
//	pools_poll_seconds = 30
//	pool_telemetry_poll_seconds = 30
//
// Every field is optional. Tilde expansion is performed on log_file. Poll
// intervals left at zero keep the built-in cadence of the view.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than a
// missing file, and TOML parse errors (wrapped as "parse config").
package config
