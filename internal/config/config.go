package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings hordewatch reads at startup.
type Config struct {
	ServerURL   string
	Token       string
	LogFile     string
	LogLevel    string
	MetricsAddr string // empty disables the metrics endpoint
	BatchSize   int
	Lookback    time.Duration
	Poll        PollIntervals
}

// PollIntervals are per-view refresh cadences. Zero keeps the built-in
// cadence of that view.
type PollIntervals struct {
	AuditLog      time.Duration
	AgentHistory  time.Duration
	UserJobs      time.Duration
	Pools         time.Duration
	PoolTelemetry time.Duration
}

// TokenEnv overrides the token from the config file when set.
const TokenEnv = "HORDEWATCH_TOKEN"

const (
	defaultConfigPath = "~/.config/hordewatch/config.toml"
	defaultLogFile    = "~/.local/state/hordewatch/hordewatch.log"
	defaultServerURL  = "http://127.0.0.1:13340"
	defaultLogLevel   = "info"
	defaultBatchSize  = 5
	defaultLookback   = 6 * time.Hour
)

type rawConfig struct {
	ServerURL     string `toml:"server_url"`
	Token         string `toml:"token"`
	LogFile       string `toml:"log_file"`
	LogLevel      string `toml:"log_level"`
	MetricsAddr   string `toml:"metrics_addr"`
	BatchSize     int    `toml:"batch_size"`
	LookbackHours int    `toml:"lookback_hours"`

	AuditLogPollSeconds      int `toml:"audit_log_poll_seconds"`
	AgentHistoryPollSeconds  int `toml:"agent_history_poll_seconds"`
	UserJobsPollSeconds      int `toml:"user_jobs_poll_seconds"`
	PoolsPollSeconds         int `toml:"pools_poll_seconds"`
	PoolTelemetryPollSeconds int `toml:"pool_telemetry_poll_seconds"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServerURL: defaultServerURL,
		LogFile:   mustExpand(defaultLogFile),
		LogLevel:  defaultLogLevel,
		BatchSize: defaultBatchSize,
		Lookback:  defaultLookback,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	cfg.Token = strings.TrimSpace(os.Getenv(TokenEnv))

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.ServerURL); v != "" {
		cfg.ServerURL = v
	}
	if cfg.Token == "" {
		cfg.Token = strings.TrimSpace(raw.Token)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	if raw.BatchSize > 0 {
		cfg.BatchSize = raw.BatchSize
	}
	if raw.LookbackHours > 0 {
		cfg.Lookback = time.Duration(raw.LookbackHours) * time.Hour
	}

	cfg.Poll = PollIntervals{
		AuditLog:      seconds(raw.AuditLogPollSeconds),
		AgentHistory:  seconds(raw.AgentHistoryPollSeconds),
		UserJobs:      seconds(raw.UserJobsPollSeconds),
		Pools:         seconds(raw.PoolsPollSeconds),
		PoolTelemetry: seconds(raw.PoolTelemetryPollSeconds),
	}
	return cfg, nil
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
