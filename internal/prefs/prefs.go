// Package prefs persists what the dashboard was last looking at.
// Preferences are stored in ~/.config/hordewatch/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds the last session's selections.
type Prefs struct {
	View    string `toml:"view"`
	AgentID string `toml:"agent_id,omitempty"`
	IssueID string `toml:"issue_id,omitempty"`
	UserID  string `toml:"user_id,omitempty"`
	// Tail keeps views following the live edge instead of a fixed window.
	Tail bool `toml:"tail"`
}

// Views the dashboard can open on.
const (
	ViewAgent = "agent"
	ViewAudit = "audit"
	ViewPools = "pools"
	ViewJobs  = "jobs"
)

const defaultPrefsPath = "~/.config/hordewatch/prefs.toml"

// Default returns the preferences of a first run.
func Default() Prefs {
	return Prefs{View: ViewPools, Tail: true}
}

func (p Prefs) normalized() Prefs {
	p.View = strings.ToLower(strings.TrimSpace(p.View))
	switch p.View {
	case ViewAgent, ViewAudit, ViewPools, ViewJobs:
	default:
		p.View = ViewPools
	}
	p.AgentID = strings.TrimSpace(p.AgentID)
	p.IssueID = strings.TrimSpace(p.IssueID)
	p.UserID = strings.TrimSpace(p.UserID)
	return p
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Any problem reading or decoding the file
// yields Default(); preferences are never worth failing startup over.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Default(), nil
	}

	p := Default()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default(), nil
	}
	return p.normalized(), nil
}

// Save writes p to path through a temporary file in the same directory, so a
// crash mid-write leaves the previous prefs intact.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultPrefsPath
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}
