package ui

import (
	"fmt"
	"strings"

	"github.com/hordewatch/hordewatch/internal/dashboard"
)

// parseTarget turns what the user typed into a handler target for view.
// The audit view accepts "agent <id>", "issue <id>" or the agent:/issue:
// forms; a bare number is taken as an issue and anything else as an agent.
func parseTarget(view View, input string) (string, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return "", fmt.Errorf("empty %s id", view.subject())
	}
	switch view {
	case ViewAgent, ViewJobs:
		return text, nil
	case ViewAudit:
		kind, id, ok := strings.Cut(text, ":")
		if !ok {
			kind, id, ok = strings.Cut(text, " ")
		}
		if ok {
			id = strings.TrimSpace(id)
			switch strings.ToLower(strings.TrimSpace(kind)) {
			case "agent":
				if id != "" {
					return dashboard.AgentTarget(id), nil
				}
			case "issue":
				if id != "" {
					return dashboard.IssueTarget(id), nil
				}
			}
			return "", fmt.Errorf("audit target %q: want agent <id> or issue <id>", text)
		}
		if isDigits(text) {
			return dashboard.IssueTarget(text), nil
		}
		return dashboard.AgentTarget(text), nil
	default:
		return "", fmt.Errorf("%s view has no target", view)
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
