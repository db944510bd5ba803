package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderHeader() string {
	parts := []string{m.styles.Logo.Render("hordewatch")}
	for v := ViewAgent; v < viewCount; v++ {
		label := fmt.Sprintf("%d %s", int(v)+1, v.title())
		if v == m.currentView {
			parts = append(parts, m.styles.TabActive.Render(label))
		} else {
			parts = append(parts, m.styles.Tab.Render(label))
		}
	}
	return m.styles.Header.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
}

func (m Model) renderTargetLine() string {
	if m.editing {
		return m.input.View()
	}
	mode := m.styles.SuccessText.Render("live")
	if !m.prefs.Tail {
		mode = m.styles.WarningText.Render("frozen")
	}
	if m.currentView == ViewPools {
		return mode
	}
	target := m.currentTarget()
	if target == "" {
		target = m.styles.MutedText.Render(fmt.Sprintf("no %s selected, press / to choose", m.currentView.subject()))
		return mode + "  " + target
	}
	line := mode + "  " + m.styles.AccentText.Render(target)
	if badges := m.renderBadges(); badges != "" {
		line += "  " + badges
	}
	return line
}

// renderBadges shows how many rows of the current view are in each status.
func (m Model) renderBadges() string {
	counts := tally(m.currentStatuses())
	badges := make([]string, 0, len(counts))
	for _, c := range counts {
		badges = append(badges, m.styles.StatusStyle(c.Status).Render(fmt.Sprintf("%s %d", c.Status, c.Count)))
	}
	return strings.Join(badges, " ")
}

func (m Model) renderStatus() string {
	st := m.currentStatus()
	var parts []string
	if st.Loading {
		parts = append(parts, m.styles.InfoText.Render(m.spinner.View()+" loading"))
	}
	switch {
	case st.Offline:
		parts = append(parts, m.styles.DangerText.Render("offline"))
	case st.Err != nil:
		parts = append(parts, m.styles.WarningText.Render("error"))
	}
	parts = append(parts, fmt.Sprintf("%d rows", st.Count), fmt.Sprintf("v%d", st.Version))
	if !st.LastUpdated.IsZero() {
		if ago := m.now().Sub(st.LastUpdated); ago < time.Second {
			parts = append(parts, "updated just now")
		} else {
			parts = append(parts, "updated "+formatDuration(ago)+" ago")
		}
	}
	if st.Err != nil {
		parts = append(parts, m.styles.MutedText.Render(singleLine(st.Err.Error())))
	}
	if m.notice != "" {
		parts = append(parts, m.styles.AccentText.Render(m.notice))
	}
	return m.styles.Footer.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	title := m.styles.Text.Bold(true).Render("Keyboard Shortcuts")
	body := lipgloss.JoinVertical(lipgloss.Left, title, "", h.View(m.keys), "", m.styles.MutedText.Render("Press any key to close"))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(DefaultTheme().Accent)).
		Padding(1, 2).
		Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
