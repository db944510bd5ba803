package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/hordewatch/hordewatch/internal/dashboard"
	"github.com/hordewatch/hordewatch/internal/horde"
)

const timeLayout = "01-02 15:04:05"

func leaseColumns() []table.Column {
	return []table.Column{
		{Title: "Lease", Width: 10},
		{Title: "Name", Width: 36},
		{Title: "Pool", Width: 14},
		{Title: "Started", Width: 14},
		{Title: "Duration", Width: 10},
		{Title: "Outcome", Width: 10},
	}
}

func leaseRows(leases []horde.Lease, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(leases))
	for _, l := range leases {
		rows = append(rows, table.Row{
			shortID(l.ID),
			l.Name,
			l.PoolID,
			formatTime(l.StartTime),
			formatDuration(l.Duration(now)),
			leaseOutcome(l),
		})
	}
	return rows
}

func auditColumns() []table.Column {
	return []table.Column{
		{Title: "Time", Width: 14},
		{Title: "Level", Width: 11},
		{Title: "Message", Width: 80},
	}
}

func auditRows(entries []horde.AuditLogEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{
			formatTime(e.Time),
			e.Level,
			singleLine(e.Message),
		})
	}
	return rows
}

func poolColumns() []table.Column {
	return []table.Column{
		{Title: "Pool", Width: 24},
		{Title: "Type", Width: 12},
		{Title: "Available", Width: 10},
		{Title: "Reserved", Width: 10},
		{Title: "Problem", Width: 10},
		{Title: "Devices", Width: 8},
	}
}

// poolRows joins the pool list with the newest telemetry bucket of each pool.
func poolRows(pools []horde.DevicePool, series []dashboard.PoolSeries) []table.Row {
	latest := latestByPool(series)
	rows := make([]table.Row, 0, len(pools))
	for _, p := range pools {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		row := table.Row{name, p.PoolType, "-", "-", "-", "-"}
		if pt, ok := latest[p.ID]; ok {
			row[2] = formatCount(pt.Available)
			row[3] = formatCount(pt.Reserved)
			row[4] = formatCount(pt.Problem)
			row[5] = formatCount(pt.Total())
		}
		rows = append(rows, row)
	}
	return rows
}

// latestByPool sums the last point of every platform series per pool.
func latestByPool(series []dashboard.PoolSeries) map[string]dashboard.TelemetryPoint {
	out := map[string]dashboard.TelemetryPoint{}
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		last := s.Points[len(s.Points)-1]
		acc := out[s.PoolID]
		if last.Time.After(acc.Time) {
			acc.Time = last.Time
		}
		acc.Samples += last.Samples
		acc.Available += last.Available
		acc.Reserved += last.Reserved
		acc.Maintenance += last.Maintenance
		acc.Problem += last.Problem
		acc.Disabled += last.Disabled
		out[s.PoolID] = acc
	}
	return out
}

func jobColumns() []table.Column {
	return []table.Column{
		{Title: "Change", Width: 10},
		{Title: "Stream", Width: 22},
		{Title: "Job", Width: 40},
		{Title: "State", Width: 10},
		{Title: "Created", Width: 14},
	}
}

func jobRows(jobs []horde.JobSummary) []table.Row {
	rows := make([]table.Row, 0, len(jobs))
	for _, j := range jobs {
		change := strconv.Itoa(j.EffectiveChange())
		if j.PreflightChange > 0 {
			change = "PF " + change
		}
		rows = append(rows, table.Row{
			change,
			j.StreamID,
			j.Name,
			j.State,
			formatTime(j.CreateTime),
		})
	}
	return rows
}

// statusCount is one badge of the status tally shown above the table.
type statusCount struct {
	Status string
	Count  int
}

// tally counts statuses in order of first appearance.
func tally(statuses []string) []statusCount {
	var out []statusCount
	index := map[string]int{}
	for _, s := range statuses {
		if s == "" {
			continue
		}
		i, ok := index[s]
		if !ok {
			i = len(out)
			index[s] = i
			out = append(out, statusCount{Status: s})
		}
		out[i].Count++
	}
	return out
}

func leaseOutcome(l horde.Lease) string {
	if l.FinishTime == nil {
		return "Running"
	}
	return l.Outcome
}

func leaseStatuses(leases []horde.Lease) []string {
	out := make([]string, len(leases))
	for i, l := range leases {
		out[i] = leaseOutcome(l)
	}
	return out
}

func auditStatuses(entries []horde.AuditLogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Level
	}
	return out
}

func jobStatuses(jobs []horde.JobSummary) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.State
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func formatCount(v float64) string {
	if v == float64(int(v)) {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func singleLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
