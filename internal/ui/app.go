package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/hordewatch/hordewatch/internal/dashboard"
	"github.com/hordewatch/hordewatch/internal/poll"
	"github.com/hordewatch/hordewatch/internal/prefs"
)

// View represents the current active view.
type View int

const (
	ViewAgent View = iota
	ViewAudit
	ViewPools
	ViewJobs
	viewCount
)

func (v View) String() string {
	switch v {
	case ViewAgent:
		return prefs.ViewAgent
	case ViewAudit:
		return prefs.ViewAudit
	case ViewJobs:
		return prefs.ViewJobs
	default:
		return prefs.ViewPools
	}
}

func (v View) title() string {
	switch v {
	case ViewAgent:
		return "Agent leases"
	case ViewAudit:
		return "Audit log"
	case ViewJobs:
		return "User jobs"
	default:
		return "Device pools"
	}
}

func (v View) subject() string {
	switch v {
	case ViewAgent:
		return "agent"
	case ViewAudit:
		return "agent or issue"
	case ViewJobs:
		return "user"
	default:
		return ""
	}
}

func viewFromPrefs(name string) View {
	for v := ViewAgent; v < viewCount; v++ {
		if v.String() == name {
			return v
		}
	}
	return ViewPools
}

const (
	uiTick = time.Second
	// frozenSpan is how far back a frozen window reaches.
	frozenSpan = 6 * time.Hour
	// seriesBucket is the telemetry bucket behind the pool columns.
	seriesBucket = 5 * time.Minute
	chromeLines  = 5
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Dashboard *dashboard.Dashboard
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	dash      *dashboard.Dashboard
	logger    *zap.Logger
	prefsPath string
	prefs     prefs.Prefs

	styles Styles
	keys   keyMap
	help   help.Model

	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	editing     bool
	notice      string

	table   table.Model
	spinner spinner.Model
	input   textinput.Model
	now     func() time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	theme := DefaultTheme()
	styles := theme.Styles()

	tbl := table.New(table.WithFocused(true))
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Border)).
		BorderBottom(true).
		Bold(true)
	ts.Selected = styles.Selected
	tbl.SetStyles(ts)

	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 128

	return Model{
		ctx:         ctx,
		dash:        opts.Dashboard,
		logger:      logger,
		prefsPath:   opts.PrefsPath,
		prefs:       opts.Prefs,
		styles:      styles,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		currentView: viewFromPrefs(opts.Prefs.View),
		table:       tbl,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		input:       input,
		now:         time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		m.restoreCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-chromeLines, 3))
		m.refreshTable()
		return m, nil

	case updatedMsg:
		if msg.view == m.currentView {
			m.refreshTable()
		}
		return m, nil

	case tickMsg:
		m.refreshTable()
		return m, tickCmd()

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTargetLine())
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.currentView + 1) % viewCount)
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView((m.currentView + viewCount - 1) % viewCount)
	case key.Matches(msg, m.keys.ViewAgent):
		return m.switchView(ViewAgent)
	case key.Matches(msg, m.keys.ViewAudit):
		return m.switchView(ViewAudit)
	case key.Matches(msg, m.keys.ViewPools):
		return m.switchView(ViewPools)
	case key.Matches(msg, m.keys.ViewJobs):
		return m.switchView(ViewJobs)
	case key.Matches(msg, m.keys.EditTarget):
		if m.currentView == ViewPools {
			return m, nil
		}
		m.editing = true
		m.notice = ""
		m.input.Placeholder = m.currentView.subject() + " id"
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.ToggleTail):
		m.prefs.Tail = !m.prefs.Tail
		m.savePrefs()
		return m, m.windowCmd(m.prefs.Tail)
	case key.Matches(msg, m.keys.LoadMore):
		return m, m.loadMoreCmd()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.editing = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		target, err := parseTarget(m.currentView, m.input.Value())
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.editing = false
		m.input.Blur()
		m.rememberTarget(m.currentView, target)
		m.savePrefs()
		return m, m.setTargetCmd(m.currentView, target)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	if v == m.currentView {
		return m, nil
	}
	m.currentView = v
	m.notice = ""
	m.prefs.View = v.String()
	m.savePrefs()
	m.table.SetCursor(0)
	m.refreshTable()
	return m, nil
}

// refreshTable rebuilds columns and rows of the current view from the
// handlers' latest snapshots.
func (m *Model) refreshTable() {
	if m.dash == nil {
		return
	}
	var cols []table.Column
	var rows []table.Row
	switch m.currentView {
	case ViewAgent:
		cols, rows = leaseColumns(), leaseRows(m.dash.AgentHistory.Snapshot().Items, m.now())
	case ViewAudit:
		cols, rows = auditColumns(), auditRows(m.dash.AuditLog.Snapshot().Items)
	case ViewJobs:
		cols, rows = jobColumns(), jobRows(m.dash.UserJobs.Snapshot().Items)
	default:
		cols = poolColumns()
		rows = poolRows(m.dash.Pools.Snapshot().Items, m.dash.PoolTelemetry.Series(seriesBucket))
	}
	// Rows must never be wider than the columns being rendered.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
}

// currentStatus summarizes the snapshot behind the current view.
func (m Model) currentStatus() viewStatus {
	if m.dash == nil {
		return viewStatus{}
	}
	switch m.currentView {
	case ViewAgent:
		return statusOf(m.dash.AgentHistory.Snapshot())
	case ViewAudit:
		return statusOf(m.dash.AuditLog.Snapshot())
	case ViewJobs:
		return statusOf(m.dash.UserJobs.Snapshot())
	default:
		return statusOf(m.dash.Pools.Snapshot())
	}
}

// currentStatuses lists the status column of the current view.
func (m Model) currentStatuses() []string {
	if m.dash == nil {
		return nil
	}
	switch m.currentView {
	case ViewAgent:
		return leaseStatuses(m.dash.AgentHistory.Snapshot().Items)
	case ViewAudit:
		return auditStatuses(m.dash.AuditLog.Snapshot().Items)
	case ViewJobs:
		return jobStatuses(m.dash.UserJobs.Snapshot().Items)
	}
	return nil
}

func (m Model) currentTarget() string {
	switch m.currentView {
	case ViewAgent:
		return m.prefs.AgentID
	case ViewAudit:
		if m.prefs.IssueID != "" {
			return "issue " + m.prefs.IssueID
		}
		if m.prefs.AgentID != "" {
			return "agent " + m.prefs.AgentID
		}
	case ViewJobs:
		return m.prefs.UserID
	}
	return ""
}

func (m *Model) rememberTarget(v View, target string) {
	switch v {
	case ViewAgent:
		m.prefs.AgentID = target
	case ViewAudit:
		if id, ok := strings.CutPrefix(target, dashboard.IssueTarget("")); ok {
			m.prefs.IssueID = id
		} else {
			m.prefs.AgentID = strings.TrimPrefix(target, dashboard.AgentTarget(""))
			m.prefs.IssueID = ""
		}
	case ViewJobs:
		m.prefs.UserID = target
	}
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs", zap.Error(err))
	}
}

// Messages

type tickMsg time.Time

// updatedMsg reports a new version committed by the handler behind view.
type updatedMsg struct {
	view    View
	version uint64
}

type noticeMsg string

// Commands

func tickCmd() tea.Cmd {
	return tea.Tick(uiTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// restoreCmd reopens the targets of the previous session. Fetches run off the
// event loop; results arrive as updatedMsg.
func (m Model) restoreCmd() tea.Cmd {
	if m.dash == nil {
		return nil
	}
	ctx, d, p := m.ctx, m.dash, m.prefs
	window := m.window(p.Tail)
	return func() tea.Msg {
		d.Pools.Start(ctx)
		d.PoolTelemetry.SetWindow(ctx, window)
		if p.AgentID != "" {
			d.AgentHistory.SetWindow(ctx, window)
			d.AgentHistory.Set(ctx, p.AgentID)
		}
		if p.IssueID != "" {
			d.AuditLog.SetWindow(ctx, window)
			d.AuditLog.Set(ctx, dashboard.IssueTarget(p.IssueID))
		} else if p.AgentID != "" {
			d.AuditLog.SetWindow(ctx, window)
			d.AuditLog.Set(ctx, dashboard.AgentTarget(p.AgentID))
		}
		if p.UserID != "" {
			d.UserJobs.Set(ctx, p.UserID)
		}
		return nil
	}
}

func (m Model) setTargetCmd(v View, target string) tea.Cmd {
	ctx, d := m.ctx, m.dash
	return func() tea.Msg {
		switch v {
		case ViewAgent:
			d.AgentHistory.Set(ctx, target)
			d.AuditLog.Set(ctx, dashboard.AgentTarget(target))
		case ViewAudit:
			d.AuditLog.Set(ctx, target)
		case ViewJobs:
			d.UserJobs.Set(ctx, target)
		}
		return nil
	}
}

func (m Model) window(tail bool) poll.Window {
	if tail {
		return poll.Window{}
	}
	now := m.now()
	return poll.Window{MinTime: now.Add(-frozenSpan), MaxTime: now}
}

// windowCmd follows the live edge or freezes every windowed handler.
func (m Model) windowCmd(tail bool) tea.Cmd {
	ctx, d := m.ctx, m.dash
	w := m.window(tail)
	return func() tea.Msg {
		d.PoolTelemetry.SetWindow(ctx, w)
		if d.AgentHistory.Target() != "" {
			d.AgentHistory.SetWindow(ctx, w)
		}
		if d.AuditLog.Target() != "" {
			d.AuditLog.SetWindow(ctx, w)
		}
		if tail {
			return noticeMsg("following live")
		}
		return noticeMsg(fmt.Sprintf("frozen at %s", w.MaxTime.Local().Format(timeLayout)))
	}
}

func (m Model) loadMoreCmd() tea.Cmd {
	ctx, d, v := m.ctx, m.dash, m.currentView
	return func() tea.Msg {
		switch v {
		case ViewAgent:
			d.AgentHistory.LoadMore(ctx)
		case ViewAudit:
			d.AuditLog.LoadMore(ctx)
		case ViewJobs:
			d.UserJobs.LoadMore(ctx)
		default:
			return noticeMsg("pools are not paged")
		}
		return nil
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, d, v := m.ctx, m.dash, m.currentView
	return func() tea.Msg {
		switch v {
		case ViewAgent:
			d.AgentHistory.Update(ctx)
		case ViewAudit:
			d.AuditLog.Update(ctx)
		case ViewJobs:
			d.UserJobs.Update(ctx)
		default:
			d.Pools.Update(ctx)
			d.PoolTelemetry.Update(ctx)
		}
		return nil
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is canceled.
func Run(opts Options) error {
	if opts.Dashboard == nil {
		return fmt.Errorf("ui requires a dashboard")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	opts.Context = ctx

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	stop := forward(ctx, opts.Dashboard, p.Send)
	defer stop()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
