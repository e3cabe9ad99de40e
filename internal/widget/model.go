// Package widget is the terminal front end: it renders engine snapshots
// and runs the cat animation on its own clock.
package widget

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/tokencat/internal/config"
	"github.com/janekbaraniewski/tokencat/internal/usage"
)

const (
	barWidth     = 24
	maxEmailCols = 28
)

// Controller is the part of *usage.Engine the widget drives.
type Controller interface {
	Snapshot() usage.Snapshot
	Refresh()
	CycleMockUsage()
	Reset()
}

// SnapshotMsg carries a snapshot published by the engine.
type SnapshotMsg usage.Snapshot

// animTickMsg advances the cat by one frame. Ticks from an older
// generation are dropped, so a state change or pause restarts the clock.
type animTickMsg struct{ gen int }

type animationPersistedMsg struct{ err error }

type Options struct {
	Controller       Controller
	AnimationEnabled bool
	// ConfigPath is where the animation toggle is saved. Empty skips saving.
	ConfigPath string
	Logger     *zap.Logger
	Now        func() time.Time
}

type Model struct {
	ctrl       Controller
	snap       usage.Snapshot
	configPath string
	logger     *zap.Logger
	now        func() time.Time

	animating bool
	animGen   int
	frame     int

	// refreshing holds until a poll outcome newer than refreshFrom lands.
	refreshing  bool
	refreshFrom uint64
	spinner     spinner.Model
	bar         progress.Model
	status      string
}

func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		ctrl:       opts.Controller,
		configPath: opts.ConfigPath,
		logger:     logger.Named("widget"),
		now:        now,
		animating:  opts.AnimationEnabled,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(colorSapphire)),
		),
		bar: progress.New(
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
			progress.WithSolidFill(string(colorTeal)),
		),
	}
	m.bar.EmptyColor = string(colorSurface1)
	if opts.Controller != nil {
		m.snap = opts.Controller.Snapshot()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.animCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		prev := m.snap.CatState()
		m.snap = usage.Snapshot(msg)
		if m.snap.UsingMockData || m.snap.Polls != m.refreshFrom {
			m.refreshing = false
		}
		if m.snap.CatState() != prev {
			m.frame = 0
			m.animGen++
			return m, m.animCmd()
		}
		return m, nil

	case animTickMsg:
		if msg.gen != m.animGen || !m.animating {
			return m, nil
		}
		m.frame++
		return m, m.animCmd()

	case spinner.TickMsg:
		if !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case animationPersistedMsg:
		if msg.err != nil {
			m.status = "Could not save animation setting."
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "r":
		if m.snap.UsingMockData || m.ctrl == nil {
			return m, nil
		}
		m.refreshing = true
		m.refreshFrom = m.snap.Polls
		return m, tea.Batch(m.spinner.Tick, m.controllerCmd(m.ctrl.Refresh))

	case "c":
		if !m.snap.UsingMockData || m.ctrl == nil {
			return m, nil
		}
		return m, m.controllerCmd(m.ctrl.CycleMockUsage)

	case "x":
		if m.ctrl == nil {
			return m, nil
		}
		return m, m.controllerCmd(m.ctrl.Reset)

	case "p":
		m.animating = !m.animating
		m.animGen++
		m.status = ""
		return m, tea.Batch(m.animCmd(), m.persistAnimationCmd(m.animating))
	}
	return m, nil
}

// controllerCmd runs fn off the update loop: engine calls publish
// snapshots through Program.Send, which waits for this loop.
func (m Model) controllerCmd(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m Model) animCmd() tea.Cmd {
	if !m.animating {
		return nil
	}
	gen := m.animGen
	return tea.Tick(FrameInterval(m.snap.CatState()), func(time.Time) tea.Msg {
		return animTickMsg{gen: gen}
	})
}

func (m Model) persistAnimationCmd(enabled bool) tea.Cmd {
	if m.configPath == "" {
		return nil
	}
	path := m.configPath
	logger := m.logger
	return func() tea.Msg {
		err := config.SaveAnimationEnabledTo(path, enabled)
		if err != nil {
			logger.Warn("animation setting persist failed", zap.Error(err))
		}
		return animationPersistedMsg{err: err}
	}
}

func (m Model) View() string {
	s := m.snap
	state := s.CatState()
	now := m.now()

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	catStyle := lipgloss.NewStyle().Foreground(stateColor(state))
	for _, line := range catFrame(state, m.frame) {
		b.WriteString("  " + catStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderBar("Session", s.SessionUtilization, stateColor(state)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("        " + s.ResetText(now)))
	b.WriteString("\n")

	if s.ShowWeekly() {
		b.WriteString(m.renderBar("Weekly ", s.WeeklyUtilization, colorLavender))
		b.WriteString("\n")
	}
	if s.ShowExtraUsage() {
		b.WriteString(m.renderBar("Extra  ", s.ExtraUsagePercent(), colorSapphire))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("        ") + valueStyle.Render(s.ExtraUsageText()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if msg := s.ErrorMessage(); msg != "" {
		b.WriteString(errorStyle.Render(msg))
		b.WriteString("\n")
	}
	b.WriteString(m.renderConnection())
	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status))
	}

	return frameStyle.Render(b.String()) + "\n" + m.renderHelp()
}

func (m Model) renderHeader() string {
	parts := []string{brandStyle.Render("TokenCat")}
	if m.snap.UsingMockData {
		parts = append(parts, mockBadgeStyle.Render("Mock"))
	} else if badge := tierBadge(m.snap.Tier); badge != "" {
		parts = append(parts, badge)
	}
	if email := m.snap.AccountEmail; email != "" {
		parts = append(parts, dimStyle.Render(ansi.Truncate(email, maxEmailCols, "…")))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderBar(label string, percent float64, color lipgloss.Color) string {
	bar := m.bar
	bar.FullColor = string(color)
	return labelStyle.Render(label+" ") + bar.ViewAs(usage.UsageRatio(percent)) +
		valueStyle.Render(fmt.Sprintf(" %3d%%", usage.WholePercent(percent)))
}

func (m Model) renderConnection() string {
	s := m.snap
	if s.UsingMockData {
		return dimStyle.Render(s.ConnectionHint())
	}
	var line string
	if s.LastUpdated != nil {
		line = okStyle.Render("Connected") + dimStyle.Render(" · Updated at "+s.LastUpdated.Local().Format("15:04"))
	} else {
		line = okStyle.Render("Connected") + dimStyle.Render(" · Waiting for data")
	}
	if m.refreshing {
		line += " " + m.spinner.View()
	}
	return line
}

func (m Model) renderHelp() string {
	type binding struct{ key, desc string }
	bindings := []binding{{"r", "refresh"}}
	if m.snap.UsingMockData {
		bindings = []binding{{"c", "cycle"}}
	}
	pause := "pause"
	if !m.animating {
		pause = "animate"
	}
	bindings = append(bindings, binding{"x", "reset"}, binding{"p", pause}, binding{"q", "quit"})

	parts := make([]string, 0, len(bindings))
	for _, bd := range bindings {
		parts = append(parts, helpKeyStyle.Render(bd.key)+" "+dimStyle.Render(bd.desc))
	}
	return strings.Join(parts, dimStyle.Render("  "))
}
