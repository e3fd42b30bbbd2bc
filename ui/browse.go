package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wicsp/hostsnap/model"
)

// ProcessSource is what the browser needs from a collector.
type ProcessSource interface {
	ListProcesses(ctx context.Context) []model.Process
	KillProcess(pid int, force bool) (model.KillOutcome, error)
}

type procsMsg []model.Process

type killMsg struct {
	pid     int
	force   bool
	outcome model.KillOutcome
	err     error
}

// Browser is an interactive process list: filter, sort, signal.
// It shows one enumeration at a time; "r" takes a new one.
type Browser struct {
	ctx    context.Context
	src    ProcessSource
	procs  []model.Process
	view   []model.Process
	filter string

	filtering bool
	sortKey   SortKey
	cursor    int
	offset    int
	height    int
	width     int
	status    string
	loading   bool
}

// NewBrowser creates a browser over src, optionally pre-filtered.
func NewBrowser(ctx context.Context, src ProcessSource, filter string) Browser {
	return Browser{
		ctx:     ctx,
		src:     src,
		filter:  filter,
		height:  24,
		width:   120,
		loading: true,
	}
}

func (m Browser) Init() tea.Cmd {
	return m.load()
}

func (m Browser) load() tea.Cmd {
	ctx, src := m.ctx, m.src
	return func() tea.Msg {
		return procsMsg(src.ListProcesses(ctx))
	}
}

func (m Browser) kill(pid int, force bool) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		outcome, err := src.KillProcess(pid, force)
		return killMsg{pid: pid, force: force, outcome: outcome, err: err}
	}
}

func (m Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.width = msg.Width
		m.clamp()
		return m, nil

	case procsMsg:
		m.loading = false
		m.procs = []model.Process(msg)
		m.refilter()
		m.status = fmt.Sprintf("%d processes", len(m.procs))
		return m, nil

	case killMsg:
		m.status = killStatus(msg)
		if msg.outcome == model.KillSucceeded {
			m.loading = true
			return m, m.load()
		}
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			m.cursor++
		case "k", "up":
			m.cursor--
		case "g", "home":
			m.cursor = 0
		case "G", "end":
			m.cursor = len(m.view) - 1
		case "pgdown":
			m.cursor += m.pageSize()
		case "pgup":
			m.cursor -= m.pageSize()
		case "/":
			m.filtering = true
		case "c":
			m.sortKey = SortCPU
			m.refilter()
		case "m":
			m.sortKey = SortMemory
			m.refilter()
		case "p":
			m.sortKey = SortPID
			m.refilter()
		case "r":
			m.loading = true
			return m, m.load()
		case "x", "X":
			if p, ok := m.Selected(); ok {
				force := msg.String() == "X"
				return m, m.kill(p.PID, force)
			}
		}
		m.clamp()
	}
	return m, nil
}

func (m Browser) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyEsc:
		m.filtering = false
		m.filter = ""
	case tea.KeyBackspace:
		if r := []rune(m.filter); len(r) > 0 {
			m.filter = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.filter += string(msg.Runes)
		if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
			m.filter += " "
		}
	}
	m.refilter()
	return m, nil
}

func (m *Browser) refilter() {
	var view []model.Process
	for _, p := range SortProcesses(m.procs, m.sortKey) {
		if p.Matches(m.filter) {
			view = append(view, p)
		}
	}
	m.view = view
	m.clamp()
}

func (m *Browser) pageSize() int {
	// header, filter line, table header, status, help
	n := m.height - 6
	if n < 1 {
		n = 1
	}
	return n
}

func (m *Browser) clamp() {
	if m.cursor >= len(m.view) {
		m.cursor = len(m.view) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Selected returns the process under the cursor.
func (m Browser) Selected() (model.Process, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view) {
		return model.Process{}, false
	}
	return m.view[m.cursor], true
}

// Visible returns the processes that pass the current filter, in display order.
func (m Browser) Visible() []model.Process { return m.view }

func (m Browser) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("hostsnap processes"))
	if m.loading {
		b.WriteString(labelStyle.Render("  loading..."))
	}
	b.WriteString("\n")

	filter := labelStyle.Render("filter: ") + valueStyle.Render(m.filter)
	if m.filtering {
		filter += "█"
	}
	b.WriteString(filter + "\n")

	cmdW := m.width - 62
	if cmdW < 10 {
		cmdW = 10
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%7s %-10s %-5s %6s %6s %-20s %s",
		"PID", "USER", "STAT", "%CPU", "%MEM", "NAME", "COMMAND")) + "\n")

	end := m.offset + m.pageSize()
	if end > len(m.view) {
		end = len(m.view)
	}
	for i := m.offset; i < end; i++ {
		p := m.view[i]
		line := fmt.Sprintf("%7d %s %s %6.1f %6.1f %s %s",
			p.PID, padRight(p.User, 10), padRight(p.Status, 5),
			p.CPUPercent, p.MemoryPercent, padRight(p.Name, 20), truncate(p.Cmd, cmdW))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(labelStyle.Render(fmt.Sprintf("%d/%d shown", len(m.view), len(m.procs))))
	if m.status != "" {
		b.WriteString("  " + valueStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k move  / filter  c/m/p sort  x term  X kill  r refresh  q quit"))
	return b.String()
}

func killStatus(msg killMsg) string {
	sig := "SIGTERM"
	if msg.force {
		sig = "SIGKILL"
	}
	switch msg.outcome {
	case model.KillSucceeded:
		return okStyle.Render(fmt.Sprintf("sent %s to %d", sig, msg.pid))
	case model.KillNoSuchProcess:
		return warnStyle.Render(fmt.Sprintf("process %d no longer exists", msg.pid))
	case model.KillPermissionDenied:
		return critStyle.Render(fmt.Sprintf("permission denied for %d", msg.pid))
	}
	if msg.err != nil {
		return critStyle.Render(msg.err.Error())
	}
	return critStyle.Render(fmt.Sprintf("failed to signal %d", msg.pid))
}
