package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wicsp/hostsnap/model"
)

// Renderer formats snapshots as terminal tables.
// Plain drops colours and borders for pipes and log files.
type Renderer struct {
	Plain bool
	// MaskIPs hides addresses as x.x.x.x.
	MaskIPs bool
	// MaxProcesses caps process tables; 0 shows everything.
	MaxProcesses int
}

func (r Renderer) newTable(headers ...string) *table.Table {
	t := table.New().Headers(headers...)
	if r.Plain {
		return t.Border(lipgloss.HiddenBorder()).
			StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })
	}
	return t.Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
}

func (r Renderer) title(s string) string {
	if r.Plain {
		return s
	}
	return titleStyle.Render(s)
}

func (r Renderer) ip(addr string) string {
	if r.MaskIPs {
		return model.MaskIP(addr)
	}
	return addr
}

func (r Renderer) pct(v float64) string {
	if r.Plain {
		return fmtPct(v)
	}
	return usageColor(v).Render(fmtPct(v))
}

// SystemInfo renders the host identity as a key/value table.
func (r Renderer) SystemInfo(info model.SystemInfo) string {
	t := r.newTable("FIELD", "VALUE").Rows(
		[]string{"Hostname", info.Hostname},
		[]string{"Platform", info.Platform},
		[]string{"Version", info.PlatformVersion},
		[]string{"Architecture", info.Architecture},
		[]string{"Processor", info.Processor},
		[]string{"IP address", r.ip(info.IPAddress)},
		[]string{"Go runtime", info.RuntimeVersion},
		[]string{"Time", info.CurrentTime.Format(time.RFC3339)},
		[]string{"Uptime", info.UptimeString()},
	)
	return r.title("System") + "\n" + t.String()
}

// Memory renders the memory snapshot with a usage bar.
func (r Renderer) Memory(m model.MemoryUsage) string {
	usage := r.pct(m.Percent)
	if !r.Plain {
		usage = bar(m.Percent, 20) + " " + usage
	}
	t := r.newTable("TOTAL", "USED", "AVAILABLE", "USAGE").Row(
		fmtBytes(m.Total), fmtBytes(m.Used), fmtBytes(m.Available), usage,
	)
	return r.title("Memory") + "\n" + t.String()
}

// CPU renders the aggregate, the load averages and one row per core.
func (r Renderer) CPU(c model.CPUUsage) string {
	var b strings.Builder
	b.WriteString(r.title("CPU"))
	b.WriteString("\n")
	summary := r.newTable("USAGE", "LOAD 1m", "LOAD 5m", "LOAD 15m").Row(
		r.pct(c.Percent),
		strconv.FormatFloat(c.LoadAvg[0], 'f', 2, 64),
		strconv.FormatFloat(c.LoadAvg[1], 'f', 2, 64),
		strconv.FormatFloat(c.LoadAvg[2], 'f', 2, 64),
	)
	b.WriteString(summary.String())
	b.WriteString("\n")

	cores := r.newTable("CORE", "USAGE")
	for i, v := range c.Cores {
		usage := r.pct(v)
		if !r.Plain {
			usage = bar(v, 20) + " " + usage
		}
		cores.Row(strconv.Itoa(i), usage)
	}
	b.WriteString(cores.String())
	return b.String()
}

// Disks renders one row per mounted filesystem.
func (r Renderer) Disks(disks []model.DiskUsage) string {
	t := r.newTable("DEVICE", "MOUNT", "TYPE", "SIZE", "USED", "FREE", "USE%")
	for _, d := range disks {
		fs := d.Filesystem
		if fs == "" {
			fs = "-"
		}
		t.Row(truncate(d.Device, 32), truncate(d.Mountpoint, 40), fs,
			fmtBytes(d.Total), fmtBytes(d.Used), fmtBytes(d.Free), r.pct(d.Percent))
	}
	return r.title(fmt.Sprintf("Disks (%d)", len(disks))) + "\n" + t.String()
}

// Processes renders processes sorted by CPU then memory, busiest first.
func (r Renderer) Processes(procs []model.Process) string {
	sorted := SortProcesses(procs, SortCPU)
	shown := sorted
	if r.MaxProcesses > 0 && len(shown) > r.MaxProcesses {
		shown = shown[:r.MaxProcesses]
	}
	t := r.newTable("PID", "USER", "STAT", "%CPU", "%MEM", "START", "NAME", "COMMAND")
	for _, p := range shown {
		t.Row(processRow(p)...)
	}
	heading := fmt.Sprintf("Processes (%d)", len(procs))
	if len(shown) < len(procs) {
		heading = fmt.Sprintf("Processes (top %d of %d)", len(shown), len(procs))
	}
	return r.title(heading) + "\n" + t.String()
}

// KeyValues renders a titled two-column table.
func (r Renderer) KeyValues(title, keyHeader, valueHeader string, rows [][]string) string {
	t := r.newTable(keyHeader, valueHeader).Rows(rows...)
	return r.title(title) + "\n" + t.String()
}

// Snapshot renders every section of a snapshot.
func (r Renderer) Snapshot(s model.Snapshot) string {
	return strings.Join([]string{
		r.SystemInfo(s.System),
		r.Memory(s.Memory),
		r.CPU(s.CPU),
		r.Disks(s.Disks),
		r.Processes(s.Processes),
	}, "\n\n")
}

func processRow(p model.Process) []string {
	created := "-"
	if p.Created != nil {
		created = *p.Created
	}
	return []string{
		strconv.Itoa(p.PID),
		truncate(p.User, 12),
		p.Status,
		strconv.FormatFloat(p.CPUPercent, 'f', 1, 64),
		strconv.FormatFloat(p.MemoryPercent, 'f', 1, 64),
		created,
		truncate(p.Name, 24),
		truncate(p.Cmd, 60),
	}
}

// SortKey orders process listings.
type SortKey int

const (
	SortCPU SortKey = iota
	SortMemory
	SortPID
)

// SortProcesses returns a sorted copy of procs.
func SortProcesses(procs []model.Process, key SortKey) []model.Process {
	out := make([]model.Process, len(procs))
	copy(out, procs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch key {
		case SortMemory:
			if a.MemoryPercent != b.MemoryPercent {
				return a.MemoryPercent > b.MemoryPercent
			}
		case SortPID:
			return a.PID < b.PID
		}
		if a.CPUPercent != b.CPUPercent {
			return a.CPUPercent > b.CPUPercent
		}
		if a.MemoryPercent != b.MemoryPercent {
			return a.MemoryPercent > b.MemoryPercent
		}
		return a.PID < b.PID
	})
	return out
}
