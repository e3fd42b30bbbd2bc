package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wicsp/hostsnap/model"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a long command line", 10, "a long ..."},
		{"héllo wörld", 8, "héllo..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight(ab, 5) = %q", got)
	}
	if got := padRight("ü", 3); got != "ü  " {
		t.Errorf("padRight counts runes, got %q", got)
	}
	if got := padRight("abcdefgh", 6); got != "abc..." {
		t.Errorf("padRight truncates, got %q", got)
	}
}

var sampleProcs = []model.Process{
	{PID: 30, Name: "bash", Cmd: "-bash", CPUPercent: 0.0, MemoryPercent: 0.1, User: "alice", Status: "Ss"},
	{PID: 10, Name: "nginx", Cmd: "/usr/sbin/nginx", CPUPercent: 5.0, MemoryPercent: 1.0, User: "root", Status: "S"},
	{PID: 20, Name: "Nginx-worker", Cmd: "nginx: worker", CPUPercent: 5.0, MemoryPercent: 2.0, User: "www", Status: "S"},
	{PID: 40, Name: "postgres", Cmd: "postgres -D /data", CPUPercent: 1.0, MemoryPercent: 9.0, User: "pg", Status: "S"},
}

func pids(procs []model.Process) []int {
	out := make([]int, len(procs))
	for i, p := range procs {
		out[i] = p.PID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortProcesses(t *testing.T) {
	tests := []struct {
		name string
		key  SortKey
		want []int
	}{
		{"cpu then memory", SortCPU, []int{20, 10, 40, 30}},
		{"memory", SortMemory, []int{40, 20, 10, 30}},
		{"pid", SortPID, []int{10, 20, 30, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pids(SortProcesses(sampleProcs, tt.key)); !equalInts(got, tt.want) {
				t.Errorf("SortProcesses() = %v, want %v", got, tt.want)
			}
		})
	}
	if sampleProcs[0].PID != 30 {
		t.Error("SortProcesses must not reorder its input")
	}
}

func TestRendererPlain(t *testing.T) {
	r := Renderer{Plain: true, MaxProcesses: 2}
	up := "3:04:05"
	out := r.SystemInfo(model.SystemInfo{Hostname: "box", Platform: "Linux", IPAddress: "10.0.0.7", Uptime: &up})
	for _, want := range []string{"System", "Hostname", "box", "Linux", "10.0.0.7", "3:04:05"} {
		if !strings.Contains(out, want) {
			t.Errorf("SystemInfo output missing %q:\n%s", want, out)
		}
	}

	out = r.Processes(sampleProcs)
	if !strings.Contains(out, "top 2 of 4") || !strings.Contains(out, "Nginx-worker") || strings.Contains(out, "postgres") {
		t.Errorf("Processes output:\n%s", out)
	}

	out = r.Disks([]model.DiskUsage{{Device: "/dev/sda1", Mountpoint: "/", Total: 1 << 30, Percent: 50}})
	if !strings.Contains(out, "1.0 GiB") || !strings.Contains(out, "50.0%") || !strings.Contains(out, "/dev/sda1") {
		t.Errorf("Disks output:\n%s", out)
	}

	out = r.CPU(model.CPUUsage{Percent: 12.5, Cores: []float64{10, 15}, LoadAvg: [3]float64{1, 2, 3}})
	if !strings.Contains(out, "12.5%") || !strings.Contains(out, "15.0%") || !strings.Contains(out, "3.00") {
		t.Errorf("CPU output:\n%s", out)
	}
}

func TestMaskedIP(t *testing.T) {
	info := model.SystemInfo{IPAddress: "192.168.1.5"}
	out := Renderer{Plain: true, MaskIPs: true}.SystemInfo(info)
	if strings.Contains(out, "192.168.1.5") || !strings.Contains(out, "x.x.x.x") {
		t.Errorf("IP not masked:\n%s", out)
	}
	if out := (Renderer{Plain: true}).SystemInfo(info); !strings.Contains(out, "192.168.1.5") {
		t.Errorf("IP masked without MaskIPs:\n%s", out)
	}
	if got := model.MaskIP(model.Unknown); got != model.Unknown {
		t.Errorf("MaskIP(unknown) = %q", got)
	}
}

type fakeSource struct {
	procs  []model.Process
	killed []int
	forced []bool
	result model.KillOutcome
}

func (f *fakeSource) ListProcesses(context.Context) []model.Process { return f.procs }

func (f *fakeSource) KillProcess(pid int, force bool) (model.KillOutcome, error) {
	f.killed = append(f.killed, pid)
	f.forced = append(f.forced, force)
	return f.result, nil
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func step(t *testing.T, m Browser, msg tea.Msg) (Browser, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	b, ok := next.(Browser)
	if !ok {
		t.Fatalf("Update returned %T, want Browser", next)
	}
	return b, cmd
}

func loaded(t *testing.T, src *fakeSource, filter string) Browser {
	t.Helper()
	m := NewBrowser(context.Background(), src, filter)
	m, _ = step(t, m, m.Init()())
	return m
}

func TestBrowserFilterAndSort(t *testing.T) {
	src := &fakeSource{procs: sampleProcs}
	m := loaded(t, src, "")
	if got := pids(m.Visible()); !equalInts(got, []int{20, 10, 40, 30}) {
		t.Fatalf("initial order = %v", got)
	}

	m, _ = step(t, m, keyRunes("/"))
	for _, r := range "NGI" {
		m, _ = step(t, m, keyRunes(string(r)))
	}
	if got := pids(m.Visible()); !equalInts(got, []int{20, 10}) {
		t.Errorf("filtered = %v, want [20 10]", got)
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filter != "NG" || m.filtering {
		t.Errorf("filter = %q filtering=%v", m.filter, m.filtering)
	}

	// Sort keys apply once filter editing is done.
	m, _ = step(t, m, keyRunes("p"))
	if got := pids(m.Visible()); !equalInts(got, []int{10, 20}) {
		t.Errorf("pid sort = %v, want [10 20]", got)
	}

	m, _ = step(t, m, keyRunes("/"))
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.filter != "" || len(m.Visible()) != 4 {
		t.Errorf("esc should clear the filter, got %q with %d rows", m.filter, len(m.Visible()))
	}

	pre := loaded(t, src, "postgres")
	if got := pids(pre.Visible()); !equalInts(got, []int{40}) {
		t.Errorf("initial filter = %v, want [40]", got)
	}
}

func TestBrowserCursor(t *testing.T) {
	m := loaded(t, &fakeSource{procs: sampleProcs}, "")
	m, _ = step(t, m, keyRunes("k"))
	if m.cursor != 0 {
		t.Errorf("cursor above top = %d", m.cursor)
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = step(t, m, keyRunes("j"))
	if p, _ := m.Selected(); p.PID != 40 {
		t.Errorf("selected = %d, want 40", p.PID)
	}
	m, _ = step(t, m, keyRunes("G"))
	m, _ = step(t, m, keyRunes("j"))
	if p, _ := m.Selected(); p.PID != 30 {
		t.Errorf("cursor past end selected %d, want 30", p.PID)
	}

	empty := loaded(t, &fakeSource{}, "")
	if _, ok := empty.Selected(); ok {
		t.Error("Selected() on empty list should be false")
	}
	if _, cmd := step(t, empty, keyRunes("x")); cmd != nil {
		t.Error("kill with nothing selected should be a no-op")
	}
}

func TestBrowserKill(t *testing.T) {
	src := &fakeSource{procs: sampleProcs, result: model.KillSucceeded}
	m := loaded(t, src, "")

	m, cmd := step(t, m, keyRunes("x"))
	if cmd == nil {
		t.Fatal("x should return a kill command")
	}
	msg := cmd()
	if len(src.killed) != 1 || src.killed[0] != 20 || src.forced[0] {
		t.Fatalf("killed = %v forced = %v, want SIGTERM to 20", src.killed, src.forced)
	}
	m, cmd = step(t, m, msg)
	if !strings.Contains(m.status, "SIGTERM") || cmd == nil {
		t.Errorf("status = %q, reload cmd = %v", m.status, cmd)
	}

	src.result = model.KillPermissionDenied
	m, cmd = step(t, m, keyRunes("X"))
	m, cmd = step(t, m, cmd())
	if !src.forced[1] {
		t.Error("X should force")
	}
	if !strings.Contains(m.status, "permission denied") || cmd != nil {
		t.Errorf("status = %q, cmd = %v", m.status, cmd)
	}
}

func TestBrowserQuitAndView(t *testing.T) {
	m := loaded(t, &fakeSource{procs: sampleProcs}, "")
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 8})
	view := m.View()
	for _, want := range []string{"PID", "Nginx-worker", "4/4 shown", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	_, cmd := step(t, m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}
