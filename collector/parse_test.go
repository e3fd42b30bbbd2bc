package collector

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestParseMeminfo(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantTotal     uint64
		wantAvailable uint64
		wantPercent   float64
		wantErr       bool
	}{
		{
			name:          "half used",
			raw:           "MemTotal:       16384000 kB\nMemFree:         1000000 kB\nMemAvailable:    8192000 kB\n",
			wantTotal:     16777216000,
			wantAvailable: 8388608000,
			wantPercent:   50,
		},
		{
			name:          "old kernel without MemAvailable",
			raw:           "MemTotal: 1000 kB\nMemFree: 100 kB\nBuffers: 50 kB\nCached: 350 kB\n",
			wantTotal:     1024000,
			wantAvailable: 512000,
			wantPercent:   50,
		},
		{
			name:          "available above total is clamped",
			raw:           "MemTotal: 1000 kB\nMemAvailable: 2000 kB\n",
			wantTotal:     1024000,
			wantAvailable: 1024000,
			wantPercent:   0,
		},
		{name: "missing total", raw: "MemFree: 100 kB\n", wantErr: true},
		{name: "zero total", raw: "MemTotal: 0 kB\nMemAvailable: 0 kB\n", wantErr: true},
		{name: "garbage total", raw: "MemTotal: lots kB\n", wantErr: true},
		{name: "no free or available", raw: "MemTotal: 1000 kB\n", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMeminfo(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrParse) {
					t.Fatalf("ParseMeminfo() err = %v, want ErrParse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMeminfo() unexpected error: %v", err)
			}
			if got.Total != tt.wantTotal || got.Available != tt.wantAvailable {
				t.Errorf("total/available = %d/%d, want %d/%d", got.Total, got.Available, tt.wantTotal, tt.wantAvailable)
			}
			if got.Used != got.Total-got.Available {
				t.Errorf("used = %d, want %d", got.Used, got.Total-got.Available)
			}
			if !approx(got.Percent, tt.wantPercent) {
				t.Errorf("percent = %.2f, want %.2f", got.Percent, tt.wantPercent)
			}
		})
	}
}

func TestParseVMStat(t *testing.T) {
	raw := `Mach Virtual Memory Statistics: (page size of 16384 bytes)
Pages free:                               10.
Pages active:                            999.
Pages inactive:                           30.
`
	st, err := ParseVMStat(raw)
	if err != nil {
		t.Fatalf("ParseVMStat() error: %v", err)
	}
	if st.PageSize != 16384 || st.PagesFree != 10 || st.PagesInactive != 30 {
		t.Errorf("ParseVMStat() = %+v", st)
	}
	if got := st.Available(); got != 40*16384 {
		t.Errorf("Available() = %d, want %d", got, 40*16384)
	}

	st, err = ParseVMStat("Pages free: 2.\n")
	if err != nil {
		t.Fatalf("ParseVMStat() without header: %v", err)
	}
	if st.PageSize != 4096 {
		t.Errorf("default page size = %d, want 4096", st.PageSize)
	}

	for _, bad := range []string{"", "Pages inactive: 3.\n", "Pages free: many.\n"} {
		if _, err := ParseVMStat(bad); !errors.Is(err, ErrParse) {
			t.Errorf("ParseVMStat(%q) err = %v, want ErrParse", bad, err)
		}
	}
}

func TestParseSysctlUint(t *testing.T) {
	tests := []struct {
		raw     string
		want    uint64
		wantErr bool
	}{
		{"17179869184\n", 17179869184, false},
		{"hw.memsize: 8589934592", 8589934592, false},
		{"", 0, true},
		{"-1", 0, true},
		{"hw.memsize: big", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSysctlUint(tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSysctlUint(%q) = %d, %v; want %d, err=%v", tt.raw, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestParseProcStat(t *testing.T) {
	raw := `cpu  100 0 100 800 0 0 0 0 0 0
cpu0 50 0 50 400 0 0 0 0 0 0
cpu1 0 0 0 500 0 0 0 0 0 0
intr 12345
ctxt 67890
`
	st, err := ParseProcStat(raw)
	if err != nil {
		t.Fatalf("ParseProcStat() error: %v", err)
	}
	if !approx(st.Percent, 20) {
		t.Errorf("Percent = %.2f, want 20", st.Percent)
	}
	if len(st.Cores) != 2 || !approx(st.Cores[0], 20) || !approx(st.Cores[1], 0) {
		t.Errorf("Cores = %v, want [20 0]", st.Cores)
	}

	bad := map[string]string{
		"no aggregate":    "cpu0 1 2 3 4\n",
		"short aggregate": "cpu 1 2 3\n",
		"all zero":        "cpu 0 0 0 0\n",
		"bad core":        "cpu 1 1 1 1\ncpu0 a b c d\n",
		"empty":           "",
	}
	for name, raw := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseProcStat(raw); !errors.Is(err, ErrParse) {
				t.Errorf("err = %v, want ErrParse", err)
			}
		})
	}
}

func TestParseLoadavg(t *testing.T) {
	got, err := ParseLoadavg("0.52 0.58 0.59 1/467 12345\n")
	if err != nil {
		t.Fatalf("ParseLoadavg() error: %v", err)
	}
	if got != [3]float64{0.52, 0.58, 0.59} {
		t.Errorf("ParseLoadavg() = %v", got)
	}
	if _, err := ParseLoadavg("0.5 x"); !errors.Is(err, ErrParse) {
		t.Errorf("short input err = %v, want ErrParse", err)
	}
	if _, err := ParseLoadavg("a b c"); !errors.Is(err, ErrParse) {
		t.Errorf("non-numeric err = %v, want ErrParse", err)
	}
}

func TestParseSysctlLoadavg(t *testing.T) {
	tests := []string{
		"{ 1.52 1.61 1.70 }\n",
		"vm.loadavg: { 1.52 1.61 1.70 }",
		"1.52 1.61 1.70",
	}
	for _, raw := range tests {
		got, err := ParseSysctlLoadavg(raw)
		if err != nil {
			t.Errorf("ParseSysctlLoadavg(%q) error: %v", raw, err)
			continue
		}
		if got != [3]float64{1.52, 1.61, 1.70} {
			t.Errorf("ParseSysctlLoadavg(%q) = %v", raw, got)
		}
	}
}

func TestParseTopCPU(t *testing.T) {
	raw := `Processes: 512 total, 2 running, 510 sleeping, 2345 threads
Load Avg: 1.52, 1.61, 1.70
CPU usage: 5.26% user, 10.52% sys, 84.21% idle
SharedLibs: 500M resident
`
	got, err := ParseTopCPU(raw)
	if err != nil {
		t.Fatalf("ParseTopCPU() error: %v", err)
	}
	if !approx(got, 15.78) {
		t.Errorf("ParseTopCPU() = %.2f, want 15.78", got)
	}
	for _, bad := range []string{"", "Load Avg: 1 2 3\n", "CPU usage: 5% user\n", "CPU usage: x% user, y% sys, z% idle\n"} {
		if _, err := ParseTopCPU(bad); !errors.Is(err, ErrParse) {
			t.Errorf("ParseTopCPU(%q) err = %v, want ErrParse", bad, err)
		}
	}
}

func TestParseDF(t *testing.T) {
	raw := `Filesystem     1024-blocks    Used Available Capacity Mounted on
/dev/sda1         10485760 5242880   5242880      50% /
tmpfs               204800       0    204800       0% /run/user/1000
map auto_home            0       0         0     100% /System/Volumes/Data/home
/dev/sdb1            1000     250       750      25% /mnt/My Disk
this row is garbage
`
	disks := ParseDF(raw)
	if len(disks) != 4 {
		t.Fatalf("ParseDF() returned %d rows, want 4: %+v", len(disks), disks)
	}

	root := disks[0]
	if root.Device != "/dev/sda1" || root.Mountpoint != "/" {
		t.Errorf("root device/mount = %q/%q", root.Device, root.Mountpoint)
	}
	if root.Total != 10737418240 || root.Used != 5368709120 || root.Free != 5368709120 {
		t.Errorf("root total/used/free = %d/%d/%d", root.Total, root.Used, root.Free)
	}
	if root.Percent != 50 {
		t.Errorf("root percent = %v, want 50", root.Percent)
	}
	if disks[2].Device != "map auto_home" {
		t.Errorf("device with space = %q, want %q", disks[2].Device, "map auto_home")
	}
	if disks[3].Mountpoint != "/mnt/My Disk" {
		t.Errorf("mountpoint with space = %q, want %q", disks[3].Mountpoint, "/mnt/My Disk")
	}

	if got := ParseDF(""); len(got) != 0 {
		t.Errorf("ParseDF(empty) = %v, want none", got)
	}
	if got := ParseDF("Filesystem 1024-blocks Used Available Capacity Mounted on\n"); len(got) != 0 {
		t.Errorf("ParseDF(header only) = %v, want none", got)
	}
}

const psAuxFixture = `USER         PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND
root           1  0.0  0.1 168000 11000 ?        Ss   Oct17   0:05 /sbin/init splash
root           2  0.0  0.0      0     0 ?        S    Oct17   0:00 [kthreadd]
www-data     812  2.5  1.2 120000 48000 ?        S    09:12   1:02 nginx: worker process
alice       4242 12.0  3.4 900000 99000 pts/0    Sl+  10:01   0:42 /usr/bin/python3 -m http.server 8000
broken row
bob          abc  1.0  1.0      1     1 ?        S    10:00   0:00 /bin/false
root           1  9.9  9.9      1     1 ?        S    10:00   0:00 /duplicate
`

func TestParsePSLinux(t *testing.T) {
	procs := ParsePSLinux(psAuxFixture)
	if len(procs) != 4 {
		t.Fatalf("ParsePSLinux() returned %d processes, want 4: %+v", len(procs), procs)
	}

	first := procs[0]
	if first.PID != 1 || first.Name != "init" || first.Cmd != "/sbin/init splash" || first.User != "root" || first.Status != "Ss" {
		t.Errorf("pid 1 = %+v", first)
	}
	if first.Created == nil || *first.Created != "Oct17" {
		t.Errorf("pid 1 created = %v, want Oct17", first.Created)
	}
	if procs[1].Name != "[kthreadd]" {
		t.Errorf("kernel thread name = %q, want [kthreadd]", procs[1].Name)
	}
	if procs[2].Name != "nginx:" || procs[2].Cmd != "nginx: worker process" {
		t.Errorf("nginx row = %+v", procs[2])
	}
	py := procs[3]
	if py.PID != 4242 || py.CPUPercent != 12.0 || py.MemoryPercent != 3.4 || py.Name != "python3" {
		t.Errorf("python row = %+v", py)
	}
	if py.Cmd != "/usr/bin/python3 -m http.server 8000" {
		t.Errorf("python cmd = %q", py.Cmd)
	}
}

func TestParsePSDarwin(t *testing.T) {
	raw := `USER               PID  %CPU %MEM STAT STARTED COMM             COMMAND
root                 1   0.3  0.1 Ss    9:00AM /sbin/launchd    /sbin/launchd
alice              501  25.0  2.0 S     9:05AM Safari           /Applications/Safari.app/Contents/MacOS/Safari -psn
alice              oops  1.0  1.0 S     9:05AM x                x
`
	procs := ParsePSDarwin(raw)
	if len(procs) != 2 {
		t.Fatalf("ParsePSDarwin() returned %d processes, want 2", len(procs))
	}
	if procs[1].Name != "Safari" || procs[1].Cmd != "/Applications/Safari.app/Contents/MacOS/Safari -psn" {
		t.Errorf("Safari row = %+v", procs[1])
	}
	if procs[1].Status != "S" || *procs[1].Created != "9:05AM" {
		t.Errorf("Safari status/created = %q/%q", procs[1].Status, *procs[1].Created)
	}
}

func TestParsePSDarwinCommWithSpaces(t *testing.T) {
	const chrome = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	raw := "USER PID %CPU %MEM STAT STARTED COMM COMMAND\n" +
		"alice 700 12.0 3.0 S 9:10AM " + chrome + " " + chrome + " --type=renderer\n" +
		"root 1 0.3 0.1 Ss 9:00AM /sbin/launchd /sbin/launchd\n" +
		"alice 800 0.0 0.1 S 9:11AM login -bash\n"
	procs := ParsePSDarwin(raw)
	if len(procs) != 3 {
		t.Fatalf("ParsePSDarwin() returned %d processes, want 3", len(procs))
	}
	tests := []struct {
		pid  int
		name string
		cmd  string
	}{
		{700, chrome, chrome + " --type=renderer"},
		{1, "/sbin/launchd", "/sbin/launchd"},
		{800, "login", "-bash"},
	}
	for i, tt := range tests {
		if p := procs[i]; p.PID != tt.pid || p.Name != tt.name || p.Cmd != tt.cmd {
			t.Errorf("row %d = pid %d name %q cmd %q, want %d %q %q", i, p.PID, p.Name, p.Cmd, tt.pid, tt.name, tt.cmd)
		}
	}
}

func TestParseProcUptime(t *testing.T) {
	d, err := ParseProcUptime("93784.56 180000.00\n")
	if err != nil {
		t.Fatalf("ParseProcUptime() error: %v", err)
	}
	if d.Truncate(time.Second) != 93784*time.Second {
		t.Errorf("ParseProcUptime() = %v", d)
	}
	for _, bad := range []string{"", "abc 1", "-5 1"} {
		if _, err := ParseProcUptime(bad); !errors.Is(err, ErrParse) {
			t.Errorf("ParseProcUptime(%q) err = %v, want ErrParse", bad, err)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{59*time.Second + 900*time.Millisecond, "0:00:59"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "3:04:05"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1 day, 2:03:04"},
		{3*24*time.Hour + 10*time.Second, "3 days, 0:00:10"},
		{-time.Second, "0:00:00"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.d); got != tt.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParseErrorIs(t *testing.T) {
	err := parseErr("df", "bad row %d", 3)
	if !errors.Is(err, ErrParse) {
		t.Fatal("ParseError should match ErrParse")
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Source != "df" {
		t.Fatalf("errors.As ParseError = %+v", pe)
	}
	if errors.Is(err, ErrSourceUnavailable) {
		t.Error("ParseError must not match ErrSourceUnavailable")
	}
}

func TestParseProcMounts(t *testing.T) {
	raw := "/dev/sda1 / ext4 rw 0 0\n/dev/sdb1 /mnt/my\\040disk xfs rw 0 0\nshort line\n\n"
	got := ParseProcMounts(raw)
	want := []MountEntry{
		{Device: "/dev/sda1", Mountpoint: "/", FSType: "ext4"},
		{Device: "/dev/sdb1", Mountpoint: "/mnt/my disk", FSType: "xfs"},
	}
	if len(got) != len(want) {
		t.Fatalf("ParseProcMounts() = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestProcMountsSource(t *testing.T) {
	mounts := `/dev/sda1 / ext4 rw 0 0
tmpfs /run tmpfs rw 0 0
/dev/sda1 /var/lib/docker ext4 rw 0 0
/dev/sdb1 /data xfs rw 0 0
/dev/loop0 /snap/core squashfs ro 0 0
`
	stats := map[string]FSStat{
		"/":          {Total: 4000, Free: 1000, Avail: 1000},
		"/data":      {Total: 2000, Free: 2000, Avail: 2000},
		"/snap/core": {},
	}
	h := hostFiles{
		read: fakeFiles(map[string]string{"/proc/mounts": mounts}),
		statfs: func(path string) (FSStat, error) {
			st, ok := stats[path]
			if !ok {
				return FSStat{}, os.ErrNotExist
			}
			return st, nil
		},
	}
	disks, err := procMountsSource.Collect(context.Background(), h)
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(disks) != 2 || disks[0].Mountpoint != "/" || disks[1].Mountpoint != "/data" {
		t.Fatalf("Collect() = %+v", disks)
	}
	if disks[0].Used != 3000 || disks[0].Percent != 75 || disks[1].Percent != 0 {
		t.Errorf("rows = %+v", disks)
	}

	h.statfs = func(string) (FSStat, error) { return FSStat{}, os.ErrPermission }
	if _, err := procMountsSource.Collect(context.Background(), h); !errors.Is(err, ErrParse) {
		t.Errorf("no usable mounts error = %v, want ErrParse", err)
	}
}
